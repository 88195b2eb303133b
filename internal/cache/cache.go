// Package cache keeps downloaded album artwork on disk.
package cache

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultExpiry is how long cached artwork is valid (30 days).
	DefaultExpiry = 30 * 24 * time.Hour
	// ArtworkSubdir is the subdirectory for cached artwork.
	ArtworkSubdir = "artwork"
	// AppName is used for the cache directory name.
	AppName = "bcradio"
)

// Cache stores artwork bytes exactly as served, keyed by their URL.
type Cache struct {
	baseDir string
	expiry  time.Duration
	now     func() time.Time
}

// NewCache creates a new Cache in the user cache directory.
func NewCache() (*Cache, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return nil, err
	}
	return NewCacheAt(cacheDir, DefaultExpiry), nil
}

// NewCacheAt creates a Cache rooted at dir.
func NewCacheAt(dir string, expiry time.Duration) *Cache {
	return &Cache{
		baseDir: dir,
		expiry:  expiry,
		now:     time.Now,
	}
}

// GetCacheDir returns the platform-specific cache directory for the application.
func GetCacheDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}

	return filepath.Join(userCacheDir, AppName), nil
}

func hashURL(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

func (c *Cache) path(url string) string {
	return filepath.Join(c.baseDir, ArtworkSubdir, hashURL(url))
}

// Get returns the cached bytes for url, or nil when missing or expired.
func (c *Cache) Get(url string) []byte {
	p := c.path(url)

	info, err := os.Stat(p)
	if err != nil {
		return nil
	}

	if c.now().Sub(info.ModTime()) > c.expiry {
		if err := os.Remove(p); err != nil {
			log.Debug().Err(err).Str("file", p).Msg("Failed to remove expired artwork")
		}
		return nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		log.Debug().Err(err).Str("file", p).Msg("Failed to read cached artwork")
		return nil
	}
	return data
}

// Put stores data for url, replacing any previous entry.
func (c *Cache) Put(url string, data []byte) error {
	dir := filepath.Join(c.baseDir, ArtworkSubdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artwork-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path(url)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to store cache file: %w", err)
	}
	return nil
}

// GetImage returns the decoded artwork for url, or nil when it is not cached
// or cannot be decoded.
func (c *Cache) GetImage(url string) image.Image {
	data := c.Get(url)
	if data == nil {
		return nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("Failed to decode cached artwork")
		return nil
	}
	return img
}

// CleanExpired removes cache files older than the expiry duration.
func (c *Cache) CleanExpired() error {
	dir := filepath.Join(c.baseDir, ArtworkSubdir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	now := c.now()
	var removed, failed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Debug().Err(err).Str("file", entry.Name()).Msg("Failed to get file info")
			continue
		}

		if now.Sub(info.ModTime()) > c.expiry {
			p := filepath.Join(dir, entry.Name())
			if err := os.Remove(p); err != nil {
				log.Debug().Err(err).Str("file", p).Msg("Failed to remove expired artwork")
				failed++
			} else {
				removed++
			}
		}
	}

	if removed > 0 || failed > 0 {
		log.Debug().Int("removed", removed).Int("failed", failed).Msg("Artwork cleanup completed")
	}

	return nil
}
