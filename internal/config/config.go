package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"gopkg.in/yaml.v3"
)

const (
	AppName        = "bcradio"
	AppTagline     = "Terminal radio for Bandcamp"
	AppDescription = "A command line music player for https://bandcamp.com"
	AppProjectURL  = "https://github.com/glebovdev/bcradio-cli"

	ConfigDir      = ".config/bcradio"
	ConfigFileName = "config.yml"

	DefaultVolume = 9
	MinVolume     = 0
	MaxVolume     = 9

	DefaultLowWaterMark = 2
	DefaultImageWidth   = 30
	MinImageWidth       = 10
	MaxImageWidth       = 100
)

// ClampVolume ensures volume is within the key range [0, 9].
func ClampVolume(volume int) int {
	if volume < MinVolume {
		return MinVolume
	}
	if volume > MaxVolume {
		return MaxVolume
	}
	return volume
}

// ClampImageWidth keeps the artwork width within [10, 100] columns.
func ClampImageWidth(width int) int {
	if width <= MinImageWidth {
		return MinImageWidth
	}
	if width >= MaxImageWidth {
		return MaxImageWidth
	}
	return width
}

// AppVersion can be overridden at build time using ldflags:
// go build -ldflags "-X github.com/glebovdev/bcradio-cli/internal/config.AppVersion=1.0.0"
var AppVersion = "dev"

type Theme struct {
	Background      string `yaml:"background"`
	Foreground      string `yaml:"foreground"`
	Borders         string `yaml:"borders"`
	Highlight       string `yaml:"highlight"`
	ModalBackground string `yaml:"modal_background"`
	Dim             string `yaml:"dim"`
	SongLabel       string `yaml:"song_label"`
	ArtistLabel     string `yaml:"artist_label"`
	AlbumLabel      string `yaml:"album_label"`
}

type Config struct {
	Volume       int    `yaml:"volume"`
	Genre        string `yaml:"genre"`
	Subgenre     string `yaml:"subgenre"`
	LowWaterMark int    `yaml:"low_water_mark"`
	ImageWidth   int    `yaml:"image_width"`
	Theme        Theme  `yaml:"theme"`
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(home, ConfigDir, ConfigFileName)
	return configPath, nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the config at path, falling back to defaults when the file is missing.
func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Volume = ClampVolume(cfg.Volume)
	cfg.ImageWidth = ClampImageWidth(cfg.ImageWidth)
	if cfg.LowWaterMark < 1 {
		cfg.LowWaterMark = 1
	}

	return cfg, nil
}

func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes the configuration atomically using temp file + rename.
func (c *Config) SaveTo(configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpFile, err := os.CreateTemp(configDir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	tmpPath = "" // Prevent defer from removing the final file
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Volume:       DefaultVolume,
		Genre:        "",
		Subgenre:     "",
		LowWaterMark: DefaultLowWaterMark,
		ImageWidth:   DefaultImageWidth,
		Theme: Theme{
			Background:      "#1a1b25",
			Foreground:      "#a3aacb",
			Borders:         "#40445b",
			Highlight:       "#96fa28",
			ModalBackground: "#282a36",
			Dim:             "#5a5b67",
			SongLabel:       "#9231b0",
			ArtistLabel:     "#7e57c2",
			AlbumLabel:      "#7986cb",
		},
	}
}

func GetColor(colorStr string) tcell.Color {
	if colorStr == "" || colorStr == "default" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(colorStr)
}
