package player

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/gopxl/beep/v2/mp3"
	gomp3 "github.com/hajimehoshi/go-mp3"
)

// bytesPerSample is the go-mp3 output frame size: 16-bit stereo.
const bytesPerSample = 4

var ErrEmptyBuffer = errors.New("empty audio buffer")

type memoryFile struct {
	*bytes.Reader
}

func (memoryFile) Close() error { return nil }

// MP3Decoder decodes fully buffered MP3 tracks.
type MP3Decoder struct{}

func NewMP3Decoder() *MP3Decoder {
	return &MP3Decoder{}
}

// Decode returns a seekable stream over buf.
func (d *MP3Decoder) Decode(buf []byte) (Source, error) {
	if len(buf) == 0 {
		return Source{}, ErrEmptyBuffer
	}
	streamer, format, err := mp3.Decode(memoryFile{bytes.NewReader(buf)})
	if err != nil {
		return Source{}, fmt.Errorf("failed to decode mp3: %w", err)
	}
	return Source{Streamer: streamer, Format: format}, nil
}

// ProbeDuration returns the playing time of buf without decoding the audio
// into samples.
func (d *MP3Decoder) ProbeDuration(buf []byte) (time.Duration, error) {
	if len(buf) == 0 {
		return 0, ErrEmptyBuffer
	}
	dec, err := gomp3.NewDecoder(bytes.NewReader(buf))
	if err != nil {
		return 0, fmt.Errorf("failed to probe mp3: %w", err)
	}
	length := dec.Length()
	if length <= 0 || dec.SampleRate() <= 0 {
		return 0, nil
	}
	samples := length / bytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(dec.SampleRate()), nil
}
