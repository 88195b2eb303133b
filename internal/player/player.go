// Package player plays decoded tracks on the system speaker.
package player

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSampleRate = beep.SampleRate(44100)
	SpeakerBufferSize = time.Millisecond * 250
	ResampleQuality   = 4
)

type PlayerState int

const (
	StateIdle PlayerState = iota
	StatePlaying
	StatePaused
)

func (s PlayerState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// Source is a decoded track ready to be appended to a sink.
type Source struct {
	Streamer beep.StreamSeekCloser
	Format   beep.Format
}

// playback is one appended source. done is flipped from the speaker
// goroutine, so it is the only field touched there.
type playback struct {
	source Source
	ctrl   *beep.Ctrl
	volume *effects.Volume
	done   atomic.Bool
}

// speakerDevice abstracts the beep speaker package.
type speakerDevice interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

type beepSpeaker struct{}

func (beepSpeaker) Init(sr beep.SampleRate, n int) error { return speaker.Init(sr, n) }
func (beepSpeaker) Play(s ...beep.Streamer)              { speaker.Play(s...) }
func (beepSpeaker) Clear()                               { speaker.Clear() }
func (beepSpeaker) Lock()                                { speaker.Lock() }
func (beepSpeaker) Unlock()                              { speaker.Unlock() }

// SpeakerSink plays one source at a time on the speaker.
type SpeakerSink struct {
	mu          sync.Mutex
	device      speakerDevice
	sampleRate  beep.SampleRate
	speakerInit bool
	gain        float64
	cur         *playback
	state       PlayerState
}

func NewSpeakerSink() *SpeakerSink {
	return newSink(beepSpeaker{})
}

func newSink(device speakerDevice) *SpeakerSink {
	return &SpeakerSink{
		device:     device,
		sampleRate: DefaultSampleRate,
		gain:       1,
	}
}

func (s *SpeakerSink) initSpeaker() error {
	if s.speakerInit {
		return nil
	}
	if err := s.device.Init(s.sampleRate, s.sampleRate.N(SpeakerBufferSize)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	s.speakerInit = true
	log.Debug().Msgf("Speaker initialized with sample rate: %d Hz, buffer: %v", s.sampleRate, SpeakerBufferSize)
	return nil
}

// Empty reports whether nothing is queued on the speaker. A finished source
// is closed and released here.
func (s *SpeakerSink) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseFinished()
}

func (s *SpeakerSink) releaseFinished() bool {
	if s.cur == nil {
		return true
	}
	if !s.cur.done.Load() {
		return false
	}
	if err := s.cur.source.Streamer.Close(); err != nil {
		log.Debug().Err(err).Msg("Failed to close finished stream")
	}
	s.cur = nil
	s.state = StateIdle
	return true
}

// Append starts playing src. Whatever was playing is replaced.
func (s *SpeakerSink) Append(src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initSpeaker(); err != nil {
		return err
	}
	s.stopLocked()

	var streamer beep.Streamer = src.Streamer
	if src.Format.SampleRate != s.sampleRate {
		streamer = beep.Resample(ResampleQuality, src.Format.SampleRate, s.sampleRate, streamer)
	}

	pb := &playback{source: src}
	pb.ctrl = &beep.Ctrl{Streamer: newFadeIn(streamer, s.sampleRate.N(fadeInDuration))}
	pb.volume = &effects.Volume{Streamer: pb.ctrl, Base: 2}
	applyGain(pb.volume, s.gain)

	s.cur = pb
	s.state = StatePlaying
	s.device.Play(beep.Seq(pb.volume, beep.Callback(func() {
		pb.done.Store(true)
	})))

	log.Debug().Int("samples", src.Streamer.Len()).Int("rate", int(src.Format.SampleRate)).Msg("Playback started")
	return nil
}

// Stop drops the current source. It is a no-op when nothing plays.
func (s *SpeakerSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *SpeakerSink) stopLocked() {
	if s.cur == nil {
		return
	}
	s.device.Clear()
	if err := s.cur.source.Streamer.Close(); err != nil {
		log.Debug().Err(err).Msg("Failed to close stopped stream")
	}
	s.cur = nil
	s.state = StateIdle
	log.Debug().Msg("Playback stopped")
}

func (s *SpeakerSink) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return
	}

	s.device.Lock()
	s.cur.ctrl.Paused = paused
	s.device.Unlock()

	if paused {
		s.state = StatePaused
		log.Debug().Msg("Playback paused")
	} else {
		s.state = StatePlaying
		log.Debug().Msg("Playback resumed")
	}
}

func (s *SpeakerSink) Pause()  { s.setPaused(true) }
func (s *SpeakerSink) Resume() { s.setPaused(false) }

func (s *SpeakerSink) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StatePaused
}

func (s *SpeakerSink) State() PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetVolume sets the linear gain, 0 meaning silent and 1 full volume. It is
// kept for sources appended later.
func (s *SpeakerSink) SetVolume(gain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gain = gain
	if s.cur == nil {
		log.Debug().Msgf("Volume stored as %.3f (will be applied when playback starts)", gain)
		return
	}

	s.device.Lock()
	applyGain(s.cur.volume, gain)
	s.device.Unlock()

	log.Debug().Msgf("Volume set to %.3f", gain)
}

// Remaining returns the playing time left in the current source.
func (s *SpeakerSink) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil || s.cur.done.Load() {
		return 0
	}

	s.device.Lock()
	left := s.cur.source.Streamer.Len() - s.cur.source.Streamer.Position()
	s.device.Unlock()

	if left <= 0 {
		return 0
	}
	return s.cur.source.Format.SampleRate.D(left)
}

const fadeInDuration = 50 * time.Millisecond

// fadeIn ramps the first samples of a stream up from silence.
type fadeIn struct {
	streamer  beep.Streamer
	remaining int
	total     int
}

func newFadeIn(s beep.Streamer, samples int) *fadeIn {
	return &fadeIn{streamer: s, remaining: samples, total: samples}
}

func (f *fadeIn) Stream(samples [][2]float64) (int, bool) {
	n, ok := f.streamer.Stream(samples)
	for i := 0; i < n && f.remaining > 0; i++ {
		scale := float64(f.total-f.remaining) / float64(f.total)
		samples[i][0] *= scale
		samples[i][1] *= scale
		f.remaining--
	}
	return n, ok
}

func (f *fadeIn) Err() error {
	return f.streamer.Err()
}
