package listen

import (
	"fmt"
	"time"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// Detector decides whether a buffer contains speech
type Detector interface {
	Process(samples []float32) (bool, error)
}

// Config holds voice activity settings
type Config struct {
	SampleRate int

	// Mode is the WebRTC aggressiveness (0-3)
	Mode int

	// SilenceDuration ends the utterance after this much trailing silence
	SilenceDuration time.Duration

	// MinSpeechDuration discards shorter utterances
	MinSpeechDuration time.Duration
}

// DefaultConfig suits short command phrases
func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Mode:              2,
		SilenceDuration:   1200 * time.Millisecond,
		MinSpeechDuration: 300 * time.Millisecond,
	}
}

// WebRTCVAD wraps the WebRTC voice activity detector
type WebRTCVAD struct {
	vad        *webrtcvad.VAD
	sampleRate int
}

// NewWebRTCVAD creates a detector for cfg.SampleRate
func NewWebRTCVAD(cfg Config) (*WebRTCVAD, error) {
	switch cfg.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("invalid sample rate %d, must be 8000, 16000, 32000 or 48000", cfg.SampleRate)
	}

	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD: %w", err)
	}

	mode := cfg.Mode
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}
	if err := vad.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set VAD mode: %w", err)
	}

	return &WebRTCVAD{vad: vad, sampleRate: cfg.SampleRate}, nil
}

// Process reports whether any 10ms frame of samples contains speech
func (w *WebRTCVAD) Process(samples []float32) (bool, error) {
	frameSize := w.sampleRate / 100
	pcm := floatToInt16(samples)
	if len(pcm) < frameSize {
		padded := make([]int16, frameSize)
		copy(padded, pcm)
		pcm = padded
	}

	for i := 0; i+frameSize <= len(pcm); i += frameSize {
		active, err := w.vad.Process(w.sampleRate, int16ToBytes(pcm[i:i+frameSize]))
		if err != nil {
			return false, fmt.Errorf("VAD processing failed: %w", err)
		}
		if active {
			return true, nil
		}
	}
	return false, nil
}

// SpeechTracker follows speech and silence in audio time
type SpeechTracker struct {
	config  Config
	started bool
	speech  time.Duration
	silence time.Duration
}

// NewSpeechTracker creates a tracker
func NewSpeechTracker(cfg Config) *SpeechTracker {
	return &SpeechTracker{config: cfg}
}

// Update accounts for a frame of length d
func (t *SpeechTracker) Update(isSpeech bool, d time.Duration) {
	if isSpeech {
		t.started = true
		t.speech += t.silence + d
		t.silence = 0
		return
	}
	if t.started {
		t.silence += d
	}
}

// Started reports whether speech has been heard
func (t *SpeechTracker) Started() bool { return t.started }

// ShouldEndRecording is true once enough speech was followed by enough silence
func (t *SpeechTracker) ShouldEndRecording() bool {
	return t.started &&
		t.silence >= t.config.SilenceDuration &&
		t.speech >= t.config.MinSpeechDuration
}

// IsValidSpeech is true when enough speech was captured
func (t *SpeechTracker) IsValidSpeech() bool {
	return t.started && t.speech >= t.config.MinSpeechDuration
}

// Reset clears the tracker
func (t *SpeechTracker) Reset() {
	t.started = false
	t.speech = 0
	t.silence = 0
}

func floatToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		out[i] = int16(s * 32767)
	}
	return out
}

func int16ToBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}
