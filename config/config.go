// Package config holds the tunable constants of the A/V synchronizer and
// the environment-variable overrides used by the cmd/avsyncdemo harness.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/zsiec/avsync/avmedia"
)

// Config holds every construction-time tunable of the synchronizer. Each
// field's use is described on the field itself.
type Config struct {
	// FrameRate is the output video frame rate, frames per second.
	FrameRate float64
	// SampleRate, Channels, SampleFormat, PixelFormat describe the format
	// the synchronizer resamples/scales into before buffering.
	SampleRate   int
	Channels     int
	SampleFormat avmedia.SampleFormat
	PixelFormat  avmedia.PixelFormat

	// RequiredFrameSize is the audio encoder's fixed input frame size, in
	// samples per channel. RequiredSampleSize is its per-sample byte size.
	RequiredFrameSize  int
	RequiredSampleSize int

	// DesyncCorrectionP, DesyncCorrectionI are the PI controller's
	// proportional and integral gains. DesyncErrorThreshold is the
	// absolute desync, in seconds, at which the "desync" warning fires
	// and beyond which the estimate is clamped.
	DesyncCorrectionP    float64
	DesyncCorrectionI    float64
	DesyncErrorThreshold float64

	// MaxVideoFramesBuffered and MaxAudioSamplesBuffered bound the ring
	// buffers; MaxFrameDelay bounds how many duplicate video frames are
	// synthesized at ingest for a single capture gap, and how many
	// trailing duplicates the worker emits when draining a segment.
	MaxVideoFramesBuffered  int
	MaxAudioSamplesBuffered int
	MaxFrameDelay           int

	// AllowFrameSkipping enables ingest-side gap synthesis: when true, a
	// capture gap is filled with duplicates of the last emitted frame;
	// when false, no duplicates are inserted. The worker assigns
	// consecutive output PTS to buffered frames in queue order and never
	// drops a late frame or stalls video delivery, whatever this is set to.
	AllowFrameSkipping bool

	// WorkerIdleInterval is the emit worker's fallback poll interval when
	// no wake signal arrives from ingest.
	WorkerIdleInterval time.Duration
}

// Default returns the typical configuration from the design's
// configuration-constants table (spec section 6).
func Default() Config {
	c := Config{
		FrameRate:            30,
		SampleRate:           48000,
		Channels:             2,
		SampleFormat:         avmedia.SampleFormatS16LE,
		PixelFormat:          avmedia.PixelFormatI420,
		RequiredFrameSize:    1024,
		RequiredSampleSize:   2,
		DesyncCorrectionP:    0.3,
		DesyncCorrectionI:    0.05,
		DesyncErrorThreshold: 20,
		MaxVideoFramesBuffered: 30,
		MaxFrameDelay:          10,
		AllowFrameSkipping:     true,
		WorkerIdleInterval:     10 * time.Millisecond,
	}
	c.MaxAudioSamplesBuffered = c.SampleRate * 30
	return c
}

// FromEnv overrides base with any of the AVSYNC_* environment variables
// that are set and parse cleanly; unset, empty or unparsable variables
// leave the corresponding field unchanged.
func FromEnv(base Config) Config {
	if v, ok := floatEnv("AVSYNC_FRAME_RATE"); ok {
		base.FrameRate = v
	}
	if v, ok := intEnv("AVSYNC_SAMPLE_RATE"); ok {
		base.SampleRate = v
	}
	if v, ok := intEnv("AVSYNC_CHANNELS"); ok {
		base.Channels = v
	}
	if v, ok := floatEnv("AVSYNC_DESYNC_P"); ok {
		base.DesyncCorrectionP = v
	}
	if v, ok := floatEnv("AVSYNC_DESYNC_I"); ok {
		base.DesyncCorrectionI = v
	}
	if v, ok := floatEnv("AVSYNC_DESYNC_THRESHOLD"); ok {
		base.DesyncErrorThreshold = v
	}
	if v, ok := intEnv("AVSYNC_MAX_VIDEO_FRAMES"); ok {
		base.MaxVideoFramesBuffered = v
	}
	if v, ok := intEnv("AVSYNC_MAX_AUDIO_SAMPLES"); ok {
		base.MaxAudioSamplesBuffered = v
	}
	if v, ok := intEnv("AVSYNC_MAX_FRAME_DELAY"); ok {
		base.MaxFrameDelay = v
	}
	return base
}

func floatEnv(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func intEnv(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
