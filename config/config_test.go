package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvOverridesOnlySetVars(t *testing.T) {
	t.Setenv("AVSYNC_FRAME_RATE", "60")
	t.Setenv("AVSYNC_SAMPLE_RATE", "")
	os.Unsetenv("AVSYNC_CHANNELS")

	cfg := FromEnv(Default())
	assert.Equal(t, 60.0, cfg.FrameRate)
	assert.Equal(t, Default().SampleRate, cfg.SampleRate)
	assert.Equal(t, Default().Channels, cfg.Channels)
}

func TestFromEnvIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("AVSYNC_MAX_FRAME_DELAY", "not-a-number")

	cfg := FromEnv(Default())
	assert.Equal(t, Default().MaxFrameDelay, cfg.MaxFrameDelay)
}

func TestDefaultDerivesAudioBufferFromSampleRate(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.SampleRate*30, cfg.MaxAudioSamplesBuffered)
}
