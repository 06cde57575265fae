package synchronizer

import "github.com/zsiec/avsync/avmedia"

// VideoSink is the upstream interface a video capture source drives.
type VideoSink interface {
	// GetNextVideoTimestamp returns the earliest capture timestamp the
	// next video frame may have, letting the capture source skip frames
	// it knows will be discarded.
	GetNextVideoTimestamp() int64
	// ReadVideoFrame ingests one captured frame. data is borrowed for the
	// duration of the call.
	ReadVideoFrame(width, height int, data []byte, stride int, format avmedia.PixelFormat, timestamp int64) error
	// ReadVideoPing advances the video clock without data, keeping the
	// common stop time moving while capture is quiet.
	ReadVideoPing(timestamp int64)
}

// AudioSink is the upstream interface an audio capture source drives.
type AudioSink interface {
	// ReadAudioSamples ingests one block of samples. data is borrowed for
	// the duration of the call; timestamp is the wall-clock time of the
	// first sample.
	ReadAudioSamples(sampleRate, channels, sampleCount int, data []byte, format avmedia.SampleFormat, timestamp int64) error
	// ReadAudioHole signals a lost audio chunk of unknown size.
	ReadAudioHole()
}

// VideoEncoder is the downstream video encoder interface.
type VideoEncoder interface {
	EncodeFrame(frame avmedia.VideoFrame) error
}

// AudioEncoder is the downstream audio encoder interface. RequiredFrameSize
// and RequiredSampleSize are read once at construction to size the
// partial-frame staging buffer.
type AudioEncoder interface {
	EncodeFrame(frame avmedia.AudioBlock) error
	RequiredFrameSize() int
	RequiredSampleSize() int
}

// Scaler converts a borrowed raw pixel buffer, in the given source format,
// into an owned PixelFrame in the encoder's configured target format and
// dimensions (fixed at construction). It is stateful (cached conversion
// context) and is always called under the synchronizer's own scaler
// mutex, never concurrently with itself.
type Scaler interface {
	Scale(width, height int, data []byte, stride int, format avmedia.PixelFormat) (avmedia.PixelFrame, error)
}

// Resampler converts borrowed PCM data to the encoder's configured sample
// rate, channel layout, and sample format, applying the current drift
// correction ratio. It is always called under the synchronizer's own
// resampler mutex, never concurrently with itself.
type Resampler interface {
	// SetTargetRatio updates the drift-correction ratio the next Resample
	// call should apply (see drift.Estimator.Ratio).
	SetTargetRatio(ratio float64)
	Resample(sampleRate, channels int, data []byte, format avmedia.SampleFormat) ([]byte, error)
}
