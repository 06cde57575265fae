package synchronizer

import "github.com/zsiec/avsync/avmedia"

// passthroughScaler is a Scaler that performs no conversion and no
// validation; it copies the borrowed buffer so the caller may reuse it and
// reports the caller's dimensions, stride and format unchanged. Shipped so the
// package is independently testable without a real scaler.
type passthroughScaler struct{}

func (passthroughScaler) Scale(width, height int, data []byte, stride int, format avmedia.PixelFormat) (avmedia.PixelFrame, error) {
	owned := make([]byte, len(data))
	copy(owned, data)
	return avmedia.PixelFrame{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Data:   owned,
	}, nil
}

// passthroughResampler is a Resampler that copies its input unchanged and
// ignores the target ratio. Shipped so the package is independently
// testable without a real resampler.
type passthroughResampler struct{}

func (*passthroughResampler) SetTargetRatio(ratio float64) {}

func (*passthroughResampler) Resample(sampleRate, channels int, data []byte, format avmedia.SampleFormat) ([]byte, error) {
	owned := make([]byte, len(data))
	copy(owned, data)
	return owned, nil
}
