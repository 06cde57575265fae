// Package avmedia defines the raw frame and format types that flow through
// the synchronizer, from ingest through to the video/audio encoders.
package avmedia

// PixelFormat identifies a raw pixel layout, either as delivered to
// ReadVideoFrame or as required by the configured video encoder.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatI420
	PixelFormatNV12
	PixelFormatRGBA
)

// SampleFormat identifies a raw PCM sample encoding.
type SampleFormat int

const (
	SampleFormatUnknown SampleFormat = iota
	SampleFormatS16LE
	SampleFormatF32LE
)

// SampleFormatBytes returns the size in bytes of a single sample in the
// given format, or 0 if the format is unknown.
func SampleFormatBytes(f SampleFormat) int {
	switch f {
	case SampleFormatS16LE:
		return 2
	case SampleFormatF32LE:
		return 4
	default:
		return 0
	}
}

// Silence returns n samples of digital silence across channels in the
// given format. Used to pad capture gaps and segment-boundary audio.
func Silence(format SampleFormat, channels, n int) []byte {
	bps := SampleFormatBytes(format)
	if bps == 0 || channels <= 0 || n <= 0 {
		return nil
	}
	return make([]byte, n*channels*bps)
}

// PixelFrame is an owned raw pixel buffer in a fixed format, dimensions,
// and stride. It is the representation video data takes both on entry to
// the ring buffer (after scaling) and as delivered to the video encoder.
type PixelFrame struct {
	Width  int
	Height int
	Stride int
	Format PixelFormat
	Data   []byte
}

// Clone returns a deep copy of the frame, including its pixel data. Used
// to duplicate the last frame into a capture gap without letting the
// duplicate alias memory a producer or the ring buffer might reuse.
func (f PixelFrame) Clone() PixelFrame {
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	c := f
	c.Data = data
	return c
}

// VideoFrame is a pixel frame tagged with its output-stream presentation
// timestamp — a frame index in the encoder's frame-rate domain, not a
// wall-clock time — ready for the video encoder.
type VideoFrame struct {
	PTS int64
	PixelFrame
}

// AudioBlock is a contiguous run of interleaved PCM samples. While
// buffered, Timestamp anchors the wall-clock capture time of the block's
// first sample, with trailing samples positioned by Timestamp plus the
// number of samples already consumed divided by SampleRate (see
// synchronizer/ringbuffer.AudioRing). Once handed to the audio encoder,
// Timestamp instead carries the output-domain sample position — the
// running count of samples emitted so far, analogous to VideoFrame.PTS —
// and the block always holds exactly the encoder's required frame size.
type AudioBlock struct {
	Timestamp  int64
	SampleRate int
	Channels   int
	Format     SampleFormat
	Data       []byte
}

// SampleCount returns the number of samples (per channel) held in the
// block, or 0 if the format or channel count is unset.
func (b AudioBlock) SampleCount() int {
	bps := SampleFormatBytes(b.Format)
	if bps == 0 || b.Channels == 0 {
		return 0
	}
	return len(b.Data) / (bps * b.Channels)
}
