package ringbuffer

import "github.com/zsiec/avsync/avmedia"

// AudioRing is a byte FIFO of interleaved PCM samples anchored to a single
// wall-clock timestamp for its oldest buffered sample. Only the head
// timestamp is stored; the timestamp of any later sample is derived as
// head timestamp plus samples-since-head divided by sample rate, per
// avmedia.AudioBlock's documented FIFO positioning rule.
type AudioRing struct {
	data          []byte
	headTimestamp int64

	sampleRate     int
	channels       int
	bytesPerSample int

	capSamples int
}

// NewAudioRing returns an empty ring bounded to capSamples samples.
func NewAudioRing(capSamples int) *AudioRing {
	return &AudioRing{capSamples: capSamples}
}

// Configure (re)establishes the format of samples appended to the ring.
// Safe to call repeatedly with the same format; called once a segment's
// format is known so Append/Consume can compute per-sample byte offsets.
func (r *AudioRing) Configure(sampleRate, channels int, format avmedia.SampleFormat) {
	r.sampleRate = sampleRate
	r.channels = channels
	r.bytesPerSample = avmedia.SampleFormatBytes(format)
}

func (r *AudioRing) frameBytes() int { return r.channels * r.bytesPerSample }

// Samples returns the number of buffered samples (per channel).
func (r *AudioRing) Samples() int {
	fb := r.frameBytes()
	if fb == 0 {
		return 0
	}
	return len(r.data) / fb
}

// Cap returns the configured sample capacity.
func (r *AudioRing) Cap() int { return r.capSamples }

// OverCapacity reports whether the ring currently holds more samples than
// its configured capacity.
func (r *AudioRing) OverCapacity() bool { return r.Samples() > r.capSamples }

// Append adds PCM bytes to the tail. If the ring was empty, ts becomes
// its new head timestamp.
func (r *AudioRing) Append(ts int64, data []byte) {
	if len(r.data) == 0 {
		r.headTimestamp = ts
	}
	r.data = append(r.data, data...)
}

// HeadTimestamp returns the wall-clock timestamp of the oldest buffered
// sample.
func (r *AudioRing) HeadTimestamp() int64 { return r.headTimestamp }

// TimestampAt returns the wall-clock timestamp of the sample offset
// samples after the current head.
func (r *AudioRing) TimestampAt(offset int) int64 {
	if r.sampleRate == 0 {
		return r.headTimestamp
	}
	return r.headTimestamp + int64(offset)*1_000_000/int64(r.sampleRate)
}

// Drop discards up to n samples from the head, advancing the head
// timestamp, and returns the number actually dropped. Used both for
// overflow (drop from head, never the tail) and for leading-silence
// alignment when audio leads video at segment start.
func (r *AudioRing) Drop(n int) int {
	if n <= 0 {
		return 0
	}
	avail := r.Samples()
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}
	r.headTimestamp = r.TimestampAt(n)
	r.data = r.data[n*r.frameBytes():]
	return n
}

// Consume removes and returns up to n samples' worth of bytes from the
// head, advancing the head timestamp.
func (r *AudioRing) Consume(n int) []byte {
	fb := r.frameBytes()
	if fb == 0 || n <= 0 {
		return nil
	}
	avail := r.Samples()
	if n > avail {
		n = avail
	}
	out := make([]byte, n*fb)
	copy(out, r.data[:n*fb])
	r.Drop(n)
	return out
}
