package synchronizer

import (
	"fmt"

	"github.com/zsiec/avsync/avmedia"
	"github.com/zsiec/avsync/synchronizer/ringbuffer"
)

// GetNextVideoTimestamp returns the earliest timestamp a new video frame
// may usefully carry: the last-ingested timestamp plus one frame period, or
// the stop time if that has been pushed further ahead by a ping. Before any
// video has been ingested this segment, it returns 0. A capture source may
// use this to discard a frame it knows would only be dropped as a
// duplicate.
func (s *Synchronizer) GetNextVideoTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seg.videoStarted {
		return 0
	}
	next := s.seg.videoLastTimestamp + s.framePeriodMicros()
	if s.seg.videoStopTime > next {
		next = s.seg.videoStopTime
	}
	return next
}

// ReadVideoFrame ingests one captured video frame. data is borrowed only
// for the duration of the call: it is immediately handed to the configured
// Scaler, which is required to copy it into an owned PixelFrame.
func (s *Synchronizer) ReadVideoFrame(width, height int, data []byte, stride int, format avmedia.PixelFormat, timestamp int64) error {
	if s.closed.Load() {
		return ErrClosed
	}

	if format == avmedia.PixelFormatUnknown {
		format = s.cfg.PixelFormat
	}
	s.scalerMu.Lock()
	frame, err := s.scaler.Scale(width, height, data, stride, format)
	s.scalerMu.Unlock()
	if err != nil {
		return fmt.Errorf("scaling video frame: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seg.phase == phaseClosed {
		return ErrClosed
	}

	s.seg.hasInput = true
	if !s.seg.videoStarted {
		s.seg.videoStarted = true
		s.seg.videoStartTime = timestamp
		s.seg.videoLastTimestamp = timestamp
		s.seg.maybeRunning()
	}

	s.synthesizeGapLocked(timestamp)

	s.seg.videoLastTimestamp = timestamp
	s.seg.videoStopTime = timestamp

	s.videoQueue.Push(ringbuffer.VideoEntry{Timestamp: timestamp, Frame: frame})
	if s.videoQueue.OverCapacity() {
		s.videoQueue.DropOldest()
		s.log.Warn("video queue overflow, dropping oldest buffered frame")
	}

	s.wakeWorkerLocked()
	return nil
}

// synthesizeGapLocked inserts duplicate-frame placeholders into the video
// queue when the gap since the last ingested frame spans at least two
// frame periods, so a capture stall never stalls the common segment clock.
// It does nothing when AllowFrameSkipping is false or no frame has been
// emitted yet. Must be called with mu held.
func (s *Synchronizer) synthesizeGapLocked(timestamp int64) {
	period := s.framePeriodMicros()
	if period <= 0 || !s.cfg.AllowFrameSkipping || s.lastVideoFrame == nil {
		return
	}
	gap := timestamp - s.seg.videoLastTimestamp
	missed := int(gap/period) - 1
	if missed <= 0 {
		return
	}
	budget := s.cfg.MaxFrameDelay
	if missed > budget {
		missed = budget
		if !s.seg.videoDropWarned {
			s.seg.videoDropWarned = true
			s.log.Warn("video gap exceeds max frame delay, truncating synthesized duplicates", "gap_micros", gap)
		}
	}
	ts := s.seg.videoLastTimestamp
	for i := 0; i < missed; i++ {
		ts += period
		s.videoQueue.Push(ringbuffer.VideoEntry{Timestamp: ts, Frame: *s.lastVideoFrame})
	}
}

// ReadVideoPing advances the common segment clock without any frame data,
// used by capture sources that want to keep the stop time moving during
// quiet periods rather than let ReadAudioSamples alone carry it forward.
func (s *Synchronizer) ReadVideoPing(timestamp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seg.phase == phaseClosed {
		return
	}
	if timestamp > s.seg.videoStopTime {
		s.seg.videoStopTime = timestamp
	}
}

// ReadAudioSamples ingests one block of interleaved PCM audio. data is
// borrowed only for the duration of the call: it is immediately handed to
// the configured Resampler, which converts it to the synchronizer's
// required sample rate, channel layout, and sample format before the
// (owned) result is buffered. timestamp is the wall-clock capture time of
// the first sample in data, measured against the caller's own sampleRate,
// not the converted one.
func (s *Synchronizer) ReadAudioSamples(sampleRate, channels, sampleCount int, data []byte, format avmedia.SampleFormat, timestamp int64) error {
	if s.closed.Load() {
		return ErrClosed
	}

	if format == avmedia.SampleFormatUnknown {
		format = s.cfg.SampleFormat
	}
	s.resampMu.Lock()
	// A ratio of 1.0 makes this purely a format/rate/channel conversion;
	// the worker applies the live drift ratio in its own Resample call
	// once the converted block reaches the front of the ring.
	s.resampler.SetTargetRatio(1.0)
	converted, err := s.resampler.Resample(sampleRate, channels, data, format)
	s.resampMu.Unlock()
	if err != nil {
		return fmt.Errorf("resampling audio block: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seg.phase == phaseClosed {
		return ErrClosed
	}

	s.seg.hasInput = true
	if !s.seg.audioStarted {
		s.seg.audioStarted = true
		s.seg.audioStartTime = timestamp
		s.seg.audioLastTimestamp = timestamp
		s.seg.audioCanDrop = true
		s.seg.maybeRunning()
	} else {
		// audioLastTimestamp holds the expected start of this block (the
		// previous block's end); any difference from the actual arrival
		// timestamp is instantaneous clock skew. dt is this block's own
		// duration, not the skew itself, so the integral term accumulates
		// skew-seconds rather than skew squared.
		measured := float64(timestamp-s.seg.audioLastTimestamp) / 1_000_000
		dt := float64(sampleCount) / float64(sampleRate)
		if desync, warn := s.est.Update(measured, dt); warn {
			s.log.Warn("audio desync excursion exceeded threshold", "desync_seconds", desync)
		}
	}

	s.seg.audioLastTimestamp = blockEndTimestamp(timestamp, sampleCount, sampleRate)
	s.seg.audioStopTime = s.seg.audioLastTimestamp

	s.audioRing.Append(timestamp, converted)
	if s.audioRing.OverCapacity() {
		over := s.audioRing.Samples() - s.audioRing.Cap()
		dropped := s.audioRing.Drop(over)
		s.log.Warn("audio ring overflow, dropping oldest buffered samples", "dropped", dropped)
	}

	s.wakeWorkerLocked()
	return nil
}

// ReadAudioHole signals a lost chunk of audio of unknown duration. It only
// logs the event: no silence is inserted and buffered audio is not
// realigned. Samples appended later are positioned directly after those
// still buffered; the ring's head timestamp is taken from a new block only
// when that block arrives while the ring is empty.
func (s *Synchronizer) ReadAudioHole() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Warn("audio hole reported by capture source")
}

func blockEndTimestamp(start int64, sampleCount, sampleRate int) int64 {
	if sampleRate <= 0 {
		return start
	}
	return start + int64(sampleCount)*1_000_000/int64(sampleRate)
}
