package synchronizer

import (
	"context"
	"time"

	"github.com/zsiec/avsync/avmedia"
)

// run is the single background goroutine that drains buffered video and
// audio into the configured encoders. It is the only goroutine that ever
// calls EncodeFrame, so encoder calls for a given stream are always
// strictly ordered by this loop even across a segment boundary.
func (s *Synchronizer) run(ctx context.Context) {
	defer close(s.doneCh)

	idle := time.NewTimer(s.cfg.WorkerIdleInterval)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-s.wake:
		case <-idle.C:
		}

		for s.flushStep() {
			if s.errored.Load() {
				return
			}
		}

		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(s.cfg.WorkerIdleInterval)
	}
}

// flushStep drains whatever video and audio are currently ready to emit,
// calling into the encoders without holding the synchronizer's lock, and
// reports whether it made any progress.
func (s *Synchronizer) flushStep() bool {
	s.mu.Lock()
	if s.seg.phase != phaseRunning && s.seg.phase != phaseDraining {
		s.mu.Unlock()
		return false
	}

	s.dropLeadingAudioLocked()

	draining := s.seg.phase == phaseDraining
	segStop := s.commonStopLocked()

	videoFrames := s.flushVideoLocked(segStop, draining)
	audioRaw, audioN := s.drainAudioLocked(segStop)
	s.mu.Unlock()

	progress := len(videoFrames) > 0 || audioN > 0

	for _, f := range videoFrames {
		if err := s.videoEnc.EncodeFrame(f); err != nil {
			s.fail(err)
			return false
		}
	}

	if audioN > 0 {
		s.resampMu.Lock()
		s.resampler.SetTargetRatio(s.est.Ratio())
		resampled, err := s.resampler.Resample(s.cfg.SampleRate, s.cfg.Channels, audioRaw, s.cfg.SampleFormat)
		s.resampMu.Unlock()
		if err != nil {
			s.fail(err)
			return false
		}
		if err := s.emitAudioBlocks(resampled); err != nil {
			s.fail(err)
			return false
		}
	}

	if s.maybeCloseSegment() {
		progress = true
	}

	return progress
}

// commonStopLocked returns the latest wall-clock time up to which both
// enabled streams are known to have data, i.e. the point the worker may
// safely emit through without getting ahead of a stream that simply
// hasn't delivered yet. Must be called with mu held.
func (s *Synchronizer) commonStopLocked() int64 {
	stop := s.seg.videoStopTime
	if s.seg.audioEnabled {
		if !s.seg.videoEnabled || s.seg.audioStopTime < stop {
			stop = s.seg.audioStopTime
		}
	}
	if s.seg.phase == phaseDraining {
		// Once draining, there is no more input coming on either stream:
		// drain all the way to whichever stream ran further.
		stop = s.seg.videoStopTime
		if s.seg.audioStopTime > stop {
			stop = s.seg.audioStopTime
		}
	}
	return stop
}

// flushVideoLocked pops every buffered video frame at or before segStop,
// assigning each the next output PTS, and updates lastVideoFrame to the
// most recently emitted frame's pixel data. When draining, it additionally
// synthesizes trailing duplicate frames (bounded by MaxFrameDelay) to
// carry video through to segStop even if the last real frame arrived
// earlier. Must be called with mu held; the returned frames are encoded by
// the caller without the lock held.
func (s *Synchronizer) flushVideoLocked(segStop int64, draining bool) []avmedia.VideoFrame {
	if !s.seg.videoEnabled {
		return nil
	}
	var out []avmedia.VideoFrame

	for {
		entry, ok := s.videoQueue.Peek()
		if !ok || entry.Timestamp > segStop {
			break
		}
		s.videoQueue.Pop()
		frame := entry.Frame
		out = append(out, avmedia.VideoFrame{PTS: s.videoPTS, PixelFrame: frame})
		s.videoPTS++
		clone := frame.Clone()
		s.lastVideoFrame = &clone
	}

	if !draining || s.lastVideoFrame == nil {
		return out
	}

	period := s.framePeriodMicros()
	if period <= 0 {
		return out
	}

	lastTS := s.seg.videoLastTimestamp
	dupBudget := s.cfg.MaxFrameDelay
	for lastTS+period <= segStop && dupBudget > 0 {
		lastTS += period
		out = append(out, avmedia.VideoFrame{PTS: s.videoPTS, PixelFrame: s.lastVideoFrame.Clone()})
		s.videoPTS++
		dupBudget--
	}
	s.seg.videoLastTimestamp = lastTS

	return out
}

// dropLeadingAudioLocked runs once per segment, on the first flush after
// audio has delivered a sample: it discards any buffered audio captured
// before the common segment start time (the later of the two streams'
// first timestamps), so the first sample this segment ever emits aligns
// with max(video_start_time, audio_start_time) instead of carrying in
// audio that precedes the other stream's start. Must be called with mu
// held.
func (s *Synchronizer) dropLeadingAudioLocked() {
	if !s.seg.audioCanDrop {
		return
	}
	s.seg.audioCanDrop = false
	if !s.seg.audioEnabled {
		return
	}

	alignTo := s.seg.videoStartTime
	if s.seg.audioStartTime > alignTo {
		alignTo = s.seg.audioStartTime
	}
	n := s.leadingAudioSamplesBeforeLocked(alignTo)
	if n <= 0 {
		return
	}
	dropped := s.audioRing.Drop(n)
	s.seg.audioSamplesRead += int64(dropped)
	s.log.Debug("dropped leading audio to align segment start", "dropped", dropped)
}

// leadingAudioSamplesBeforeLocked returns how many buffered audio samples
// have a timestamp strictly before ts. Must be called with mu held.
func (s *Synchronizer) leadingAudioSamplesBeforeLocked(ts int64) int {
	avail := s.audioRing.Samples()
	if avail == 0 || s.audioRing.TimestampAt(0) >= ts {
		return 0
	}
	if s.audioRing.TimestampAt(avail-1) < ts {
		return avail
	}
	lo, hi := 0, avail
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.audioRing.TimestampAt(mid-1) < ts {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// drainAudioLocked consumes buffered audio samples up to segStop,
// returning the raw (pre-resample) bytes to hand to the resampler once
// mu is released. Must be called with mu held.
func (s *Synchronizer) drainAudioLocked(segStop int64) (raw []byte, n int) {
	if !s.seg.audioEnabled {
		return nil, 0
	}
	n = s.samplesWithinWindowLocked(segStop)
	if n <= 0 {
		return nil, 0
	}
	raw = s.audioRing.Consume(n)
	return raw, n
}

// samplesWithinWindowLocked returns how many buffered audio samples have a
// timestamp at or before segStop. Must be called with mu held.
func (s *Synchronizer) samplesWithinWindowLocked(segStop int64) int {
	avail := s.audioRing.Samples()
	if avail == 0 {
		return 0
	}
	if s.audioRing.TimestampAt(avail-1) <= segStop {
		return avail
	}
	lo, hi := 0, avail
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.audioRing.TimestampAt(mid-1) <= segStop {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// emitAudioBlocks appends resampled bytes to the worker-private partial
// buffer and emits every complete encoder-sized block it can assemble.
// Only the worker goroutine ever touches s.partial, so no lock is needed
// here; the running sample counter is updated under mu.
func (s *Synchronizer) emitAudioBlocks(data []byte) error {
	s.partial = append(s.partial, data...)

	bytesPerSample := avmedia.SampleFormatBytes(s.cfg.SampleFormat) * s.cfg.Channels
	if bytesPerSample == 0 {
		return nil
	}
	frameBytes := s.cfg.RequiredFrameSize * bytesPerSample

	for frameBytes > 0 && len(s.partial) >= frameBytes {
		block := make([]byte, frameBytes)
		copy(block, s.partial[:frameBytes])
		s.partial = append([]byte(nil), s.partial[frameBytes:]...)

		s.mu.Lock()
		ts := s.audioSamples
		s.audioSamples += int64(s.cfg.RequiredFrameSize)
		s.mu.Unlock()

		if err := s.audioEnc.EncodeFrame(avmedia.AudioBlock{
			Timestamp:  ts,
			SampleRate: s.cfg.SampleRate,
			Channels:   s.cfg.Channels,
			Format:     s.cfg.SampleFormat,
			Data:       block,
		}); err != nil {
			return err
		}
	}
	return nil
}

// flushFinalAudio pads or truncates the worker-private partial buffer to
// exactly one required frame so the audio stream ends in lockstep with
// video at a segment boundary, instead of dropping a trailing fragment
// shorter than the encoder's required frame size.
func (s *Synchronizer) flushFinalAudio() error {
	bytesPerSample := avmedia.SampleFormatBytes(s.cfg.SampleFormat) * s.cfg.Channels
	if bytesPerSample == 0 || len(s.partial) == 0 {
		s.partial = nil
		return nil
	}
	frameBytes := s.cfg.RequiredFrameSize * bytesPerSample
	if frameBytes <= 0 {
		s.partial = nil
		return nil
	}

	block := make([]byte, frameBytes)
	if len(s.partial) >= frameBytes {
		copy(block, s.partial[:frameBytes])
	} else {
		copy(block, s.partial)
		pad := avmedia.Silence(s.cfg.SampleFormat, s.cfg.Channels, s.cfg.RequiredFrameSize-len(s.partial)/bytesPerSample)
		copy(block[len(s.partial):], pad)
	}
	s.partial = nil

	s.mu.Lock()
	ts := s.audioSamples
	s.audioSamples += int64(s.cfg.RequiredFrameSize)
	s.mu.Unlock()

	return s.audioEnc.EncodeFrame(avmedia.AudioBlock{
		Timestamp:  ts,
		SampleRate: s.cfg.SampleRate,
		Channels:   s.cfg.Channels,
		Format:     s.cfg.SampleFormat,
		Data:       block,
	})
}

// maybeCloseSegment finalizes a draining segment once both streams'
// buffers have been fully emitted through the common stop time: it pads
// out any trailing partial audio, folds the segment's elapsed time into
// the cumulative time offset, resets per-segment state and the drift
// estimator, and starts a fresh segment in the waiting phase.
func (s *Synchronizer) maybeCloseSegment() bool {
	s.mu.Lock()
	if s.seg.phase != phaseDraining {
		s.mu.Unlock()
		return false
	}
	if !s.drainedLocked() {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	if err := s.flushFinalAudio(); err != nil {
		s.fail(err)
		return true
	}

	s.mu.Lock()
	elapsed := s.currentSegmentElapsedLocked()
	s.timeOffset += elapsed
	videoEnabled, audioEnabled := s.seg.videoEnabled, s.seg.audioEnabled
	s.seg = newSegmentState(videoEnabled, audioEnabled)
	s.est.Reset()
	s.mu.Unlock()

	s.log.Info("segment closed", "elapsed_micros", elapsed)
	return true
}

// drainedLocked reports whether every buffered frame up to the segment's
// final stop time has been emitted. Must be called with mu held.
func (s *Synchronizer) drainedLocked() bool {
	if s.seg.videoEnabled {
		if _, ok := s.videoQueue.Peek(); ok {
			return false
		}
	}
	if s.seg.audioEnabled && s.audioRing.Samples() > 0 {
		return false
	}
	return true
}
