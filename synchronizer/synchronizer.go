// Package synchronizer implements the A/V synchronizer core.
package synchronizer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/zsiec/avsync/avmedia"
	"github.com/zsiec/avsync/config"
	"github.com/zsiec/avsync/synchronizer/drift"
	"github.com/zsiec/avsync/synchronizer/ringbuffer"
)

// Synchronizer ingests free-running video frame and audio sample streams
// on producer goroutines and emits aligned, monotonic frames to a
// VideoEncoder and AudioEncoder from a single background worker goroutine
// started by Start. All exported methods are safe to call concurrently.
type Synchronizer struct {
	log *slog.Logger
	cfg config.Config

	videoEnc VideoEncoder
	audioEnc AudioEncoder

	scaler    Scaler
	scalerMu  sync.Mutex
	resampler Resampler
	resampMu  sync.Mutex

	mu         sync.Mutex
	seg        segmentState
	est        *drift.Estimator
	videoQueue *ringbuffer.VideoQueue
	audioRing  *ringbuffer.AudioRing

	lastVideoFrame *avmedia.PixelFrame
	partial        []byte

	videoPTS     int64
	audioSamples int64
	timeOffset   int64

	wake   chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	started atomic.Bool
	closed  atomic.Bool
	errored atomic.Bool

	errMu sync.Mutex
	err   error
}

// New constructs a Synchronizer. scaler and resampler may be nil, in which
// case a passthrough implementation is used; callers that never deliver a
// format conversion (e.g. because capture already matches the encoder's
// configured format) can rely on this default rather than writing their
// own no-op collaborator.
func New(cfg config.Config, videoEnc VideoEncoder, audioEnc AudioEncoder, scaler Scaler, resampler Resampler, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	if scaler == nil {
		scaler = passthroughScaler{}
	}
	if resampler == nil {
		resampler = &passthroughResampler{}
	}
	if audioEnc != nil {
		if n := audioEnc.RequiredFrameSize(); n > 0 {
			cfg.RequiredFrameSize = n
		}
		if n := audioEnc.RequiredSampleSize(); n > 0 {
			cfg.RequiredSampleSize = n
		}
	}

	s := &Synchronizer{
		log:        log.With("component", "synchronizer"),
		cfg:        cfg,
		videoEnc:   videoEnc,
		audioEnc:   audioEnc,
		scaler:     scaler,
		resampler:  resampler,
		est:        drift.New(cfg.DesyncCorrectionP, cfg.DesyncCorrectionI, cfg.DesyncErrorThreshold),
		videoQueue: ringbuffer.NewVideoQueue(cfg.MaxVideoFramesBuffered),
		audioRing:  ringbuffer.NewAudioRing(cfg.MaxAudioSamplesBuffered),
		wake:       make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	s.audioRing.Configure(cfg.SampleRate, cfg.Channels, cfg.SampleFormat)
	s.seg = newSegmentState(videoEnc != nil, audioEnc != nil)
	return s
}

// Start launches the background emit worker. It returns immediately; the
// worker runs until ctx is cancelled or Close is called.
func (s *Synchronizer) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	go s.run(ctx)
	return nil
}

// Close stops the background worker and releases resources. It is safe to
// call more than once and safe to call without a prior Start.
func (s *Synchronizer) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.stopCh)
	if s.started.Load() {
		<-s.doneCh
	}
}

// GetTotalTime returns the elapsed wall-clock microseconds of emitted
// output across all segments, including the accumulated time_offset from
// prior segments.
func (s *Synchronizer) GetTotalTime() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeOffsetLocked() + s.currentSegmentElapsedLocked()
}

func (s *Synchronizer) timeOffsetLocked() int64 { return s.timeOffset }

func (s *Synchronizer) currentSegmentElapsedLocked() int64 {
	if s.seg.phase != phaseRunning && s.seg.phase != phaseDraining {
		return 0
	}
	stop := s.seg.videoStopTime
	if s.seg.audioStopTime > stop {
		stop = s.seg.audioStopTime
	}
	elapsed := stop - s.seg.videoStartTime
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// HasErrorOccurred reports whether the worker has recorded a fatal error.
func (s *Synchronizer) HasErrorOccurred() bool { return s.errored.Load() }

// Err returns the fatal error recorded by the worker, if any.
func (s *Synchronizer) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Synchronizer) fail(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
	s.errored.Store(true)
	s.log.Error("synchronizer failed", "error", err)
}

// NewSegment ends the current segment. A segment that has received no
// input is re-armed in place. A running segment moves to draining and the
// emit worker is woken; NewSegment does not block while the worker drains
// the buffered data, closes the segment and starts the next one. Frames
// and samples ingested before the worker has closed the segment are
// buffered into the outgoing segment, not the next one. A segment that
// has input but is still waiting for its other stream is left unchanged.
// Keeping all encoder calls on the single worker goroutine means PTS
// order is never at risk from two goroutines racing to emit.
func (s *Synchronizer) NewSegment() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seg.phase == phaseClosed {
		return
	}
	if s.seg.empty() {
		// Nothing was ever ingested into this segment; re-arm it in place
		// rather than pushing an empty segment through draining.
		s.seg = newSegmentState(s.seg.videoEnabled, s.seg.audioEnabled)
		return
	}
	if s.seg.phase == phaseRunning {
		s.seg.phase = phaseDraining
	}
	s.wakeWorkerLocked()
}

func (s *Synchronizer) wakeWorkerLocked() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Synchronizer) framePeriodMicros() int64 {
	if s.cfg.FrameRate <= 0 {
		return 0
	}
	return int64(1_000_000 / s.cfg.FrameRate)
}
