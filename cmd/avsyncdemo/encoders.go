package main

import (
	"log/slog"
	"sync/atomic"

	"github.com/zsiec/avsync/avmedia"
)

// loggingVideoEncoder logs a line every 100 frames instead of encoding
// anything, standing in for a real video encoder in the demo.
type loggingVideoEncoder struct {
	log *slog.Logger
	n   atomic.Int64
}

func (e *loggingVideoEncoder) EncodeFrame(f avmedia.VideoFrame) error {
	n := e.n.Add(1)
	if n%100 == 0 {
		e.log.Debug("encoded video frame", "pts", f.PTS, "count", n)
	}
	return nil
}

func (e *loggingVideoEncoder) count() int64 { return e.n.Load() }

// loggingAudioEncoder logs a line every 100 blocks instead of encoding
// anything, standing in for a real audio encoder in the demo.
type loggingAudioEncoder struct {
	log        *slog.Logger
	frameSize  int
	sampleSize int
	n          atomic.Int64
}

func (e *loggingAudioEncoder) EncodeFrame(b avmedia.AudioBlock) error {
	n := e.n.Add(1)
	if n%100 == 0 {
		e.log.Debug("encoded audio block", "timestamp", b.Timestamp, "samples", b.SampleCount(), "count", n)
	}
	return nil
}

func (e *loggingAudioEncoder) RequiredFrameSize() int  { return e.frameSize }
func (e *loggingAudioEncoder) RequiredSampleSize() int { return e.sampleSize }

func (e *loggingAudioEncoder) count() int64 { return e.n.Load() }
