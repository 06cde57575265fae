// Command avsyncdemo drives a Synchronizer with synthetic video and audio
// producers and logging encoders, to exercise the core package end to end
// without real capture hardware or a real media encoder.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/avsync/avmedia"
	"github.com/zsiec/avsync/config"
	"github.com/zsiec/avsync/synchronizer"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	cfg := config.FromEnv(config.Default())
	segmentInterval := durationEnv("AVSYNC_SEGMENT_INTERVAL", 0)

	log.Info("avsyncdemo starting",
		"version", version,
		"frame_rate", cfg.FrameRate,
		"sample_rate", cfg.SampleRate,
		"segment_interval", segmentInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	videoEnc := &loggingVideoEncoder{log: log.With("component", "video-encoder")}
	audioEnc := &loggingAudioEncoder{log: log.With("component", "audio-encoder"), frameSize: cfg.RequiredFrameSize, sampleSize: cfg.RequiredSampleSize}

	eng := synchronizer.New(cfg, videoEnc, audioEnc, nil, nil, log)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := eng.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		eng.Close()
		return eng.Err()
	})

	g.Go(func() error { return runVideoProducer(ctx, eng, cfg) })
	g.Go(func() error { return runAudioProducer(ctx, eng, cfg) })

	if segmentInterval > 0 {
		g.Go(func() error { return runSegmentController(ctx, eng, segmentInterval, log) })
	}

	if err := g.Wait(); err != nil {
		log.Error("avsyncdemo exited with error", "error", err)
		os.Exit(1)
	}

	log.Info("avsyncdemo stopped", "total_time_micros", eng.GetTotalTime(),
		"video_frames", videoEnc.count(), "audio_blocks", audioEnc.count())
}

// runVideoProducer synthesizes a solid-color I420 frame at the configured
// frame rate, stamping each frame with the wall-clock time elapsed since
// the producer started, so its reported timestamps track real elapsed time
// the way a capture card's clock would.
func runVideoProducer(ctx context.Context, eng *synchronizer.Synchronizer, cfg config.Config) error {
	period := time.Duration(float64(time.Second) / cfg.FrameRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	const width, height = 640, 360
	frame := make([]byte, width*height*3/2)

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			ts := now.Sub(start).Microseconds()
			if err := eng.ReadVideoFrame(width, height, frame, width, avmedia.PixelFormatI420, ts); err != nil {
				if err == synchronizer.ErrClosed {
					return nil
				}
				return err
			}
		}
	}
}

// runAudioProducer synthesizes silent PCM audio in 20ms blocks at the
// configured sample rate.
func runAudioProducer(ctx context.Context, eng *synchronizer.Synchronizer, cfg config.Config) error {
	const blockDuration = 20 * time.Millisecond
	samplesPerBlock := int(float64(cfg.SampleRate) * blockDuration.Seconds())
	ticker := time.NewTicker(blockDuration)
	defer ticker.Stop()

	block := avmedia.Silence(cfg.SampleFormat, cfg.Channels, samplesPerBlock)
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			ts := now.Sub(start).Microseconds()
			if err := eng.ReadAudioSamples(cfg.SampleRate, cfg.Channels, samplesPerBlock, block, cfg.SampleFormat, ts); err != nil {
				if err == synchronizer.ErrClosed {
					return nil
				}
				return err
			}
		}
	}
}

// runSegmentController calls NewSegment on a fixed interval, demonstrating
// pause/resume across a live session (e.g. an ad break or a scene cut).
func runSegmentController(ctx context.Context, eng *synchronizer.Synchronizer, interval time.Duration, log *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			log.Info("starting new segment", "total_time_micros", eng.GetTotalTime())
			eng.NewSegment()
		}
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
