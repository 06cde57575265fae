// Package synchronizer implements the A/V synchronizer: it ingests two
// independent, free-running media streams (raw video frames and raw
// audio sample blocks, each with wall-clock capture timestamps) and
// produces two aligned, encoder-ready streams with monotonic presentation
// timestamps, correcting for drift between the two capture clocks.
//
// The central type is [Synchronizer]. Producers call [Synchronizer.ReadVideoFrame],
// [Synchronizer.ReadVideoPing], [Synchronizer.ReadAudioSamples], and
// [Synchronizer.ReadAudioHole] from their own goroutines; a single emit
// worker goroutine, started by [Synchronizer.Start], drains the buffered
// frames to the configured [VideoEncoder] and [AudioEncoder]. A control
// goroutine may call [Synchronizer.NewSegment], [Synchronizer.GetTotalTime],
// and [Synchronizer.HasErrorOccurred] at any time.
//
// Capture sources, the encoders, the container muxer, the pixel-format
// scaler, and the audio resampler are all external collaborators,
// consumed only through the [Scaler], [Resampler], [VideoEncoder], and
// [AudioEncoder] interfaces; this package ships only passthrough test
// doubles for the scaler and resampler.
package synchronizer
