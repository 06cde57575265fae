package synchronizer

// segmentPhase tracks where the current segment is in its lifecycle, per
// the Idle -> WaitingForBothStreams -> Running -> Draining -> Closed state
// machine.
type segmentPhase int

const (
	phaseIdle segmentPhase = iota
	phaseWaiting
	phaseRunning
	phaseDraining
	phaseClosed
)

func (p segmentPhase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseWaiting:
		return "waiting"
	case phaseRunning:
		return "running"
	case phaseDraining:
		return "draining"
	case phaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// segmentState holds the per-segment bookkeeping described by the data
// model: which streams are enabled for this segment, whether each has
// produced its first sample yet, the common start/stop window, and the
// per-stream gap/drop accounting that resets at every segment boundary.
type segmentState struct {
	phase segmentPhase

	videoEnabled bool
	audioEnabled bool

	videoStarted bool
	audioStarted bool

	videoStartTime int64
	audioStartTime int64
	videoStopTime  int64
	audioStopTime  int64

	videoLastTimestamp int64
	audioLastTimestamp int64

	// audioCanDrop is true once audio has delivered at least one sample,
	// permitting the ring to drop leading audio that precedes video start.
	audioCanDrop bool

	audioSamplesRead int64

	videoAccumulatedDelay int64
	videoDropWarned       bool

	// hasInput distinguishes "no stream has ingested anything yet" from
	// "ingestion started but the stream hasn't reached its own first
	// frame", so NewSegment can be called repeatedly before any data
	// arrives without leaving phaseWaiting early.
	hasInput bool
}

// newSegmentState returns a fresh segment in phaseIdle if neither stream is
// enabled, or phaseWaiting otherwise. A stream is enabled when the
// Synchronizer was constructed with an encoder for it; the enabled flags
// carry over unchanged from one segment to the next.
func newSegmentState(videoEnabled, audioEnabled bool) segmentState {
	s := segmentState{videoEnabled: videoEnabled, audioEnabled: audioEnabled}
	if videoEnabled || audioEnabled {
		s.phase = phaseWaiting
	} else {
		s.phase = phaseIdle
	}
	return s
}

// bothStarted reports whether every enabled stream has delivered its first
// sample of this segment.
func (s *segmentState) bothStarted() bool {
	if s.videoEnabled && !s.videoStarted {
		return false
	}
	if s.audioEnabled && !s.audioStarted {
		return false
	}
	return s.videoEnabled || s.audioEnabled
}

// maybeRunning transitions Waiting -> Running once every enabled stream has
// started, recording the common segment start time as the later of the two
// streams' first timestamps.
func (s *segmentState) maybeRunning() {
	if s.phase != phaseWaiting || !s.bothStarted() {
		return
	}
	start := s.videoStartTime
	if s.audioEnabled && (!s.videoEnabled || s.audioStartTime > start) {
		start = s.audioStartTime
	}
	s.videoStartTime = start
	s.audioStartTime = start
	s.phase = phaseRunning
}

// empty reports whether this segment ever received any input at all, used
// to decide whether NewSegment needs to drain anything before the next
// segment can begin.
func (s *segmentState) empty() bool { return !s.hasInput }
