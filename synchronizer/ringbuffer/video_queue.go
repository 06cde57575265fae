// Package ringbuffer implements the two buffers the synchronizer queues
// ingested media in before the emit worker drains them: a FIFO of owned
// video frames, and a byte-oriented FIFO of interleaved PCM audio samples
// anchored to a single head timestamp.
package ringbuffer

import "github.com/zsiec/avsync/avmedia"

// VideoEntry is a single buffered video frame awaiting emission: an owned
// pixel buffer anchored to its wall-clock capture timestamp.
type VideoEntry struct {
	Timestamp int64
	Frame     avmedia.PixelFrame
}

// VideoQueue is a FIFO of buffered video frames, bounded by a maximum
// frame count. It does not enforce the cap itself — OverCapacity reports
// when the caller should drop the oldest entry. The ingest front end
// drops one oldest entry per over-capacity push and logs a warning on
// every such drop, not only the first.
type VideoQueue struct {
	entries []VideoEntry
	cap     int
}

// NewVideoQueue returns an empty queue with the given capacity.
func NewVideoQueue(capacity int) *VideoQueue {
	return &VideoQueue{cap: capacity}
}

// Push enqueues a frame at the tail.
func (q *VideoQueue) Push(e VideoEntry) {
	q.entries = append(q.entries, e)
}

// Len returns the number of buffered frames.
func (q *VideoQueue) Len() int { return len(q.entries) }

// Cap returns the configured capacity.
func (q *VideoQueue) Cap() int { return q.cap }

// OverCapacity reports whether the queue currently holds more frames than
// its configured capacity.
func (q *VideoQueue) OverCapacity() bool { return len(q.entries) > q.cap }

// Peek returns the head frame without removing it.
func (q *VideoQueue) Peek() (VideoEntry, bool) {
	if len(q.entries) == 0 {
		return VideoEntry{}, false
	}
	return q.entries[0], true
}

// DropOldest removes and returns the head frame.
func (q *VideoQueue) DropOldest() (VideoEntry, bool) {
	if len(q.entries) == 0 {
		return VideoEntry{}, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e, true
}

// Pop removes and returns the head frame; an alias of DropOldest used at
// normal (non-overflow) dequeue sites for readability.
func (q *VideoQueue) Pop() (VideoEntry, bool) { return q.DropOldest() }

// Clear discards all buffered frames, used on segment boundaries.
func (q *VideoQueue) Clear() { q.entries = nil }
