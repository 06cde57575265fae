package synchronizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/zsiec/avsync/avmedia"
	"github.com/zsiec/avsync/synchronizer/drift"
	"github.com/zsiec/avsync/synchronizer/ringbuffer"
)

// TestVideoQueueNeverExceedsCapacityAfterDrop checks that pushing entries
// one at a time and dropping the oldest whenever a push puts the queue over
// capacity never leaves it holding more entries than its configured
// capacity.
func TestVideoQueueNeverExceedsCapacityAfterDrop(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(t, "capacity")
		pushes := rapid.IntRange(0, 50).Draw(t, "pushes")

		q := ringbuffer.NewVideoQueue(capacity)
		for i := 0; i < pushes; i++ {
			q.Push(ringbuffer.VideoEntry{Timestamp: int64(i)})
			if q.OverCapacity() {
				q.DropOldest()
			}
		}
		assert.LessOrEqual(t, q.Len(), capacity)
	})
}

// TestVideoQueuePreservesFIFOOrder checks that entries pushed in
// non-decreasing timestamp order, as the ingest front end pushes them, pop
// out in exactly the order they were pushed.
func TestVideoQueuePreservesFIFOOrder(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		q := ringbuffer.NewVideoQueue(n + 1)

		var pushed []int64
		ts := int64(0)
		for i := 0; i < n; i++ {
			ts += rapid.Int64Range(0, 1000).Draw(t, "delta")
			q.Push(ringbuffer.VideoEntry{Timestamp: ts})
			pushed = append(pushed, ts)
		}

		var popped []int64
		for {
			e, ok := q.Pop()
			if !ok {
				break
			}
			popped = append(popped, e.Timestamp)
		}
		assert.Equal(t, pushed, popped)
	})
}

// TestAudioRingSamplesNeverNegativeAndDropBoundedByAvailable checks that
// Drop never removes more samples than were actually buffered and that the
// ring's sample count stays consistent with what was appended minus what
// was consumed, across arbitrary append/consume/drop sequences.
func TestAudioRingSamplesNeverNegativeAndDropBoundedByAvailable(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		r := ringbuffer.NewAudioRing(100000)
		r.Configure(48000, 1, avmedia.SampleFormatS16LE)

		var total int
		steps := rapid.IntRange(0, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				n := rapid.IntRange(0, 500).Draw(t, "append_n")
				r.Append(0, avmedia.Silence(avmedia.SampleFormatS16LE, 1, n))
				total += n
			case 1:
				n := rapid.IntRange(0, 500).Draw(t, "consume_n")
				got := r.Consume(n)
				consumed := len(got) / 2
				assert.LessOrEqual(t, consumed, total)
				total -= consumed
			case 2:
				n := rapid.IntRange(0, 500).Draw(t, "drop_n")
				dropped := r.Drop(n)
				assert.LessOrEqual(t, dropped, total)
				total -= dropped
			}
			assert.Equal(t, total, r.Samples())
			assert.GreaterOrEqual(t, r.Samples(), 0)
		}
	})
}

// TestDriftEstimatorStaysWithinThreshold checks the PI estimator's central
// invariant: whatever sequence of measurements it is fed, the returned
// desync estimate never exceeds the configured threshold in magnitude.
func TestDriftEstimatorStaysWithinThreshold(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		threshold := rapid.Float64Range(0.1, 30).Draw(t, "threshold")
		e := drift.New(0.3, 0.05, threshold)

		steps := rapid.IntRange(0, 100).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			measured := rapid.Float64Range(-100, 100).Draw(t, "measured")
			dt := rapid.Float64Range(0, 2).Draw(t, "dt")
			desync, _ := e.Update(measured, dt)
			assert.LessOrEqual(t, desync, threshold)
			assert.GreaterOrEqual(t, desync, -threshold)
		}
	})
}
