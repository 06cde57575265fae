package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/avsync/avmedia"
)

func TestVideoQueueFIFOOrder(t *testing.T) {
	t.Parallel()
	q := NewVideoQueue(4)
	for i := int64(0); i < 3; i++ {
		q.Push(VideoEntry{Timestamp: i})
	}
	require.Equal(t, 3, q.Len())

	for i := int64(0); i < 3; i++ {
		e, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, e.Timestamp)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestVideoQueueOverCapacityDropsOldest(t *testing.T) {
	t.Parallel()
	q := NewVideoQueue(2)
	q.Push(VideoEntry{Timestamp: 1})
	q.Push(VideoEntry{Timestamp: 2})
	q.Push(VideoEntry{Timestamp: 3})

	require.True(t, q.OverCapacity())
	dropped, ok := q.DropOldest()
	require.True(t, ok)
	assert.Equal(t, int64(1), dropped.Timestamp)
	assert.False(t, q.OverCapacity())

	e, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, int64(2), e.Timestamp)
}

func TestVideoQueueClear(t *testing.T) {
	t.Parallel()
	q := NewVideoQueue(4)
	q.Push(VideoEntry{Timestamp: 1, Frame: avmedia.PixelFrame{Data: []byte{1, 2, 3}}})
	q.Clear()
	assert.Equal(t, 0, q.Len())
	_, ok := q.Peek()
	assert.False(t, ok)
}
