package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedDeliversToAllSubscribers(t *testing.T) {
	var f Feed[int]
	a, subA := f.Subscribe(1)
	b, subB := f.Subscribe(1)
	defer subA.Cancel()
	defer subB.Cancel()

	require.Equal(t, 2, f.Publish(7))
	assert.Equal(t, 7, <-a)
	assert.Equal(t, 7, <-b)
}

func TestFeedCancelClosesChannel(t *testing.T) {
	var f Feed[string]
	ch, sub := f.Subscribe(1)

	sub.Cancel()
	sub.Cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 0, f.Publish("ignored"))
}

func TestFeedDropsWhenBufferFull(t *testing.T) {
	var f Feed[int]
	ch, sub := f.Subscribe(1)
	defer sub.Cancel()

	assert.Equal(t, 1, f.Publish(1))
	assert.Equal(t, 0, f.Publish(2))
	assert.Equal(t, uint64(1), f.Dropped())
	assert.Equal(t, 1, <-ch)
}

func TestFeedPublishWithoutSubscribers(t *testing.T) {
	var f Feed[int]
	assert.Equal(t, 0, f.Publish(1))
}
