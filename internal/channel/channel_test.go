package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffered_TrySendWhenFull(t *testing.T) {
	ch := NewBuffered[int](1)

	assert.True(t, ch.TrySend(1))
	assert.False(t, ch.TrySend(2))
	assert.Equal(t, 1, ch.Len())
	assert.Equal(t, 1, <-ch.Receive())
}

func TestUnbuffered_TrySendWithoutReceiver(t *testing.T) {
	ch := NewUnbuffered[string]()
	assert.False(t, ch.TrySend("x"))
	assert.Equal(t, 0, ch.Len())
}

func TestUnbuffered_SendToWaitingReceiver(t *testing.T) {
	ch := NewUnbuffered[string]()
	done := make(chan string)
	go func() { done <- <-ch.Receive() }()

	ch.Send("link")
	assert.Equal(t, "link", <-done)
}

func TestBuffered_CloseDrains(t *testing.T) {
	ch := NewBuffered[int](3)
	ch.Send(1)
	ch.Send(2)
	ch.Close()

	var got []int
	for v := range ch.Receive() {
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2}, got)
}
