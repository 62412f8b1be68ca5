package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBus_FansOutToAllSubscribers(t *testing.T) {
	b := NewBus()
	a, cancelA := b.Subscribe(4)
	c, cancelC := b.Subscribe(4)
	defer cancelA()
	defer cancelC()

	b.Publish(OperationQueued)
	b.Publish(QueueDrained)

	require.Equal(t, OperationQueued, <-a)
	require.Equal(t, QueueDrained, <-a)
	require.Equal(t, OperationQueued, <-c)
	require.Equal(t, QueueDrained, <-c)
}

func TestBus_PublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish(OperationQueued)
	b.Publish(OperationFailed)

	require.Equal(t, OperationQueued, <-ch)
	select {
	case s := <-ch:
		t.Fatalf("unexpected extra signal %s", s)
	default:
	}
}

func TestBus_CancelClosesAndUnsubscribes(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(0)
	require.Equal(t, 1, b.Subscribers())

	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, 0, b.Subscribers())

	b.Publish(OperationCompleted)
}

func TestBus_NilPublishIsNoop(t *testing.T) {
	var b *Bus
	b.Publish(QueueDrained)
}
