package bus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeEvent struct{ n int }

func TestPublishPreservesOrder(t *testing.T) {
	b := New(16, nil)
	for i := 0; i < 10; i++ {
		b.Publish(fakeEvent{n: i})
	}
	for i := 0; i < 10; i++ {
		ev := <-b.Events()
		require.Equal(t, fakeEvent{n: i}, ev)
	}
}

func TestTryPublishDropsWhenFull(t *testing.T) {
	b := New(2, nil)
	require.True(t, b.TryPublish(fakeEvent{n: 1}))
	require.True(t, b.TryPublish(fakeEvent{n: 2}))
	require.False(t, b.TryPublish(fakeEvent{n: 3}))

	// The first two events are still intact.
	require.Equal(t, fakeEvent{n: 1}, <-b.Events())
	require.Equal(t, fakeEvent{n: 2}, <-b.Events())
}

func TestDrainIsBounded(t *testing.T) {
	b := New(16, nil)
	for i := 0; i < 8; i++ {
		b.Publish(fakeEvent{n: i})
	}

	first := b.Drain(5)
	require.Len(t, first, 5)
	rest := b.Drain(16)
	require.Len(t, rest, 3)
	require.Equal(t, fakeEvent{n: 5}, rest[0])

	// Empty bus drains to nothing without blocking.
	require.Empty(t, b.Drain(4))
}
