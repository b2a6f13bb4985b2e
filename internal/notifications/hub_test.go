package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_AttachDetach(t *testing.T) {
	hub := NewHub(nil)
	a, b := newFakeConn("a"), newFakeConn("b")

	require.NoError(t, hub.Attach(a))
	require.NoError(t, hub.Attach(b))
	hub.Registry().Identify(a, 10)
	assert.Equal(t, 2, hub.Len())

	uid, identified := hub.Detach(a)
	assert.True(t, identified)
	assert.Equal(t, uint(10), uid)
	_, ok := hub.Registry().Lookup(10)
	assert.False(t, ok)

	_, identified = hub.Detach(b)
	assert.False(t, identified)
	assert.Zero(t, hub.Len())
}

func TestHub_BroadcastSkipsOrigin(t *testing.T) {
	hub := NewHub(nil)
	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	c.full = true
	for _, conn := range []*fakeConn{a, b, c} {
		require.NoError(t, hub.Attach(conn))
	}

	delivered := hub.Broadcast([]byte(`{"type":"questionCreated"}`), "a")
	assert.Equal(t, 1, delivered)
	assert.Zero(t, a.count())
	assert.Equal(t, 1, b.count())
}

func TestHub_ShutdownClosesAndRefuses(t *testing.T) {
	hub := NewHub(nil)
	a := newFakeConn("a")
	require.NoError(t, hub.Attach(a))
	hub.Registry().Identify(a, 1)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.True(t, a.closed)
	assert.Zero(t, hub.Len())
	assert.Zero(t, hub.Registry().Len())
	assert.ErrorIs(t, hub.Attach(newFakeConn("late")), ErrHubClosed)
}
