package rpc

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/confstore/internal/store"
)

func newDispatcher(t *testing.T) (*Dispatcher, *store.Store) {
	t.Helper()
	s, err := store.Open(store.Options{
		Dir:      t.TempDir(),
		Defaults: map[string]any{"theme": "dark"},
	})
	require.NoError(t, err)
	return NewDispatcher(s, nil), s
}

func TestDispatch_MapsOneToOne(t *testing.T) {
	d, s := newDispatcher(t)

	_, err := d.Dispatch(ActionSet, "foo", "bar", true)
	require.NoError(t, err)
	assert.Equal(t, "bar", s.Get("foo"))

	got, err := d.Dispatch(ActionGet, "foo", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "bar", got)

	has, err := d.Dispatch(ActionHas, "foo", nil, false)
	require.NoError(t, err)
	assert.Equal(t, true, has)

	_, err = d.Dispatch(ActionDelete, "foo", nil, false)
	require.NoError(t, err)
	assert.False(t, s.Has("foo"))

	_, err = d.Dispatch(ActionSet, "theme", "light", true)
	require.NoError(t, err)
	_, err = d.Dispatch(ActionReset, "theme", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "dark", s.Get("theme"))

	_, err = d.Dispatch(ActionSet, "extra", 1, true)
	require.NoError(t, err)
	_, err = d.Dispatch(ActionClear, "", nil, false)
	require.NoError(t, err)
	assert.False(t, s.Has("extra"))
	assert.Equal(t, "dark", s.Get("theme"))
}

func TestDispatch_BulkSet(t *testing.T) {
	d, s := newDispatcher(t)

	_, err := d.Dispatch(ActionSet, "", map[string]any{"a": int64(1), "b": int64(2)}, true)
	require.NoError(t, err)

	assert.Equal(t, int64(1), s.Get("a"))
	assert.Equal(t, int64(2), s.Get("b"))
}

func TestDispatch_Failures(t *testing.T) {
	d, _ := newDispatcher(t)

	_, err := d.Dispatch(Action("explode"), "", nil, false)
	require.Error(t, err)

	_, err = d.Dispatch(ActionSet, "key", nil, false)
	require.Error(t, err, "set without a value is rejected")

	_, err = d.Dispatch(ActionSet, "", "not a mapping", true)
	require.Error(t, err)

	_, err = d.Dispatch(ActionSet, "__internal__.migrationVersion", 99, true)
	require.Error(t, err, "store guards surface through the dispatcher")
}

func TestClientServer_RoundTrip(t *testing.T) {
	d, s := newDispatcher(t)

	serverConn, clientConn := net.Pipe()
	serveDone := make(chan error, 1)
	go func() { serveDone <- Serve(serverConn, d) }()

	client := NewClient(clientConn)

	require.NoError(t, client.Set("window.width", int64(1024)))
	assert.Equal(t, int64(1024), s.Get("window.width"), "client writes land in the privileged store")

	got, err := client.Get("window.width")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), got)

	has, err := client.Has("window.width")
	require.NoError(t, err)
	assert.True(t, has)

	got, err = client.GetDefault("missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	require.NoError(t, client.SetAll(map[string]any{"a": int64(1), "b": int64(2)}))
	got, err = client.Get("b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	require.NoError(t, client.Delete("a"))
	has, err = client.Has("a")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, client.Clear())
	got, err = client.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", got, "clear restores remote defaults")

	// A remote rejection arrives as an error, not a dead stream.
	err = client.Set("__internal__", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESERVED_KEY")

	// The stream is still usable afterwards.
	require.NoError(t, client.Set("still.alive", true))

	require.NoError(t, clientConn.Close())
	require.NoError(t, serverConn.Close())
	<-serveDone
}

func TestClientServer_NestedDocumentCrossesWire(t *testing.T) {
	d, _ := newDispatcher(t)

	serverConn, clientConn := net.Pipe()
	go Serve(serverConn, d)
	defer serverConn.Close()
	defer clientConn.Close()

	client := NewClient(clientConn)

	doc := map[string]any{
		"nested": map[string]any{
			"list": []any{int64(1), "two", true},
		},
	}
	require.NoError(t, client.Set("tree", doc))

	got, err := client.Get("tree")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}
