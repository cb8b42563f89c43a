package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type events struct {
	mu  sync.Mutex
	got []Event
}

func (e *events) handle(ev Event) {
	e.mu.Lock()
	e.got = append(e.got, ev)
	e.mu.Unlock()
}

func (e *events) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.got)
}

func (e *events) Last() Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.got[len(e.got)-1]
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "none", Op(0).String())
	assert.Equal(t, "write", OpWrite.String())
	assert.Equal(t, "write|create", (OpWrite | OpCreate).String())
	assert.True(t, (OpWrite | OpRemove).Has(OpRemove))
	assert.False(t, OpWrite.Has(OpRename))
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.toml")
	other := filepath.Join(dir, "other.toml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	ev := &events{}
	w, err := New(ev.handle, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	require.NoError(t, w.Watch(path))
	require.NoError(t, w.Watch(path))
	assert.Len(t, w.Files(), 1)

	for i := range 3 {
		require.NoError(t, os.WriteFile(path, []byte{byte('b' + i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	require.Eventually(t, func() bool { return ev.Len() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, 1, ev.Len(), "burst reported once")
	last := ev.Last()
	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, last.Path)
	assert.True(t, last.Op.Has(OpWrite))
}

func TestWatcher_Unwatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1"), 0o644))

	ev := &events{}
	w, err := New(ev.handle, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Watch(path))
	require.NoError(t, w.Unwatch(path))
	require.NoError(t, w.Unwatch(path))
	assert.Empty(t, w.Files())

	require.NoError(t, os.WriteFile(path, []byte("a: 2"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, ev.Len())
}

func TestWatcher_Close(t *testing.T) {
	w, err := New(func(Event) {})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Watch("c.toml"), ErrClosed)
}
