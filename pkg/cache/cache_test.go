package cache

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-vir-cfg/pkg/cfg"
	"github.com/l3aro/go-vir-cfg/pkg/vir"
)

func testMethod(t *testing.T, name string) *cfg.Method {
	t.Helper()
	m := cfg.NewMethod(name, 0, []vir.LocalVar{vir.NewLocalVar("r", vir.TypeInt)}, nil, nil)
	entry, err := m.AddBlock("entry", []vir.Stmt{vir.Comment{Text: name}})
	require.NoError(t, err)
	exit, err := m.AddBlock("exit", nil)
	require.NoError(t, err)
	m.SetSuccessor(entry, cfg.Goto{Target: exit})
	m.SetSuccessor(exit, cfg.Return{})
	return m
}

func TestMethodCache_PutGet(t *testing.T) {
	c := New(Options{MaxEntries: 4})
	m := testMethod(t, "f")
	require.NoError(t, c.Put(m))

	got, err := c.Get("f")
	require.NoError(t, err)

	assert.NotEqual(t, m.Identity(), got.Identity())
	assert.Equal(t, m.BlockLabels(), got.BlockLabels())
	assert.Equal(t, m.AllPredecessors(), got.AllPredecessors())

	entry, _ := m.Lookup("entry")
	assert.Panics(t, func() { got.Successor(entry) }, "indices of the stored graph must not apply")

	// Every Get yields a distinct graph.
	again, err := c.Get("f")
	require.NoError(t, err)
	assert.NotEqual(t, got.Identity(), again.Identity())
}

func TestMethodCache_Miss(t *testing.T) {
	c := New(Options{})

	_, err := c.Get("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, Stats{Misses: 1}, c.Stats())
	assert.Equal(t, float64(0), c.HitRate())
}

func TestMethodCache_Replace(t *testing.T) {
	c := New(Options{MaxEntries: 4})
	require.NoError(t, c.Put(testMethod(t, "f")))

	bigger := testMethod(t, "f")
	_, err := bigger.AddBlock("extra", nil)
	require.NoError(t, err)
	require.NoError(t, c.Put(bigger))

	assert.Equal(t, 1, c.Len())
	got, err := c.Get("f")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
}

func TestMethodCache_Eviction(t *testing.T) {
	var evicted []string
	c := New(Options{MaxEntries: 3, OnEvict: func(name string) { evicted = append(evicted, name) }})

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, c.Put(testMethod(t, name)))
	}

	// Touch a so that b becomes the least recently used.
	_, err := c.Get("a")
	require.NoError(t, err)

	require.NoError(t, c.Put(testMethod(t, "d")))

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, int64(1), c.Stats().Evictions)

	_, err = c.Get("b")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	for _, name := range []string{"a", "c", "d"} {
		_, err := c.Get(name)
		assert.NoError(t, err, name)
	}
}

func TestMethodCache_DeleteClear(t *testing.T) {
	c := New(Options{MaxEntries: 10})
	require.NoError(t, c.Put(testMethod(t, "a")))
	require.NoError(t, c.Put(testMethod(t, "b")))

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	require.NoError(t, c.Put(testMethod(t, "c")))
	assert.Equal(t, 1, c.Len())
}

func TestMethodCache_HitRate(t *testing.T) {
	c := New(Options{})
	require.NoError(t, c.Put(testMethod(t, "a")))

	_, _ = c.Get("a")
	_, _ = c.Get("a")
	_, _ = c.Get("a")
	_, _ = c.Get("nope")

	assert.Equal(t, 0.75, c.HitRate())
}

func TestMethodCache_SaveLoad(t *testing.T) {
	c := New(Options{MaxEntries: 10})
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Put(testMethod(t, fmt.Sprintf("m%d", i))))
	}

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	loaded := New(Options{MaxEntries: 10})
	require.NoError(t, loaded.Load(&buf))
	assert.Equal(t, 5, loaded.Len())

	var names []string
	for _, e := range loaded.Entries() {
		names = append(names, e.Name)
		assert.Equal(t, 2, e.Blocks)
		assert.Equal(t, HashBytes(e.Data), e.Digest)
	}
	assert.ElementsMatch(t, []string{"m0", "m1", "m2", "m3", "m4"}, names)

	got, err := loaded.Get("m3")
	require.NoError(t, err)
	entry, ok := got.Lookup("entry")
	require.True(t, ok)
	assert.Equal(t, []vir.Stmt{vir.Comment{Text: "m3"}}, got.Block(entry).Statements())
}

func TestMethodCache_LoadIntoSmallerCache(t *testing.T) {
	c := New(Options{MaxEntries: 10})
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Put(testMethod(t, fmt.Sprintf("m%d", i))))
	}
	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	small := New(Options{MaxEntries: 2})
	require.NoError(t, small.Load(&buf))
	assert.Equal(t, 2, small.Len())
}

func TestMethodCache_Corrupted(t *testing.T) {
	c := New(Options{})
	c.set(Entry{Name: "bad", Data: []byte{0x01}, Digest: "deadbeef"})

	_, err := c.Get("bad")
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestPersistToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.msgpack")

	c := New(Options{})
	require.NoError(t, c.Put(testMethod(t, "f")))
	require.NoError(t, PersistToFile(c, path))

	loaded := New(Options{})
	require.NoError(t, LoadFromFile(loaded, path))
	_, err := loaded.Get("f")
	assert.NoError(t, err)
}

// closeErrWriter records writes and fails on Close.
type closeErrWriter struct {
	bytes.Buffer
	closed bool
}

func (w *closeErrWriter) Close() error {
	w.closed = true
	return errors.New("disk full")
}

func TestSaveAndClose_CloseError(t *testing.T) {
	c := New(Options{})
	require.NoError(t, c.Put(testMethod(t, "f")))

	w := &closeErrWriter{}
	err := saveAndClose(c, w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to close cache file")
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, w.closed)
	assert.NotZero(t, w.Len())
}

func TestPersistToFile_DirectoryPath(t *testing.T) {
	c := New(Options{})
	assert.Error(t, PersistToFile(c, t.TempDir()))
}

func TestLoadFromFile_Missing(t *testing.T) {
	c := New(Options{})
	require.NoError(t, LoadFromFile(c, filepath.Join(t.TempDir(), "none.msgpack")))
	assert.Equal(t, 0, c.Len())
}

func TestLoad_Garbage(t *testing.T) {
	c := New(Options{})
	assert.Error(t, c.Load(bytes.NewReader([]byte("not msgpack"))))
}
