package cache

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	s := NewStore(time.Hour)

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("k", []byte("payload"))
	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), got)

	// Overwrite replaces the prior value.
	s.Set("k", []byte("fresh"))
	got, ok = s.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("fresh"), got)
}

func TestStore_Expiry(t *testing.T) {
	now := time.Date(2024, 11, 25, 10, 0, 0, 0, time.UTC)
	s := NewStore(time.Hour)
	s.now = func() time.Time { return now }

	s.Set("k", []byte("payload"))

	// Just inside the TTL window: still a hit.
	now = now.Add(59 * time.Minute)
	_, ok := s.Get("k")
	assert.True(t, ok)

	// At the TTL boundary the entry is expired, removed, and reported absent.
	now = now.Add(time.Minute)
	_, ok = s.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(time.Hour)
	s.Set("a", []byte("1"))
	s.Set("b", []byte("2"))
	require.Equal(t, 2, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	_, ok := s.Get("a")
	assert.False(t, ok)
}

func TestStore_ExportImport(t *testing.T) {
	now := time.Date(2024, 11, 25, 10, 0, 0, 0, time.UTC)
	s := NewStore(time.Hour)
	s.now = func() time.Time { return now }
	s.Set("a", []byte("1"))
	now = now.Add(30 * time.Minute)
	s.Set("b", []byte("2"))

	entries := s.Export()
	require.Len(t, entries, 2)

	// Import into a store 45 minutes later: "a" has expired in the meantime,
	// "b" has not.
	later := now.Add(45 * time.Minute)
	dst := NewStore(time.Hour)
	dst.now = func() time.Time { return later }
	dst.Import(entries)

	_, ok := dst.Get("a")
	assert.False(t, ok)
	got, ok := dst.Get("b")
	require.True(t, ok)
	assert.Equal(t, []byte("2"), got)
}

func TestKey_Deterministic(t *testing.T) {
	a := Key("repos/o/r/pulls", url.Values{"state": {"all"}, "per_page": {"100"}})
	b := Key("repos/o/r/pulls", url.Values{"per_page": {"100"}, "state": {"all"}})
	assert.Equal(t, a, b, "identical logical requests must hit the same slot")

	c := Key("repos/o/r/pulls", url.Values{"state": {"open"}, "per_page": {"100"}})
	assert.NotEqual(t, a, c, "different query parameters are different requests")

	d := Key("repos/o/r/issues", url.Values{"state": {"all"}, "per_page": {"100"}})
	assert.NotEqual(t, a, d, "different endpoints are different requests")
}

func TestStore_SaveLoadDir(t *testing.T) {
	dir := t.TempDir()

	s := NewStore(time.Hour)
	s.Set("a", []byte("1"))
	s.Set("b", []byte("2"))
	require.NoError(t, s.SaveDir(dir))

	restored := NewStore(time.Hour)
	require.NoError(t, restored.LoadDir(dir))
	assert.Equal(t, 2, restored.Len())
	got, ok := restored.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), got)
}

func TestStore_LoadDir_Missing(t *testing.T) {
	s := NewStore(time.Hour)
	assert.NoError(t, s.LoadDir(t.TempDir()), "a missing snapshot is not an error")
	assert.Equal(t, 0, s.Len())
}

func TestStore_LoadDir_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotFile), []byte("{not json"), 0o644))

	s := NewStore(time.Hour)
	assert.Error(t, s.LoadDir(dir))
}
