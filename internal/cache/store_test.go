package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), nil)
}

func TestSetThenGetReturnsValue(t *testing.T) {
	s := newTestStore(t)

	s.Set("accounts", []string{"a", "b"}, time.Hour)

	raw := s.Get("accounts")
	require.NotNil(t, raw)

	var got []string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestGetMissingKeyReturnsNil(t *testing.T) {
	s := newTestStore(t)
	assert.Nil(t, s.Get("nope"))
}

func TestExpiredEntryIsAMiss(t *testing.T) {
	s := newTestStore(t)
	s.Set("tasks/list", map[string]string{"k": "v"}, 100*time.Second)

	// Move the clock past the TTL.
	s.now = func() time.Time { return time.Now().Add(101 * time.Second) }

	assert.Nil(t, s.Get("tasks/list"))
}

func TestEntryExpiresAtExactInstant(t *testing.T) {
	s := newTestStore(t)
	base := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return base }
	s.Set("tasks/list", map[string]string{"k": "v"}, 100*time.Second)

	s.now = func() time.Time { return base.Add(99 * time.Second) }
	assert.NotNil(t, s.Get("tasks/list"))

	s.now = func() time.Time { return base.Add(100 * time.Second) }
	assert.Nil(t, s.Get("tasks/list"))
}

func TestFreshEntryWithinTTL(t *testing.T) {
	s := newTestStore(t)
	s.Set("tasks/list", map[string]string{"k": "v"}, 100*time.Second)

	s.now = func() time.Time { return time.Now().Add(50 * time.Second) }

	assert.NotNil(t, s.Get("tasks/list"))
}

func TestOverwriteReplacesValue(t *testing.T) {
	s := newTestStore(t)
	s.Set("tags", "old", time.Hour)
	s.Set("tags", "new", time.Hour)

	var got string
	require.NoError(t, json.Unmarshal(s.Get("tags"), &got))
	assert.Equal(t, "new", got)
}

func TestInvalidatePrefixRemovesExactAndNested(t *testing.T) {
	s := newTestStore(t)
	s.Set("tasks", "root", time.Hour)
	s.Set("tasks/list", "list", time.Hour)
	s.Set("tasks/42", "one", time.Hour)
	s.Set("accounts", "keep", time.Hour)

	s.Invalidate("tasks")

	assert.Nil(t, s.Get("tasks"))
	assert.Nil(t, s.Get("tasks/list"))
	assert.Nil(t, s.Get("tasks/42"))
	assert.NotNil(t, s.Get("accounts"))
}

func TestInvalidateDoesNotMatchSiblingPrefix(t *testing.T) {
	s := newTestStore(t)
	s.Set("tasks/list", "list", time.Hour)
	s.Set("taskLists", "lists", time.Hour)

	s.Invalidate("tasks")

	assert.Nil(t, s.Get("tasks/list"))
	assert.NotNil(t, s.Get("taskLists"))
}

func TestInvalidateNoMatchIsNoop(t *testing.T) {
	s := newTestStore(t)
	s.Set("tags", "v", time.Hour)
	s.Invalidate("events")
	assert.NotNil(t, s.Get("tags"))
}

func TestClearRemovesEverything(t *testing.T) {
	s := newTestStore(t)
	s.Set("a", 1, time.Hour)
	s.Set("b/c", 2, time.Hour)

	s.Clear()

	assert.Nil(t, s.Get("a"))
	assert.Nil(t, s.Get("b/c"))
	assert.Equal(t, 0, s.Snapshot().Entries)
}

func TestCorruptPayloadIsAMiss(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)
	s.Set("events/abc", map[string]string{"k": "v"}, time.Hour)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "events--abc.json"), []byte("not json {{{"), 0o600))

	assert.Nil(t, s.Get("events/abc"))
}

func TestMissingDataFileIsAMiss(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)
	s.Set("tags", "v", time.Hour)

	require.NoError(t, os.Remove(filepath.Join(dir, "tags.json")))

	assert.Nil(t, s.Get("tags"))
}

func TestCorruptMetaIndexStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, metaFileName), []byte("garbage"), 0o600))

	s := NewStore(dir, nil)
	assert.Nil(t, s.Get("anything"))
	assert.Equal(t, 0, s.Snapshot().Entries)
}

func TestMetaPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	NewStore(dir, nil).Set("calendars", []int{1, 2}, time.Hour)

	s2 := NewStore(dir, nil)
	assert.NotNil(t, s2.Get("calendars"))
}

func TestSnapshotReportsEntries(t *testing.T) {
	s := newTestStore(t)
	s.Set("accounts", []string{"x"}, time.Hour)
	s.Set("tasks/list", []string{"y"}, 100*time.Second)

	stats := s.Snapshot()
	require.Equal(t, 2, stats.Entries)

	ks, ok := stats.Keys["tasks/list"]
	require.True(t, ok)
	assert.Equal(t, int64(100), ks.TTLSeconds)
	assert.False(t, ks.Expired)
	assert.Greater(t, ks.SizeBytes, int64(0))
}

func TestSnapshotDoesNotEvictExpired(t *testing.T) {
	s := newTestStore(t)
	s.Set("tags", "v", time.Second)
	s.now = func() time.Time { return time.Now().Add(time.Minute) }

	stats := s.Snapshot()
	require.Equal(t, 1, stats.Entries)
	assert.True(t, stats.Keys["tags"].Expired)

	// Entry is still reported after the snapshot.
	assert.Equal(t, 1, s.Snapshot().Entries)
}

func TestHierarchicalKeysMapToFlatFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)
	s.Set("events/deadbeef1234", "v", time.Hour)

	_, err := os.Stat(filepath.Join(dir, "events--deadbeef1234.json"))
	assert.NoError(t, err)
}
