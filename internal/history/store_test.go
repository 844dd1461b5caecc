package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduvoice/dubsession/internal/dubbing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	require.Error(t, err)
}

func TestSQLiteStore_InsertAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, Entry{
		SessionID: "s1",
		ContentID: "v1",
		Language:  "hi",
		State:     "ready",
		ResultURL: "https://cdn/v1.hi.mp4",
		Elapsed:   90 * time.Second,
		CreatedAt: time.Now().UTC().Add(-time.Minute),
	}))
	require.NoError(t, store.Insert(ctx, Entry{
		SessionID: "s1",
		ContentID: "v1",
		Language:  "ta",
		State:     "failed",
		Reason:    "timeout",
		CreatedAt: time.Now().UTC(),
	}))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Most recent first.
	assert.Equal(t, "ta", entries[0].Language)
	assert.Equal(t, "timeout", entries[0].Reason)
	assert.Equal(t, "hi", entries[1].Language)
	assert.Equal(t, 90*time.Second, entries[1].Elapsed)
}

func TestSQLiteStore_RecentLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Insert(ctx, Entry{
			SessionID: "s1",
			ContentID: "v1",
			Language:  "hi",
			State:     "ready",
		}))
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSQLiteStore_Prune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, store.Insert(ctx, Entry{SessionID: "s1", ContentID: "v1", Language: "hi", State: "ready", CreatedAt: old}))
	require.NoError(t, store.Insert(ctx, Entry{SessionID: "s1", ContentID: "v1", Language: "ta", State: "ready"}))

	pruned, err := store.Prune(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ta", entries[0].Language)
}

func TestSQLiteStore_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Insert(context.Background(), Entry{
		SessionID: "s1", ContentID: "v1", Language: "hi", State: "ready",
	}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecorder_RecordsOutcome(t *testing.T) {
	store := newTestStore(t)
	recorder := NewRecorder(store)

	recorder.RecordOutcome(context.Background(), dubbing.Outcome{
		SessionID: "s1",
		ContentID: "v1",
		Language:  "hi",
		State:     dubbing.StateReady,
		ResultURL: "https://cdn/v1.hi.mp4",
		Elapsed:   time.Minute,
	})

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, string(dubbing.StateReady), entries[0].State)
	assert.Equal(t, "https://cdn/v1.hi.mp4", entries[0].ResultURL)
}
