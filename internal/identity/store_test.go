package identity

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "foresight.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEnsureUserIDIsStableAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foresight.sqlite")

	store, err := Open(path)
	require.NoError(t, err)

	first, err := store.EnsureUserID()
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	again, err := store.EnsureUserID()
	require.NoError(t, err)
	require.Equal(t, first, again)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	persisted, err := reopened.EnsureUserID()
	require.NoError(t, err)
	require.Equal(t, first, persisted)
}

func TestTranscriptAppendAndHistory(t *testing.T) {
	store := openTestStore(t)

	userID, err := store.EnsureUserID()
	require.NoError(t, err)

	require.NoError(t, store.AppendTurn(userID, "what is this?", "a coffee mug"))
	require.NoError(t, store.AppendTurn(userID, "what color?", "blue"))

	turns, err := store.History(userID, 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)

	// Newest first.
	require.Equal(t, "what color?", turns[0].Question)
	require.Equal(t, "blue", turns[0].Answer)
	require.Equal(t, "what is this?", turns[1].Question)
	require.False(t, turns[0].CreatedAt.IsZero())
}

func TestHistoryIsScopedToUser(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.AppendTurn("user-a", "q", "a"))
	require.NoError(t, store.AppendTurn("user-b", "q2", "a2"))

	turns, err := store.History("user-a", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	require.Equal(t, "q", turns[0].Question)
}

func TestClearHistory(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.AppendTurn("user-a", "q", "a"))
	require.NoError(t, store.ClearHistory("user-a"))

	turns, err := store.History("user-a", 10)
	require.NoError(t, err)
	require.Empty(t, turns)
}
