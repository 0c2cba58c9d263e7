package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/pressline/pkg/adapters/sqlstore"
	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/ports"
	"github.com/aretw0/pressline/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, opts ...sqlstore.Option) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open("sqlite", ":memory:", opts...)
	require.NoError(t, err, "open test db")
	require.NoError(t, store.AutoMigrate(), "migrate test db")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLStore_Contract(t *testing.T) {
	ports.RunDialogStoreContract(t, openTestStore(t))
}

func TestSQLStore_UnsupportedDriver(t *testing.T) {
	_, err := sqlstore.Open("postgres", "host=localhost")
	assert.Error(t, err)
}

func TestSQLStore_SaveFlowReplaces(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	g := tests.AboutFlow()
	require.NoError(t, store.SaveFlow(ctx, g.Flow, g.Nodes, g.Options))

	// Re-seed with one option dropped.
	g.Flow.Title = "About Pressline"
	require.NoError(t, store.SaveFlow(ctx, g.Flow, g.Nodes, g.Options[1:]))

	opts, err := store.FetchOptions(ctx, "about-start")
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	id, err := store.CreateSession(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, store.AttachSessionToFlow(ctx, id, "about", "about-start"))
	sessions, err := store.FetchUserSessions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "About Pressline", sessions[0].Title)
}

func TestSQLStore_SequenceBreaksTimestampTies(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := openTestStore(t, sqlstore.WithClock(func() time.Time { return frozen }))
	g := tests.AboutFlow()
	require.NoError(t, store.SaveFlow(ctx, g.Flow, g.Nodes, g.Options))

	id, err := store.CreateSession(ctx, "bob")
	require.NoError(t, err)
	for _, text := range []string{"first", "second", "third"} {
		_, err := store.InsertMessage(ctx, id, text, domain.RoleUser, "")
		require.NoError(t, err)
	}

	msgs, err := store.FetchSessionMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{msgs[0].Text, msgs[1].Text, msgs[2].Text})
	assert.Equal(t, []int{1, 2, 3}, []int{msgs[0].Sequence, msgs[1].Sequence, msgs[2].Sequence})
}
