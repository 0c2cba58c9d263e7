package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/pressline/pkg/adapters/memory"
	"github.com/aretw0/pressline/pkg/ports"
	"github.com/aretw0/pressline/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunDialogStoreContract(t, store)
}

func TestMemoryStore_CountsCalls(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	g := tests.AboutFlow()
	require.NoError(t, store.SaveFlow(ctx, g.Flow, g.Nodes, g.Options))
	assert.Equal(t, 0, store.Calls(), "authoring is not a contract call")

	_, _ = store.FetchInitialNode(ctx, "about")
	_, _ = store.FetchOptions(ctx, "about-start")
	_, _ = store.FetchOptions(ctx, "about-services")

	assert.Equal(t, 3, store.Calls())
	assert.Equal(t, 2, store.CallsTo("FetchOptions"))
}

func TestMemoryStore_FailHook(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	boom := errors.New("boom")
	store.Fail = func(op string) error {
		if op == "CreateSession" {
			return boom
		}
		return nil
	}

	_, err := store.CreateSession(ctx, "alice")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.CallsTo("CreateSession"))
}
