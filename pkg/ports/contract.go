package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AuthoredStore is a DialogStore that can also be seeded with flows.
type AuthoredStore interface {
	DialogStore
	FlowAuthor
}

// RunDialogStoreContract runs a suite of tests to verify that a DialogStore
// implementation adheres to the defined interface contract.
func RunDialogStoreContract(t *testing.T, store AuthoredStore) {
	ctx := context.Background()
	actor := "contract-actor-" + time.Now().Format("20060102150405.000000000")

	about := tests.AboutFlow()
	hours := tests.HoursFlow()
	for _, g := range []tests.Graph{about, hours} {
		require.NoError(t, store.SaveFlow(ctx, g.Flow, g.Nodes, g.Options), "SaveFlow %s", g.Flow.ID)
	}

	newSession := func(t *testing.T, flowID, nodeID string) string {
		t.Helper()
		id, err := store.CreateSession(ctx, actor)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		require.NoError(t, store.AttachSessionToFlow(ctx, id, flowID, nodeID))
		return id
	}

	t.Run("Initial Node", func(t *testing.T) {
		node, err := store.FetchInitialNode(ctx, "about")
		require.NoError(t, err)
		assert.Equal(t, "about-start", node.ID)
		assert.True(t, node.IsInitial)

		_, err = store.FetchInitialNode(ctx, "missing-flow")
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("Options Ordered By Position", func(t *testing.T) {
		opts, err := store.FetchOptions(ctx, "about-start")
		require.NoError(t, err)
		require.Len(t, opts, 3)
		assert.Equal(t, "Services", opts[0].Label)
		assert.Equal(t, "Contact", opts[1].Label)
		assert.Equal(t, "Goodbye", opts[2].Label)

		opts, err = store.FetchOptions(ctx, "about-end")
		require.NoError(t, err)
		assert.Empty(t, opts)
	})

	t.Run("End Node", func(t *testing.T) {
		node, err := store.FetchEndNode(ctx, "about")
		require.NoError(t, err)
		assert.Equal(t, domain.NodeEnd, node.Kind)
		assert.Equal(t, "Thanks for chatting with us!", node.Text)

		_, err = store.FetchEndNode(ctx, "hours")
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("Create And Attach", func(t *testing.T) {
		id := newSession(t, "about", "about-start")

		sess, err := store.FetchSession(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, sess.Status)
		assert.Equal(t, "about", sess.FlowID)
		assert.Equal(t, "about-start", sess.CurrentNodeID)
		assert.Equal(t, actor, sess.ActorID)

		err = store.AttachSessionToFlow(ctx, id, "hours", "hours-start")
		assert.ErrorIs(t, err, domain.ErrSessionAttached)

		err = store.AttachSessionToFlow(ctx, "missing-session", "about", "about-start")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Current Node Read Is Idempotent", func(t *testing.T) {
		id := newSession(t, "about", "about-start")

		first, err := store.FetchCurrentNode(ctx, id)
		require.NoError(t, err)
		second, err := store.FetchCurrentNode(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("Update Current Node", func(t *testing.T) {
		id := newSession(t, "about", "about-start")

		require.NoError(t, store.UpdateCurrentNode(ctx, id, "about-services"))
		node, err := store.FetchCurrentNode(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "about-services", node.ID)

		err = store.UpdateCurrentNode(ctx, id, "hours-weekday")
		assert.ErrorIs(t, err, domain.ErrNodeNotInFlow)

		err = store.UpdateCurrentNode(ctx, id, "no-such-node")
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)

		node, err = store.FetchCurrentNode(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "about-services", node.ID, "failed updates must leave the pointer alone")
	})

	t.Run("Messages Round Trip", func(t *testing.T) {
		id := newSession(t, "about", "about-start")

		const n = 5
		for i := 0; i < n; i++ {
			role := domain.RoleUser
			nodeID := ""
			if i%2 == 0 {
				role = domain.RoleAssistant
				nodeID = "about-start"
			}
			msgID, err := store.InsertMessage(ctx, id, fmt.Sprintf("message %d", i), role, nodeID)
			require.NoError(t, err)
			assert.NotEmpty(t, msgID)
		}

		msgs, err := store.FetchSessionMessages(ctx, id)
		require.NoError(t, err)
		require.Len(t, msgs, n)
		for i, m := range msgs {
			assert.Equal(t, fmt.Sprintf("message %d", i), m.Text)
			assert.Equal(t, id, m.SessionID)
			if i > 0 {
				assert.False(t, m.CreatedAt.Before(msgs[i-1].CreatedAt), "timestamps must not decrease")
				assert.True(t, msgs[i-1].Before(m), "replay order must be total")
			}
		}
		assert.Equal(t, "about-start", msgs[0].NodeID)
		assert.Empty(t, msgs[1].NodeID)

		_, err = store.InsertMessage(ctx, "missing-session", "hello", domain.RoleUser, "")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("End Session", func(t *testing.T) {
		id := newSession(t, "about", "about-start")

		require.NoError(t, store.EndSession(ctx, id))
		sess, err := store.FetchSession(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusEnded, sess.Status)
		require.NotNil(t, sess.EndedAt)

		err = store.UpdateCurrentNode(ctx, id, "about-services")
		assert.ErrorIs(t, err, domain.ErrSessionEnded)
		node, err := store.FetchCurrentNode(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "about-start", node.ID)

		// A courtesy close-out message is still accepted.
		_, err = store.InsertMessage(ctx, id, "bye", domain.RoleAssistant, "about-end")
		assert.NoError(t, err)

		assert.NoError(t, store.EndSession(ctx, id), "ending twice is a no-op")
		assert.ErrorIs(t, store.EndSession(ctx, "missing-session"), domain.ErrSessionNotFound)
	})

	t.Run("User Sessions", func(t *testing.T) {
		other := actor + "-listing"
		id, err := store.CreateSession(ctx, other)
		require.NoError(t, err)
		require.NoError(t, store.AttachSessionToFlow(ctx, id, "about", "about-start"))
		_, err = store.InsertMessage(ctx, id, "hello", domain.RoleUser, "")
		require.NoError(t, err)

		sessions, err := store.FetchUserSessions(ctx, other)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, id, sessions[0].ID)
		assert.Equal(t, "About Us", sessions[0].Title)
		assert.Equal(t, "about", sessions[0].FlowID)
		assert.False(t, sessions[0].UpdatedAt.IsZero())

		sessions, err = store.FetchUserSessions(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("Rejects IDs Owned By Another Flow", func(t *testing.T) {
		err := store.SaveFlow(ctx, domain.Flow{ID: "intruder"}, []domain.Node{
			{ID: "about-start", Kind: domain.NodeStart, IsInitial: true, Text: "Hijacked"},
		}, nil)
		require.ErrorIs(t, err, domain.ErrInvalidFlow)

		err = store.SaveFlow(ctx, domain.Flow{ID: "intruder"}, []domain.Node{
			{ID: "intruder-a", Kind: domain.NodeStart, IsInitial: true, Text: "A"},
			{ID: "intruder-b", Kind: domain.NodeEnd, Text: "B"},
		}, []domain.Option{
			{ID: "about-opt-services", FromNodeID: "intruder-a", ToNodeID: "intruder-b", Label: "Go"},
		})
		require.ErrorIs(t, err, domain.ErrInvalidFlow)

		node, err := store.FetchInitialNode(ctx, "about")
		require.NoError(t, err)
		assert.Equal(t, "about-start", node.ID)
		assert.Equal(t, "about", node.FlowID)

		opts, err := store.FetchOptions(ctx, "about-start")
		require.NoError(t, err)
		assert.Len(t, opts, 3)
	})

	t.Run("Rejects Invalid Flow", func(t *testing.T) {
		err := store.SaveFlow(ctx, domain.Flow{ID: "broken"}, []domain.Node{
			{ID: "broken-a", Kind: domain.NodeStart},
		}, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidFlow)
	})
}
