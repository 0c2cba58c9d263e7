package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/pressline/internal/testutils"
	"github.com/aretw0/pressline/pkg/adapters/memory"
	"github.com/aretw0/pressline/pkg/conversation"
	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/gateway"
	"github.com/aretw0/pressline/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatActions(t *testing.T) (*conversation.Actions, *memory.Store) {
	t.Helper()
	store := testutils.SeededStore(t)
	return conversation.NewActions(gateway.New(store),
		conversation.WithRegistry(script.DefaultRegistry()),
		conversation.WithPersistedFlows("about", "hours"),
	), store
}

func runChat(t *testing.T, a *conversation.Actions, flowID, script string) string {
	t.Helper()
	var out bytes.Buffer
	chat := NewChat(a, "alice", ChatOptions{
		In:   strings.NewReader(script),
		Out:  &out,
		Vars: map[string]any{"name": "Ada"},
	})
	require.NoError(t, chat.Run(context.Background(), flowID))
	return out.String()
}

func TestChat_PersistedFlow(t *testing.T) {
	a, store := newChatActions(t)
	out := runChat(t, a, "about", "1\nBack\nnonsense\n3\nEnd Chat\n")

	assert.Contains(t, out, "What would you like to know about our print shop?")
	assert.Contains(t, out, "[1] Services  [2] Contact  [3] Goodbye")
	assert.Contains(t, out, "We print business cards")
	assert.Contains(t, out, domain.FallbackText)
	assert.Contains(t, out, "Thanks for chatting with us!")
	assert.Contains(t, out, "conversation ended")

	sessions, err := store.FetchUserSessions(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.StatusEnded, sessions[0].Status)
}

func TestChat_EndChatWhileOptionsRemainIsATurn(t *testing.T) {
	a, store := newChatActions(t)
	out := runChat(t, a, "about", "End Chat\n")

	assert.Contains(t, out, domain.FallbackText)
	assert.NotContains(t, out, "conversation ended")

	sessions, err := store.FetchUserSessions(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.StatusActive, sessions[0].Status)
}

func TestChat_ScriptedFlow(t *testing.T) {
	a, store := newChatActions(t)
	out := runChat(t, a, "guest_place_order", "2\n")

	assert.Contains(t, out, "Hi Ada!")
	assert.Contains(t, out, "How many Flyers do you need?")
	assert.Zero(t, store.Calls())
}

func TestChat_SwitchBetweenConversations(t *testing.T) {
	a, _ := newChatActions(t)
	out := runChat(t, a, "about", strings.Join([]string{
		"Services",
		"/new guest_place_order",
		"Posters",
		"/list",
		"/switch 1",
		"Goodbye",
		"/switch 2",
		"500",
		"/quit",
	}, "\n")+"\n")

	assert.Contains(t, out, "* 2. guest_place_order (active)")
	assert.Contains(t, out, "  1. about (active)")
	assert.Contains(t, out, "── about ──")
	assert.Contains(t, out, "Thanks for chatting with us!")
	assert.Contains(t, out, "── guest_place_order ──")
	assert.Contains(t, out, "How would you like to receive your order?")
}

func TestChat_UnknownFlow(t *testing.T) {
	a, _ := newChatActions(t)
	chat := NewChat(a, "alice", ChatOptions{In: strings.NewReader(""), Out: &bytes.Buffer{}})
	err := chat.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestChat_NewWithUnknownFlowKeepsFocus(t *testing.T) {
	a, _ := newChatActions(t)
	out := runChat(t, a, "hours", "/new nope\nyes\n")

	assert.Contains(t, out, "flow not found")
	assert.Contains(t, out, "We are open 9am to 6pm on weekdays.")
}
