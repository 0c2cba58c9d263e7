package conversation

import (
	"context"
	"testing"

	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_PersistedLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	c := NewController(newActions(store), "alice")

	start, err := c.Start(ctx, "about", nil, nil)
	require.NoError(t, err)

	st := c.State()
	assert.True(t, st.Started)
	assert.Equal(t, start.SessionID, st.SessionID)
	assert.Equal(t, "about-start", st.ActiveNodeID)
	assert.Equal(t, driver.KindPersisted, st.Kind)

	res, err := c.Send(ctx, "Contact")
	require.NoError(t, err)
	assert.Len(t, res.Messages, 3)
	assert.Equal(t, "about-contact", c.State().ActiveNodeID)

	require.NoError(t, c.End(ctx, ""))
	assert.Equal(t, State{}, c.State())

	sess, err := store.FetchSession(ctx, start.SessionID)
	require.NoError(t, err)
	assert.True(t, sess.Ended())

	_, err = c.Send(ctx, "Back")
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestController_ScriptedTranscript(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	c := NewController(newActions(store), "")

	start, err := c.Start(ctx, "guest_place_order", nil, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Empty(t, start.SessionID)
	require.Len(t, start.Messages, 2)

	res, err := c.Send(ctx, "Posters")
	require.NoError(t, err)
	require.Len(t, res.Messages, 4)
	assert.Equal(t, domain.RoleUser, res.Messages[2].Role)
	assert.Equal(t, "Posters", res.Messages[2].Text)
	assert.Equal(t, "Great choice. How many Posters do you need?", res.Messages[3].Text)
	for i, m := range res.Messages {
		assert.Equal(t, i+1, m.Sequence)
	}
	assert.Equal(t, []string{"100", "500", "1000", "Back"}, labelsOf(res.QuickReplies))

	require.NoError(t, c.End(ctx, ""))
	assert.Zero(t, store.Calls())
}

func TestController_FailedStartKeepsState(t *testing.T) {
	ctx := context.Background()
	c := NewController(newActions(newStore(t)), "alice")

	_, err := c.Start(ctx, "about", nil, nil)
	require.NoError(t, err)
	before := c.State()

	_, err = c.Start(ctx, "missing", nil, nil)
	require.ErrorIs(t, err, domain.ErrFlowNotFound)
	assert.Equal(t, before, c.State())
}

func TestController_InstancesDoNotShareState(t *testing.T) {
	ctx := context.Background()
	a := newActions(newStore(t))
	admin := NewController(a, "admin")
	customer := NewController(a, "customer")

	_, err := admin.Start(ctx, "about", nil, nil)
	require.NoError(t, err)
	_, err = customer.Start(ctx, "hours", nil, nil)
	require.NoError(t, err)

	_, err = admin.Send(ctx, "Services")
	require.NoError(t, err)

	assert.Equal(t, "about-services", admin.State().ActiveNodeID)
	assert.Equal(t, "hours-start", customer.State().ActiveNodeID)
	assert.NotEqual(t, admin.State().SessionID, customer.State().SessionID)
}

func TestController_SetSessionID(t *testing.T) {
	ctx := context.Background()
	a := newActions(newStore(t))

	first := NewController(a, "alice")
	start, err := first.Start(ctx, "hours", nil, nil)
	require.NoError(t, err)

	second := NewController(a, "alice")
	second.SetSessionID(start.SessionID)
	res, err := second.Send(ctx, "no")
	require.NoError(t, err)
	assert.Equal(t, "hours-weekend", res.ActiveNodeID)
	assert.Equal(t, "hours-weekend", second.State().ActiveNodeID)
}

func TestController_ResumeBetweenConversations(t *testing.T) {
	ctx := context.Background()
	a := newActions(newStore(t))
	sw := NewSwitcher(a)
	c := NewController(a, "alice")

	persisted, err := c.Start(ctx, "about", nil, nil)
	require.NoError(t, err)
	_, err = c.Send(ctx, "Services")
	require.NoError(t, err)
	known := []Conversation{c.Snapshot("")}

	_, err = c.Start(ctx, "guest_place_order", nil, nil)
	require.NoError(t, err)
	_, err = c.Send(ctx, "Flyers")
	require.NoError(t, err)
	known = append(known, c.Snapshot("local-1"))

	res, err := c.Resume(ctx, sw, persisted.SessionID, known)
	require.NoError(t, err)
	assert.True(t, res.Persisted)
	require.Len(t, res.Messages, 3)
	for _, m := range res.Messages {
		assert.Equal(t, persisted.SessionID, m.SessionID)
	}
	assert.Equal(t, []string{"Back", "Goodbye"}, labelsOf(res.QuickReplies))
	assert.Equal(t, "about-services", c.State().ActiveNodeID)

	res, err = c.Resume(ctx, sw, "local-1", known)
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	require.Len(t, res.Messages, 4)
	assert.Equal(t, []string{"100", "500", "1000", "Back"}, labelsOf(res.QuickReplies))
	assert.Empty(t, c.State().SessionID)

	next, err := c.Send(ctx, "500")
	require.NoError(t, err)
	assert.Len(t, next.Messages, 6)
}

func TestController_ResumeScriptedNeedsRetainedDriver(t *testing.T) {
	ctx := context.Background()
	a := newActions(newStore(t))
	sw := NewSwitcher(a)
	c := NewController(a, "alice")

	_, err := c.Start(ctx, "guest_place_order", nil, nil)
	require.NoError(t, err)
	_, err = c.Send(ctx, "Flyers")
	require.NoError(t, err)
	kept := c.Snapshot("local-1")
	kept.Driver = nil
	before := c.State()

	_, err = c.Resume(ctx, sw, "local-1", []Conversation{kept})
	require.ErrorIs(t, err, ErrNoRetainedFlow)
	assert.Equal(t, before, c.State())

	res, err := c.Send(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pickup", "Delivery"}, labelsOf(res.QuickReplies))
}

func TestController_OffersEndChat(t *testing.T) {
	ctx := context.Background()
	a := newActions(newStore(t))

	idle := NewController(a, "alice")
	assert.True(t, idle.OffersEndChat(ctx))

	persisted := NewController(a, "alice")
	_, err := persisted.Start(ctx, "about", nil, nil)
	require.NoError(t, err)
	assert.False(t, persisted.OffersEndChat(ctx), "about-start still has options")
	_, err = persisted.Send(ctx, "Contact")
	require.NoError(t, err)
	_, err = persisted.Send(ctx, "Goodbye")
	require.NoError(t, err)
	assert.True(t, persisted.OffersEndChat(ctx))

	scripted := NewController(a, "")
	_, err = scripted.Start(ctx, "guest_place_order", nil, nil)
	require.NoError(t, err)
	assert.False(t, scripted.OffersEndChat(ctx))
	for _, input := range []string{"Flyers", "100", "Pickup", "Place Order"} {
		_, err = scripted.Send(ctx, input)
		require.NoError(t, err)
	}
	assert.True(t, scripted.OffersEndChat(ctx))
}
