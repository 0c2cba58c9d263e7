package script

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/pressline/pkg/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinFlow(t *testing.T) *Flow {
	t.Helper()
	reg := DefaultRegistry()
	f, ok := reg.Lookup("guest_place_order")
	require.True(t, ok)
	return f.(*Flow).Fork().(*Flow)
}

func TestFlow_GuestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	f := builtinFlow(t)

	lines := f.Initial(ctx, map[string]any{"name": "Ada"})
	require.Len(t, lines, 2)
	assert.Equal(t, "Hi Ada! Let's get your print order started.", lines[0])
	assert.Equal(t, []string{"Business Cards", "Flyers", "Posters"}, f.QuickReplies())

	reply := f.Respond(ctx, nil, "  flyers ")
	assert.Equal(t, []string{"Great choice. How many Flyers do you need?"}, reply.Messages)
	assert.Equal(t, []string{"100", "500", "1000", "Back"}, reply.QuickReplies)

	f.Respond(ctx, nil, "500")
	reply = f.Respond(ctx, nil, "Pickup")
	assert.Equal(t, []string{"So that's 500 Flyers by Pickup. Shall I place the order?"}, reply.Messages)

	reply = f.Respond(ctx, nil, "Place Order")
	assert.Equal(t, []string{"Your order is in, Ada! We'll email you when it's ready."}, reply.Messages)
	assert.Empty(t, reply.QuickReplies)
	assert.True(t, f.Done())
}

func TestFlow_SavedChoicesOutliveStartVars(t *testing.T) {
	ctx := context.Background()
	f := builtinFlow(t)
	vars := map[string]any{"name": "Ann", "product": "default"}

	f.Initial(ctx, vars)
	reply := f.Respond(ctx, vars, "Flyers")
	assert.Equal(t, []string{"Great choice. How many Flyers do you need?"}, reply.Messages)

	f.Respond(ctx, vars, "100")
	reply = f.Respond(ctx, vars, "Pickup")
	assert.Equal(t, []string{"So that's 100 Flyers by Pickup. Shall I place the order?"}, reply.Messages)

	reply = f.Respond(ctx, vars, "Place Order")
	assert.Equal(t, []string{"Your order is in, Ann! We'll email you when it's ready."}, reply.Messages)
}

func TestFlow_InitialForgetsSavedChoices(t *testing.T) {
	ctx := context.Background()
	f, err := New(Definition{
		ID:    "pick",
		Start: "ask",
		Steps: map[string]Step{
			"ask": {
				Say:     []string{"Current pick: {{.pick}}"},
				Save:    "pick",
				Choices: []Choice{{Label: "Red", Next: "done"}},
			},
			"done": {Say: []string{"Picked {{.pick}}"}},
		},
	})
	require.NoError(t, err)

	f.Initial(ctx, nil)
	reply := f.Respond(ctx, map[string]any{"pick": "Blue"}, "red")
	assert.Equal(t, []string{"Picked Red"}, reply.Messages)

	assert.Equal(t, []string{"Current pick: Blue"}, f.Initial(ctx, map[string]any{"pick": "Blue"}))
}

func TestFlow_Fallback(t *testing.T) {
	ctx := context.Background()
	f := builtinFlow(t)
	f.Initial(ctx, nil)

	reply := f.Respond(ctx, nil, "Banners")
	require.Len(t, reply.Messages, 1)
	assert.True(t, strings.HasPrefix(reply.Messages[0], "Sorry"))
	assert.Equal(t, []string{"Business Cards", "Flyers", "Posters"}, reply.QuickReplies)
}

func TestFlow_MissingVarRendersEmpty(t *testing.T) {
	f := builtinFlow(t)
	lines := f.Initial(context.Background(), nil)
	assert.Equal(t, "Hi ! Let's get your print order started.", lines[0])
}

func TestFlow_VarsAreWeaklyTyped(t *testing.T) {
	def := Definition{
		ID:    "count",
		Start: "a",
		Steps: map[string]Step{"a": {Say: []string{"You have {{.n}} items"}}},
	}
	f, err := New(def)
	require.NoError(t, err)
	assert.Equal(t, []string{"You have 3 items"}, f.Initial(context.Background(), map[string]any{"n": 3}))
}

func TestFlow_ForksAreIndependent(t *testing.T) {
	ctx := context.Background()
	reg := DefaultRegistry()
	proto, _ := reg.Lookup("guest_place_order")
	forker, ok := proto.(driver.Forker)
	require.True(t, ok)

	a := forker.Fork()
	b := forker.Fork()
	a.Initial(ctx, nil)
	b.Initial(ctx, nil)

	a.Respond(ctx, nil, "Posters")
	assert.Equal(t, []string{"100", "500", "1000", "Back"}, a.QuickReplies())
	assert.Equal(t, []string{"Business Cards", "Flyers", "Posters"}, b.QuickReplies())
}
