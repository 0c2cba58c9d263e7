package driver_test

import (
	"context"
	"testing"

	"github.com/aretw0/pressline/pkg/adapters/memory"
	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/driver"
	"github.com/aretw0/pressline/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoFlow struct{ last string }

func (f *echoFlow) Initial(ctx context.Context, vars map[string]any) []string {
	return []string{"hello"}
}

func (f *echoFlow) Respond(ctx context.Context, vars map[string]any, input string) driver.Reply {
	f.last = input
	return driver.Reply{Messages: []string{"you said " + input}, QuickReplies: []string{"again"}}
}

func (f *echoFlow) QuickReplies() []string { return []string{"start"} }

func TestScripted_PassThrough(t *testing.T) {
	ctx := context.Background()
	flow := &echoFlow{}
	d := driver.NewScripted(flow)

	assert.Equal(t, driver.KindScripted, d.Kind())
	assert.Equal(t, []string{"hello"}, d.Initial(ctx, nil))
	assert.Equal(t, []string{"start"}, d.QuickReplies())

	reply := d.Respond(ctx, nil, "ping")
	assert.Equal(t, []string{"you said ping"}, reply.Messages)
	assert.Equal(t, []string{"again"}, reply.QuickReplies)
	assert.Equal(t, "ping", flow.last)
	assert.NoError(t, d.End(ctx, "anything"))
}

func TestPersisted_InertUntilEnd(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	d := driver.NewPersisted(gateway.New(store))

	assert.Equal(t, driver.KindPersisted, d.Kind())
	assert.Empty(t, d.Initial(ctx, nil))
	reply := d.Respond(ctx, nil, "Services")
	assert.Empty(t, reply.Messages)
	assert.Empty(t, reply.QuickReplies)
	assert.Equal(t, 0, store.Calls(), "initial and respond never touch the store")

	id, err := store.CreateSession(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, d.End(ctx, id))

	sess, err := store.FetchSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, sess.Status)

	assert.Error(t, d.End(ctx, "missing"))
	assert.NoError(t, d.End(ctx, ""))
}

func TestRegistry(t *testing.T) {
	r := driver.NewRegistry()
	r.Register("b", &echoFlow{})
	r.Register("a", &echoFlow{})

	_, ok := r.Lookup("a")
	assert.True(t, ok)
	_, ok = r.Lookup("zzz")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, r.Names())

	var nilRegistry *driver.Registry
	_, ok = nilRegistry.Lookup("a")
	assert.False(t, ok)
	assert.Empty(t, nilRegistry.Names())
}

func TestRegistry_ZeroValue(t *testing.T) {
	var r driver.Registry
	assert.Empty(t, r.Names())

	r.Register("a", &echoFlow{})
	_, ok := r.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, r.Names())
}
