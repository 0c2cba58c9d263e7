package observability

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/pressline/internal/logging"
	"github.com/aretw0/pressline/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics()
	h := m.Hooks()

	h.Emit(ctx, domain.Event{Type: domain.EventSessionStart, FlowID: "about"})
	h.Emit(ctx, domain.Event{Type: domain.EventTransition, FlowID: "about", ToNodeID: "about-services"})
	h.Emit(ctx, domain.Event{Type: domain.EventTransition, FlowID: "about", ToNodeID: "about-services"})
	h.Emit(ctx, domain.Event{Type: domain.EventFallback, FlowID: "about", FromNodeID: "about-start"})
	h.Emit(ctx, domain.Event{Type: domain.EventSessionEnd, FlowID: "about"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.started.WithLabelValues("about")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("about", "about-services")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("about", "about-start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ended.WithLabelValues("about")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.Hooks().Emit(context.Background(), domain.Event{Type: domain.EventSessionStart, FlowID: "hours"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pressline_sessions_started_total{flow_id="hours"} 1`)
}

func TestCombine(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics()

	var buf bytes.Buffer
	logger := logging.NewWithFormat(&buf, slog.LevelInfo, "text")
	h := Combine(m.Hooks(), LogHooks(logger), domain.Hooks{})

	h.Emit(ctx, domain.Event{Type: domain.EventSessionEnd, SessionID: "s1", FlowID: "about"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ended.WithLabelValues("about")))
	assert.True(t, strings.Contains(buf.String(), "session_end"))
	assert.Contains(t, buf.String(), "session_id=s1")
}

func TestCombine_Empty(t *testing.T) {
	h := Combine()
	assert.Nil(t, h.OnTransition)
	h.Emit(context.Background(), domain.Event{Type: domain.EventTransition})
}
