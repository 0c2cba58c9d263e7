package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/pressline/internal/logging"
	"github.com/aretw0/pressline/pkg/conversation"
	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/input"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes store-backed conversations over HTTP. Scripted flows can be
// started, but their turns are held by the client.
type Server struct {
	actions   *conversation.Actions
	switcher  *conversation.Switcher
	sanitizer *input.Sanitizer
	metrics   http.Handler
	streams   *StreamManager
	logger    *slog.Logger
	version   string
}

// Option configures the Server.
type Option func(*Server)

// WithSanitizer sets the input sanitizer.
func WithSanitizer(s *input.Sanitizer) Option {
	return func(srv *Server) {
		srv.sanitizer = s
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(srv *Server) {
		srv.metrics = h
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		srv.logger = logger
	}
}

// WithVersion sets the version reported by GET /health.
func WithVersion(v string) Option {
	return func(srv *Server) {
		srv.version = v
	}
}

// NewServer creates a server over actions.
func NewServer(actions *conversation.Actions, opts ...Option) *Server {
	s := &Server{
		actions:   actions,
		switcher:  conversation.NewSwitcher(actions),
		sanitizer: input.FromEnv(),
		streams:   NewStreamManager(),
		logger:    logging.NewNop(),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams.logger = s.logger
	return s
}

// NewHandler is a shorthand for NewServer(actions, opts...).Routes().
func NewHandler(actions *conversation.Actions, opts ...Option) http.Handler {
	return NewServer(actions, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", s.start)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.replay)
			r.Post("/messages", s.send)
			r.Post("/end", s.end)
			r.Get("/events", s.events)
		})
	})
	r.Get("/actors/{actor}/sessions", s.sessions)
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartRequest is the body of POST /conversations.
type StartRequest struct {
	FlowID  string         `json:"flow_id"`
	ActorID string         `json:"actor_id"`
	Vars    map[string]any `json:"vars,omitempty"`
}

// SendRequest is the body of POST /conversations/{id}/messages.
type SendRequest struct {
	Input        string `json:"input"`
	ActiveNodeID string `json:"active_node_id,omitempty"`
}

// EndRequest is the optional body of POST /conversations/{id}/end.
type EndRequest struct {
	FlowID string `json:"flow_id,omitempty"`
}

// ConversationResponse is the state of a conversation after an operation.
type ConversationResponse struct {
	SessionID    string              `json:"session_id,omitempty"`
	FlowID       string              `json:"flow_id,omitempty"`
	ActiveNodeID string              `json:"active_node_id,omitempty"`
	Messages     []domain.Message    `json:"messages"`
	QuickReplies []domain.QuickReply `json:"quick_replies"`
	Ended        bool                `json:"ended"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if body.FlowID == "" {
		s.fail(w, r, http.StatusBadRequest, "flow_id is required", nil)
		return
	}

	res, err := s.actions.Start(r.Context(), conversation.StartRequest{
		FlowID:  body.FlowID,
		ActorID: body.ActorID,
		Vars:    body.Vars,
	})
	if err != nil {
		s.fail(w, r, statusFor(err), "start failed", err)
		return
	}

	s.writeJSON(w, http.StatusCreated, ConversationResponse{
		SessionID:    res.SessionID,
		FlowID:       body.FlowID,
		ActiveNodeID: res.ActiveNodeID,
		Messages:     nonNil(res.Messages),
		QuickReplies: res.QuickReplies,
	})
}

func (s *Server) send(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body SendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	text, err := s.sanitizer.Sanitize(body.Input)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid input", err)
		return
	}
	if strings.TrimSpace(text) == "" {
		s.fail(w, r, http.StatusBadRequest, "input is required", nil)
		return
	}

	if strings.EqualFold(strings.TrimSpace(text), domain.EndChatLabel) && s.actions.OffersEndChat(r.Context(), id) {
		s.finish(w, r, id, "")
		return
	}
	if _, ok := s.actions.Gateway().FetchSession(r.Context(), id); !ok {
		s.fail(w, r, http.StatusNotFound, "send failed", domain.ErrSessionNotFound)
		return
	}

	res, err := s.actions.Send(r.Context(), conversation.SendRequest{
		SessionID:    id,
		ActiveNodeID: body.ActiveNodeID,
		Input:        text,
	})
	if err != nil {
		s.fail(w, r, statusFor(err), "send failed", err)
		return
	}

	resp := ConversationResponse{
		SessionID:    id,
		ActiveNodeID: res.ActiveNodeID,
		Messages:     nonNil(res.Messages),
		QuickReplies: res.QuickReplies,
	}
	s.broadcast(id, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) end(w http.ResponseWriter, r *http.Request) {
	var body EndRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.fail(w, r, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}
	s.finish(w, r, chi.URLParam(r, "id"), body.FlowID)
}

// finish ends the session and replies with its final history.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, id, flowID string) {
	gw := s.actions.Gateway()
	if _, ok := gw.FetchSession(r.Context(), id); !ok {
		s.fail(w, r, http.StatusNotFound, "end failed", domain.ErrSessionNotFound)
		return
	}
	if err := s.actions.End(r.Context(), id, flowID); err != nil {
		s.fail(w, r, statusFor(err), "end failed", err)
		return
	}

	resp := ConversationResponse{
		SessionID:    id,
		FlowID:       flowID,
		Messages:     nonNil(gw.FetchSessionMessages(r.Context(), id)),
		QuickReplies: []domain.QuickReply{},
		Ended:        true,
	}
	s.broadcast(id, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) replay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.actions.Gateway().FetchSession(r.Context(), id)
	if !ok {
		s.fail(w, r, http.StatusNotFound, "replay failed", domain.ErrSessionNotFound)
		return
	}

	res, err := s.switcher.Switch(r.Context(), id, []conversation.Conversation{{
		ID:     sess.ID,
		FlowID: sess.FlowID,
		Status: sess.Status,
	}})
	if err != nil {
		s.fail(w, r, statusFor(err), "replay failed", err)
		return
	}

	replies := res.QuickReplies
	if replies == nil {
		replies = []domain.QuickReply{}
	}
	s.writeJSON(w, http.StatusOK, ConversationResponse{
		SessionID:    id,
		FlowID:       sess.FlowID,
		ActiveNodeID: res.ActiveNodeID,
		Messages:     nonNil(res.Messages),
		QuickReplies: replies,
		Ended:        sess.Ended(),
	})
}

func (s *Server) sessions(w http.ResponseWriter, r *http.Request) {
	list := s.actions.Gateway().FetchUserSessions(r.Context(), chi.URLParam(r, "actor"))
	if list == nil {
		list = []domain.SessionSummary{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) broadcast(id string, resp ConversationResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("broadcast encode failed", "session_id", id, "err", err)
		return
	}
	s.streams.Broadcast(id, string(payload))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	detail := msg
	if err != nil {
		detail = fmt.Sprintf("%s: %v", msg, err)
	}
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, msg,
		"path", r.URL.Path,
		"status", status,
		"request_id", middleware.GetReqID(r.Context()),
		"err", err,
	)
	s.writeJSON(w, status, map[string]string{"error": detail})
}

// statusFor maps conversation errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrFlowNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, conversation.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoInitialNode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionEnded):
		return http.StatusConflict
	case errors.Is(err, conversation.ErrNotStarted):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionCreate):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func nonNil(msgs []domain.Message) []domain.Message {
	if msgs == nil {
		return []domain.Message{}
	}
	return msgs
}
