package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/pressline/pkg/domain"
	"github.com/google/uuid"
)

// Store implements ports.DialogStore and ports.FlowAuthor in memory.
// Safe for concurrent use. Every contract call is counted so tests can
// assert which paths touch the store.
type Store struct {
	mu sync.RWMutex

	flows    map[string]domain.Flow
	nodes    map[string]domain.Node
	options  map[string][]domain.Option // by origin node
	sessions map[string]*domain.Session
	messages map[string][]domain.Message // by session

	calls map[string]int
	now   func() time.Time

	// Fail, when set, is consulted before every contract call. A non-nil
	// return is handed back to the caller instead of running the call.
	Fail func(op string) error
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		flows:    make(map[string]domain.Flow),
		nodes:    make(map[string]domain.Node),
		options:  make(map[string][]domain.Option),
		sessions: make(map[string]*domain.Session),
		messages: make(map[string][]domain.Message),
		calls:    make(map[string]int),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the store's time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Calls returns the total number of contract calls served.
func (s *Store) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// CallsTo returns the number of calls served for one operation.
func (s *Store) CallsTo(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// enter counts the call and applies the failure hook. Callers hold s.mu.
func (s *Store) enter(op string) error {
	s.calls[op]++
	if s.Fail != nil {
		return s.Fail(op)
	}
	return nil
}

// SaveFlow replaces a flow definition. It is not counted as a contract call.
func (s *Store) SaveFlow(ctx context.Context, flow domain.Flow, nodes []domain.Node, options []domain.Option) error {
	if err := domain.ValidateGraph(flow, nodes, options); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwnership(flow.ID, nodes, options); err != nil {
		return err
	}

	for id, n := range s.nodes {
		if n.FlowID == flow.ID {
			delete(s.nodes, id)
			delete(s.options, id)
		}
	}
	s.flows[flow.ID] = flow
	for _, n := range nodes {
		n.FlowID = flow.ID
		s.nodes[n.ID] = n
	}
	for _, o := range options {
		o.FlowID = flow.ID
		s.options[o.FromNodeID] = append(s.options[o.FromNodeID], o)
	}
	for from := range s.options {
		opts := s.options[from]
		sort.SliceStable(opts, func(i, j int) bool {
			if opts[i].Position != opts[j].Position {
				return opts[i].Position < opts[j].Position
			}
			return opts[i].ID < opts[j].ID
		})
	}
	return nil
}

// checkOwnership rejects node and option IDs already stored under another
// flow. Callers hold s.mu.
func (s *Store) checkOwnership(flowID string, nodes []domain.Node, options []domain.Option) error {
	for _, n := range nodes {
		if prev, ok := s.nodes[n.ID]; ok && prev.FlowID != flowID {
			return fmt.Errorf("%w: node %q belongs to flow %q", domain.ErrInvalidFlow, n.ID, prev.FlowID)
		}
	}
	owner := make(map[string]string)
	for _, opts := range s.options {
		for _, o := range opts {
			owner[o.ID] = o.FlowID
		}
	}
	for _, o := range options {
		if prev, ok := owner[o.ID]; ok && prev != flowID {
			return fmt.Errorf("%w: option %q belongs to flow %q", domain.ErrInvalidFlow, o.ID, prev)
		}
	}
	return nil
}

func (s *Store) FetchInitialNode(ctx context.Context, flowID string) (domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FetchInitialNode"); err != nil {
		return domain.Node{}, err
	}
	return s.findNode(flowID, func(n domain.Node) bool { return n.IsInitial })
}

func (s *Store) FetchEndNode(ctx context.Context, flowID string) (domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FetchEndNode"); err != nil {
		return domain.Node{}, err
	}
	return s.findNode(flowID, func(n domain.Node) bool { return n.Kind == domain.NodeEnd })
}

// findNode scans in ID order so results are deterministic.
func (s *Store) findNode(flowID string, match func(domain.Node) bool) (domain.Node, error) {
	ids := make([]string, 0, len(s.nodes))
	for id, n := range s.nodes {
		if n.FlowID == flowID && match(n) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return domain.Node{}, domain.ErrNodeNotFound
	}
	sort.Strings(ids)
	return s.nodes[ids[0]], nil
}

func (s *Store) FetchNode(ctx context.Context, nodeID string) (domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FetchNode"); err != nil {
		return domain.Node{}, err
	}
	n, ok := s.nodes[nodeID]
	if !ok {
		return domain.Node{}, domain.ErrNodeNotFound
	}
	return n, nil
}

func (s *Store) FetchOptions(ctx context.Context, nodeID string) ([]domain.Option, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FetchOptions"); err != nil {
		return nil, err
	}
	opts := s.options[nodeID]
	out := make([]domain.Option, len(opts))
	copy(out, opts)
	return out, nil
}

func (s *Store) CreateSession(ctx context.Context, actorID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateSession"); err != nil {
		return "", err
	}
	now := s.now()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess
	return sess.ID, nil
}

func (s *Store) AttachSessionToFlow(ctx context.Context, sessionID, flowID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("AttachSessionToFlow"); err != nil {
		return err
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if sess.FlowID != "" {
		return domain.ErrSessionAttached
	}
	n, ok := s.nodes[nodeID]
	if !ok {
		return domain.ErrNodeNotFound
	}
	if n.FlowID != flowID {
		return domain.ErrNodeNotInFlow
	}
	sess.FlowID = flowID
	sess.CurrentNodeID = nodeID
	sess.UpdatedAt = s.now()
	return nil
}

func (s *Store) FetchSession(ctx context.Context, sessionID string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FetchSession"); err != nil {
		return domain.Session{}, err
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return *sess, nil
}

func (s *Store) FetchCurrentNode(ctx context.Context, sessionID string) (domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FetchCurrentNode"); err != nil {
		return domain.Node{}, err
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.Node{}, domain.ErrSessionNotFound
	}
	n, ok := s.nodes[sess.CurrentNodeID]
	if !ok {
		return domain.Node{}, domain.ErrNodeNotFound
	}
	return n, nil
}

func (s *Store) UpdateCurrentNode(ctx context.Context, sessionID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateCurrentNode"); err != nil {
		return err
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if sess.Ended() {
		return domain.ErrSessionEnded
	}
	n, ok := s.nodes[nodeID]
	if !ok {
		return domain.ErrNodeNotFound
	}
	if n.FlowID != sess.FlowID {
		return domain.ErrNodeNotInFlow
	}
	sess.CurrentNodeID = nodeID
	sess.UpdatedAt = s.now()
	return nil
}

func (s *Store) EndSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("EndSession"); err != nil {
		return err
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if sess.Ended() {
		return nil
	}
	now := s.now()
	sess.Status = domain.StatusEnded
	sess.EndedAt = &now
	sess.UpdatedAt = now
	return nil
}

func (s *Store) FetchUserSessions(ctx context.Context, actorID string) ([]domain.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FetchUserSessions"); err != nil {
		return nil, err
	}
	out := []domain.SessionSummary{}
	for _, sess := range s.sessions {
		if sess.ActorID != actorID {
			continue
		}
		out = append(out, domain.SessionSummary{
			ID:        sess.ID,
			FlowID:    sess.FlowID,
			Title:     s.flows[sess.FlowID].Title,
			Status:    sess.Status,
			UpdatedAt: sess.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) InsertMessage(ctx context.Context, sessionID, text string, role domain.Role, nodeID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertMessage"); err != nil {
		return "", err
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	msgs := s.messages[sessionID]
	m := domain.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		NodeID:    nodeID,
		CreatedAt: s.now(),
		Sequence:  len(msgs) + 1,
	}
	s.messages[sessionID] = append(msgs, m)
	sess.UpdatedAt = m.CreatedAt
	return m.ID, nil
}

func (s *Store) FetchSessionMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FetchSessionMessages"); err != nil {
		return nil, err
	}
	msgs := s.messages[sessionID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
