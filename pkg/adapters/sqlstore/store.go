// Package sqlstore implements the dialog store on a relational database
// through GORM. SQLite and MySQL are supported.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/pressline/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store implements ports.DialogStore and ports.FlowAuthor on GORM.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithClock replaces the store's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New wraps an open GORM connection.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to a database. driver is "sqlite" or "mysql".
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect %s: %w", driver, err)
	}
	if dialector.Name() == "sqlite" && strings.Contains(dsn, ":memory:") {
		// Every pooled connection would otherwise see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlstore: pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db, opts...), nil
}

// AutoMigrate creates or updates all tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("sqlstore: auto-migrate: %w", err)
	}
	return nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveFlow validates a flow and replaces its nodes and options in one
// transaction.
func (s *Store) SaveFlow(ctx context.Context, flow domain.Flow, nodes []domain.Node, options []domain.Option) error {
	if err := domain.ValidateGraph(flow, nodes, options); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := FlowRecord{ID: flow.ID, Title: flow.Title}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "updated_at"}),
		}).Create(&rec).Error; err != nil {
			return fmt.Errorf("upsert flow: %w", err)
		}
		if err := checkOwnership(tx, flow.ID, nodes, options); err != nil {
			return err
		}
		if err := tx.Where("flow_id = ?", flow.ID).Delete(&OptionRecord{}).Error; err != nil {
			return fmt.Errorf("clear options: %w", err)
		}
		if err := tx.Where("flow_id = ?", flow.ID).Delete(&NodeRecord{}).Error; err != nil {
			return fmt.Errorf("clear nodes: %w", err)
		}

		if len(nodes) > 0 {
			recs := make([]NodeRecord, len(nodes))
			for i, n := range nodes {
				recs[i] = NodeRecord{ID: n.ID, FlowID: flow.ID, Kind: string(n.Kind), Text: n.Text, IsInitial: n.IsInitial}
			}
			if err := tx.Create(&recs).Error; err != nil {
				return fmt.Errorf("create nodes: %w", err)
			}
		}
		if len(options) > 0 {
			recs := make([]OptionRecord, len(options))
			for i, o := range options {
				recs[i] = OptionRecord{
					ID: o.ID, FlowID: flow.ID, FromNodeID: o.FromNodeID, ToNodeID: o.ToNodeID,
					Label: o.Label, Position: o.Position,
				}
			}
			if err := tx.Create(&recs).Error; err != nil {
				return fmt.Errorf("create options: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlstore: save flow %q: %w", flow.ID, err)
	}
	return nil
}

func (s *Store) FetchInitialNode(ctx context.Context, flowID string) (domain.Node, error) {
	return s.firstNode(ctx, "flow_id = ? AND is_initial = ?", flowID, true)
}

func (s *Store) FetchEndNode(ctx context.Context, flowID string) (domain.Node, error) {
	return s.firstNode(ctx, "flow_id = ? AND kind = ?", flowID, string(domain.NodeEnd))
}

func (s *Store) FetchNode(ctx context.Context, nodeID string) (domain.Node, error) {
	return s.firstNode(ctx, "id = ?", nodeID)
}

func (s *Store) firstNode(ctx context.Context, query string, args ...interface{}) (domain.Node, error) {
	var rec NodeRecord
	err := s.db.WithContext(ctx).Where(query, args...).Order("id ASC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Node{}, domain.ErrNodeNotFound
	}
	if err != nil {
		return domain.Node{}, fmt.Errorf("sqlstore: fetch node: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *Store) FetchOptions(ctx context.Context, nodeID string) ([]domain.Option, error) {
	var recs []OptionRecord
	err := s.db.WithContext(ctx).
		Where("from_node_id = ?", nodeID).
		Order("position ASC, id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("sqlstore: fetch options for %q: %w", nodeID, err)
	}
	out := make([]domain.Option, len(recs))
	for i, r := range recs {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) CreateSession(ctx context.Context, actorID string) (string, error) {
	now := s.now()
	rec := SessionRecord{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Status:    string(domain.StatusActive),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("sqlstore: create session: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) AttachSessionToFlow(ctx context.Context, sessionID, flowID, nodeID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := findSession(tx, sessionID)
		if err != nil {
			return err
		}
		if sess.FlowID != "" {
			return domain.ErrSessionAttached
		}
		node, err := findNode(tx, nodeID)
		if err != nil {
			return err
		}
		if node.FlowID != flowID {
			return domain.ErrNodeNotInFlow
		}
		return tx.Model(&SessionRecord{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
			"flow_id":         flowID,
			"current_node_id": nodeID,
			"updated_at":      s.now(),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("sqlstore: attach session %q: %w", sessionID, err)
	}
	return nil
}

func (s *Store) FetchSession(ctx context.Context, sessionID string) (domain.Session, error) {
	rec, err := findSession(s.db.WithContext(ctx), sessionID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sqlstore: fetch session %q: %w", sessionID, err)
	}
	return rec.toDomain(), nil
}

func (s *Store) FetchCurrentNode(ctx context.Context, sessionID string) (domain.Node, error) {
	db := s.db.WithContext(ctx)
	sess, err := findSession(db, sessionID)
	if err != nil {
		return domain.Node{}, fmt.Errorf("sqlstore: fetch current node: %w", err)
	}
	node, err := findNode(db, sess.CurrentNodeID)
	if err != nil {
		return domain.Node{}, fmt.Errorf("sqlstore: fetch current node: %w", err)
	}
	return node.toDomain(), nil
}

func (s *Store) UpdateCurrentNode(ctx context.Context, sessionID, nodeID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := findSession(tx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status == string(domain.StatusEnded) {
			return domain.ErrSessionEnded
		}
		node, err := findNode(tx, nodeID)
		if err != nil {
			return err
		}
		if node.FlowID != sess.FlowID {
			return domain.ErrNodeNotInFlow
		}
		res := tx.Model(&SessionRecord{}).
			Where("id = ? AND status = ?", sessionID, string(domain.StatusActive)).
			Updates(map[string]interface{}{
				"current_node_id": nodeID,
				"updated_at":      s.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrSessionEnded
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlstore: update current node of %q: %w", sessionID, err)
	}
	return nil
}

func (s *Store) EndSession(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := findSession(tx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status == string(domain.StatusEnded) {
			return nil
		}
		now := s.now()
		return tx.Model(&SessionRecord{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
			"status":     string(domain.StatusEnded),
			"ended_at":   now,
			"updated_at": now,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("sqlstore: end session %q: %w", sessionID, err)
	}
	return nil
}

func (s *Store) FetchUserSessions(ctx context.Context, actorID string) ([]domain.SessionSummary, error) {
	db := s.db.WithContext(ctx)

	var recs []SessionRecord
	if err := db.Where("actor_id = ?", actorID).Order("updated_at DESC, id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("sqlstore: list sessions of %q: %w", actorID, err)
	}

	flowIDs := make([]string, 0, len(recs))
	for _, r := range recs {
		if r.FlowID != "" {
			flowIDs = append(flowIDs, r.FlowID)
		}
	}
	titles := make(map[string]string)
	if len(flowIDs) > 0 {
		var flows []FlowRecord
		if err := db.Where("id IN ?", flowIDs).Find(&flows).Error; err != nil {
			return nil, fmt.Errorf("sqlstore: load flow titles: %w", err)
		}
		for _, f := range flows {
			titles[f.ID] = f.Title
		}
	}

	out := make([]domain.SessionSummary, len(recs))
	for i, r := range recs {
		out[i] = domain.SessionSummary{
			ID:        r.ID,
			FlowID:    r.FlowID,
			Title:     titles[r.FlowID],
			Status:    domain.SessionStatus(r.Status),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return out, nil
}

// InsertMessage appends a message, assigning the next per-session sequence
// inside a transaction.
func (s *Store) InsertMessage(ctx context.Context, sessionID, text string, role domain.Role, nodeID string) (string, error) {
	rec := MessageRecord{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      string(role),
		Text:      text,
		NodeID:    nodeID,
		CreatedAt: s.now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findSession(tx, sessionID); err != nil {
			return err
		}
		var last int
		if err := tx.Model(&MessageRecord{}).
			Where("session_id = ?", sessionID).
			Select("COALESCE(MAX(sequence), 0)").
			Scan(&last).Error; err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		rec.Sequence = last + 1
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return tx.Model(&SessionRecord{}).Where("id = ?", sessionID).Update("updated_at", rec.CreatedAt).Error
	})
	if err != nil {
		return "", fmt.Errorf("sqlstore: insert message into %q: %w", sessionID, err)
	}
	return rec.ID, nil
}

func (s *Store) FetchSessionMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	var recs []MessageRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, sequence ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("sqlstore: fetch messages of %q: %w", sessionID, err)
	}
	out := make([]domain.Message, len(recs))
	for i, r := range recs {
		out[i] = r.toDomain()
	}
	return out, nil
}

// checkOwnership rejects node and option IDs already stored under another flow.
func checkOwnership(tx *gorm.DB, flowID string, nodes []domain.Node, options []domain.Option) error {
	if len(nodes) > 0 {
		ids := make([]string, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ID
		}
		var taken NodeRecord
		err := tx.Where("id IN ? AND flow_id <> ?", ids, flowID).Limit(1).Find(&taken).Error
		if err != nil {
			return fmt.Errorf("check nodes: %w", err)
		}
		if taken.ID != "" {
			return fmt.Errorf("%w: node %q belongs to flow %q", domain.ErrInvalidFlow, taken.ID, taken.FlowID)
		}
	}
	if len(options) > 0 {
		ids := make([]string, len(options))
		for i, o := range options {
			ids[i] = o.ID
		}
		var taken OptionRecord
		err := tx.Where("id IN ? AND flow_id <> ?", ids, flowID).Limit(1).Find(&taken).Error
		if err != nil {
			return fmt.Errorf("check options: %w", err)
		}
		if taken.ID != "" {
			return fmt.Errorf("%w: option %q belongs to flow %q", domain.ErrInvalidFlow, taken.ID, taken.FlowID)
		}
	}
	return nil
}

func findSession(db *gorm.DB, id string) (SessionRecord, error) {
	var rec SessionRecord
	err := db.Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, domain.ErrSessionNotFound
	}
	return rec, err
}

func findNode(db *gorm.DB, id string) (NodeRecord, error) {
	var rec NodeRecord
	err := db.Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, domain.ErrNodeNotFound
	}
	return rec, err
}

func (r NodeRecord) toDomain() domain.Node {
	return domain.Node{ID: r.ID, FlowID: r.FlowID, Kind: domain.NodeKind(r.Kind), Text: r.Text, IsInitial: r.IsInitial}
}

func (r OptionRecord) toDomain() domain.Option {
	return domain.Option{
		ID: r.ID, FlowID: r.FlowID, FromNodeID: r.FromNodeID, ToNodeID: r.ToNodeID,
		Label: r.Label, Position: r.Position,
	}
}

func (r SessionRecord) toDomain() domain.Session {
	return domain.Session{
		ID:            r.ID,
		ActorID:       r.ActorID,
		FlowID:        r.FlowID,
		Status:        domain.SessionStatus(r.Status),
		CurrentNodeID: r.CurrentNodeID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		EndedAt:       r.EndedAt,
	}
}

func (r MessageRecord) toDomain() domain.Message {
	return domain.Message{
		ID:        r.ID,
		SessionID: r.SessionID,
		Role:      domain.Role(r.Role),
		Text:      r.Text,
		NodeID:    r.NodeID,
		CreatedAt: r.CreatedAt,
		Sequence:  r.Sequence,
	}
}
