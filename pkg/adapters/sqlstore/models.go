package sqlstore

import "time"

// FlowRecord is the persisted form of domain.Flow.
type FlowRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	Title     string `gorm:"size:256;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FlowRecord) TableName() string { return "flows" }

// NodeRecord is the persisted form of domain.Node.
type NodeRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	FlowID    string `gorm:"size:64;not null;index"`
	Kind      string `gorm:"size:16;not null"`
	Text      string `gorm:"type:text;not null"`
	IsInitial bool   `gorm:"not null"`
}

func (NodeRecord) TableName() string { return "nodes" }

// OptionRecord is the persisted form of domain.Option.
type OptionRecord struct {
	ID         string `gorm:"primaryKey;size:64"`
	FlowID     string `gorm:"size:64;not null;index"`
	FromNodeID string `gorm:"size:64;not null;index"`
	ToNodeID   string `gorm:"size:64;not null"`
	Label      string `gorm:"size:128;not null"`
	Position   int    `gorm:"not null"`
}

func (OptionRecord) TableName() string { return "options" }

// SessionRecord is the persisted form of domain.Session.
type SessionRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	ActorID       string `gorm:"size:64;not null;index"`
	FlowID        string `gorm:"size:64;index"`
	CurrentNodeID string `gorm:"size:64"`
	Status        string `gorm:"size:16;not null;index"` // active, ended
	CreatedAt     time.Time
	UpdatedAt     time.Time `gorm:"index"`
	EndedAt       *time.Time
}

func (SessionRecord) TableName() string { return "sessions" }

// MessageRecord is the persisted form of domain.Message.
type MessageRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	SessionID string    `gorm:"size:36;not null;index:idx_session_order,priority:1"`
	Sequence  int       `gorm:"not null;index:idx_session_order,priority:2"`
	Role      string    `gorm:"size:16;not null"` // user, assistant
	Text      string    `gorm:"type:text;not null"`
	NodeID    string    `gorm:"size:64"`
	CreatedAt time.Time `gorm:"not null"`
}

func (MessageRecord) TableName() string { return "messages" }

// AllModels returns every model managed by the store, for migration.
func AllModels() []interface{} {
	return []interface{}{
		&FlowRecord{},
		&NodeRecord{},
		&OptionRecord{},
		&SessionRecord{},
		&MessageRecord{},
	}
}
