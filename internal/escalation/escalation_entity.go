package escalation

import (
	"time"

	"github.com/google/uuid"
)

// Actor labels used in history entries. Entries flow system -> oracle
// while the oracle is being consulted, then oracle -> manager when the
// verdict is a hand-off.
const (
	ActorSystem  = "system"
	ActorOracle  = "oracle"
	ActorManager = "manager"
)

// Resolutions for closed entries.
const (
	ResolutionApproved  = "approved"
	ResolutionManual    = "manual"
	ResolutionCancelled = "cancelled"
)

type HistoryEntry struct {
	ID         uuid.UUID  `gorm:"column:id;primaryKey" json:"id"`
	RequestID  uuid.UUID  `gorm:"column:request_id" json:"request_id"`
	Level      int        `gorm:"column:level" json:"level"`
	FromActor  string     `gorm:"column:from_actor" json:"from_actor"`
	ToActor    string     `gorm:"column:to_actor" json:"to_actor"`
	Reason     string     `gorm:"column:reason" json:"reason"`
	Resolved   bool       `gorm:"column:resolved" json:"resolved"`
	Resolution *string    `gorm:"column:resolution" json:"resolution,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"created_at"`
	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

func (HistoryEntry) TableName() string {
	return "escalation_history"
}
