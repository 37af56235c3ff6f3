package models

import "time"

// SystemActorName is recorded for automated transitions.
const SystemActorName = "System"

// ActivityLogEntry is one immutable record in a submission's history. Entries
// are ordered ascending by created_at (entry_id as tiebreak); that ordering
// is the canonical history. The submission's current status always equals the
// to_status of its most recent entry.
type ActivityLogEntry struct {
	EntryID      int       `gorm:"primaryKey;column:entry_id" json:"entry_id"`
	SubmissionID int       `gorm:"column:submission_id;index" json:"submission_id"`
	EventType    string    `gorm:"column:event_type" json:"event_type"`
	FromStatus   string    `gorm:"column:from_status" json:"from_status"`
	ToStatus     string    `gorm:"column:to_status" json:"to_status"`
	ActorID      *int      `gorm:"column:actor_id" json:"actor_id,omitempty"`
	ActorName    string    `gorm:"column:actor_name" json:"actor_name"`
	ActorRole    string    `gorm:"column:actor_role" json:"actor_role"`
	Description  *string   `gorm:"column:description" json:"description,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the table name for ActivityLogEntry
func (ActivityLogEntry) TableName() string {
	return "activity_log"
}
