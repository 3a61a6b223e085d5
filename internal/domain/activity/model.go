package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProjectCreated ActivityType = "project_created"
	TypeProjectDeleted ActivityType = "project_deleted"
	TypeRoundAdded     ActivityType = "round_added"
	TypeRoundUpdated   ActivityType = "round_updated"
	TypeRoundDeleted   ActivityType = "round_deleted"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ProjectID    string       `json:"project_id"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
