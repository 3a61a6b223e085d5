package session

// State is the controller's position in the selection/editing lifecycle.
type State string

const (
	StateUnselected   State = "unselected"
	StateActive       State = "active"
	StateRoundEditing State = "round_editing"
)

// EditMode says whether a round edit appends a new round or replaces one.
type EditMode string

const (
	ModeAdd  EditMode = "add"
	ModeEdit EditMode = "edit"
)

// EventKind names what changed after a successful command.
type EventKind string

const (
	EventProjectsChanged      EventKind = "projects_changed"
	EventActiveProjectChanged EventKind = "active_project_changed"
	EventRoundsChanged        EventKind = "rounds_changed"
	EventEntryChanged         EventKind = "entry_changed"
)

// Event is delivered to subscribers after the controller lock is released.
type Event struct {
	Kind      EventKind `json:"kind"`
	ProjectID string    `json:"project_id,omitempty"`
}

// Listener receives controller events.
type Listener func(Event)

// EditInfo describes the open round-entry episode.
type EditInfo struct {
	Mode    EditMode `json:"mode"`
	Index   int      `json:"index"`
	Entries []string `json:"entries"`
}
