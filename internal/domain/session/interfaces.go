package session

import (
	"context"

	"github.com/rpggio/tally/internal/domain/activity"
	"github.com/rpggio/tally/internal/domain/ledger"
)

// Store persists the full project collection.
type Store interface {
	LoadAll(ctx context.Context) ([]ledger.Project, error)
	SaveAll(ctx context.Context, projects []ledger.Project) error
	Remove(ctx context.Context, id string) error
}

// Confirmer approves destructive commands. Declining makes the command a no-op.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ActivityLogger records committed mutations.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
