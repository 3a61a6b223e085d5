package repository

import (
	"context"

	"github.com/rpggio/tally/internal/domain/activity"
	"github.com/rpggio/tally/internal/domain/ledger"
)

// ProjectStore persists the full project collection.
// LoadAll degrades corrupt or missing data to an empty collection.
type ProjectStore interface {
	LoadAll(ctx context.Context) ([]ledger.Project, error)
	SaveAll(ctx context.Context, projects []ledger.Project) error
	Remove(ctx context.Context, id string) error
}

// ActivityRepository manages activity log persistence
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
	List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// WithoutProject returns projects minus the one with id, preserving order.
func WithoutProject(projects []ledger.Project, id string) []ledger.Project {
	kept := make([]ledger.Project, 0, len(projects))
	for _, p := range projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return kept
}
