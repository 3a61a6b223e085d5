package ledger

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ledger creates projects and applies round mutations to them.
// It holds no projects itself; callers own the Project values.
type Ledger struct {
	now   func() time.Time
	newID func() string
}

// New creates a Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateProject validates the inputs and returns a project with no rounds.
func (l *Ledger) CreateProject(name string, members []string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	roster := make([]string, 0, len(members))
	for _, m := range members {
		if m = strings.TrimSpace(m); m != "" {
			roster = append(roster, m)
		}
	}
	if len(roster) == 0 {
		return nil, ErrNoMembers
	}
	if len(roster) > MaxMembers {
		return nil, ErrTooManyMembers
	}

	return &Project{
		ID:        l.newID(),
		Name:      name,
		Members:   roster,
		Rounds:    []Round{},
		UpdatedAt: l.now(),
	}, nil
}

// AddRound appends values as a new round. It returns ErrTotalOverflow, leaving
// p unchanged, when a member total would leave the int64 range.
func (l *Ledger) AddRound(p *Project, values []int64) error {
	next := append(p.Rounds[:len(p.Rounds):len(p.Rounds)], append(Round(nil), values...))
	return l.apply(p, next)
}

// UpdateRound replaces the round at index.
func (l *Ledger) UpdateRound(p *Project, index int, values []int64) error {
	if err := checkIndex(p, index); err != nil {
		return err
	}
	next := slices.Clone(p.Rounds)
	next[index] = append(Round(nil), values...)
	return l.apply(p, next)
}

// DeleteRound removes the round at index; later rounds shift down one position.
func (l *Ledger) DeleteRound(p *Project, index int) error {
	if err := checkIndex(p, index); err != nil {
		return err
	}
	return l.apply(p, slices.Delete(slices.Clone(p.Rounds), index, index+1))
}

// apply installs rounds on p when every member total still fits in int64.
func (l *Ledger) apply(p *Project, rounds []Round) error {
	if _, pos := columnTotals(len(p.Members), rounds); pos >= 0 {
		return fmt.Errorf("%w: member %d", ErrTotalOverflow, pos)
	}
	p.Rounds = rounds
	p.UpdatedAt = l.now()
	return nil
}

// ComputeTotals returns the per-member totals of p.
func (l *Ledger) ComputeTotals(p *Project) []int64 {
	return p.Totals()
}

func checkIndex(p *Project, index int) error {
	if index < 0 || index >= len(p.Rounds) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrRoundOutOfRange, index, len(p.Rounds))
	}
	return nil
}
