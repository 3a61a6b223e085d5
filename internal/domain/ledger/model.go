package ledger

import (
	"fmt"
	"math"
	"math/big"
	"time"
)

// MaxMembers is the largest roster a project may have.
const MaxMembers = 6

// Round is one scoring event, one value per roster position.
type Round []int64

// Project is a game session: a fixed roster and its ordered rounds.
type Project struct {
	ID        string    `json:"id" cbor:"id"`
	Name      string    `json:"name" cbor:"name"`
	Members   []string  `json:"members" cbor:"members"`
	Rounds    []Round   `json:"rounds" cbor:"rounds"`
	UpdatedAt time.Time `json:"updatedAt" cbor:"updatedAt"`
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Members = append([]string(nil), p.Members...)
	clone.Rounds = make([]Round, len(p.Rounds))
	for i, round := range p.Rounds {
		clone.Rounds[i] = append(Round(nil), round...)
	}
	return &clone
}

// Totals returns the per-member column sums. Missing entries count as 0.
// A sum beyond the int64 range saturates at math.MaxInt64 or math.MinInt64.
func (p *Project) Totals() []int64 {
	totals, _ := columnTotals(len(p.Members), p.Rounds)
	return totals
}

// columnTotals sums each column exactly. overflow is the first member position
// whose total does not fit in int64, or -1.
func columnTotals(members int, rounds []Round) (totals []int64, overflow int) {
	totals = make([]int64, members)
	overflow = -1
	var sum, v big.Int
	for i := range totals {
		sum.SetInt64(0)
		for _, round := range rounds {
			sum.Add(&sum, v.SetInt64(round.ValueAt(i)))
		}
		if sum.IsInt64() {
			totals[i] = sum.Int64()
			continue
		}
		if overflow < 0 {
			overflow = i
		}
		if sum.Sign() > 0 {
			totals[i] = math.MaxInt64
		} else {
			totals[i] = math.MinInt64
		}
	}
	return totals, overflow
}

// ValueAt returns the round's value for a member position, 0 if absent.
func (r Round) ValueAt(position int) int64 {
	if position < 0 || position >= len(r) {
		return 0
	}
	return r[position]
}

// RoundLabel returns the positional label for a round index: R1, R2, ...
func RoundLabel(index int) string {
	return fmt.Sprintf("R%d", index+1)
}

// ProjectSummary is a lightweight representation for listing.
type ProjectSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Members    []string  `json:"members"`
	RoundCount int       `json:"round_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summarize builds a listing summary for the project.
func (p *Project) Summarize() ProjectSummary {
	return ProjectSummary{
		ID:         p.ID,
		Name:       p.Name,
		Members:    append([]string(nil), p.Members...),
		RoundCount: len(p.Rounds),
		UpdatedAt:  p.UpdatedAt,
	}
}
