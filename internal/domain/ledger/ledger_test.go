package ledger_test

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rpggio/tally/internal/domain/ledger"
	"github.com/stretchr/testify/require"
)

func newTestLedger() *ledger.Ledger {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	seq := 0
	return ledger.New(
		ledger.WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
		ledger.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("p%d", seq)
		}),
	)
}

func TestLedger_CreateProject(t *testing.T) {
	l := newTestLedger()

	for n := 1; n <= ledger.MaxMembers; n++ {
		members := make([]string, n)
		for i := range members {
			members[i] = fmt.Sprintf("m%d", i)
		}
		proj, err := l.CreateProject("Game", members)
		require.NoError(t, err)
		require.NotEmpty(t, proj.ID)
		require.Empty(t, proj.Rounds)
		require.Len(t, proj.Members, n)
		require.False(t, proj.UpdatedAt.IsZero())
	}
}

func TestLedger_CreateProjectTrims(t *testing.T) {
	l := newTestLedger()

	proj, err := l.CreateProject("  Poker Night ", []string{" A", "", "  ", "B "})
	require.NoError(t, err)
	require.Equal(t, "Poker Night", proj.Name)
	require.Equal(t, []string{"A", "B"}, proj.Members)
}

func TestLedger_CreateProjectValidation(t *testing.T) {
	l := newTestLedger()

	tests := []struct {
		name    string
		project string
		members []string
		err     error
	}{
		{name: "empty name", project: "   ", members: []string{"A"}, err: ledger.ErrEmptyName},
		{name: "no members", project: "Game", members: nil, err: ledger.ErrNoMembers},
		{name: "blank members", project: "Game", members: []string{" ", ""}, err: ledger.ErrNoMembers},
		{name: "too many", project: "Game", members: []string{"1", "2", "3", "4", "5", "6", "7"}, err: ledger.ErrTooManyMembers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj, err := l.CreateProject(tt.project, tt.members)
			require.Nil(t, proj)
			require.ErrorIs(t, err, tt.err)
			require.ErrorIs(t, err, ledger.ErrInvalidInput)
		})
	}
}

func TestLedger_TotalsAreColumnSums(t *testing.T) {
	l := newTestLedger()
	proj, err := l.CreateProject("Game", []string{"A", "B", "C"})
	require.NoError(t, err)

	l.AddRound(proj, []int64{1, 2, 3})
	l.AddRound(proj, []int64{-4, 5})
	l.AddRound(proj, []int64{10, 0, -30})

	require.Equal(t, []int64{7, 7, -27}, l.ComputeTotals(proj))
	// Short rounds are stored as given.
	require.Len(t, proj.Rounds[1], 2)
}

func TestLedger_UpdateRound(t *testing.T) {
	l := newTestLedger()
	proj, err := l.CreateProject("Game", []string{"A", "B"})
	require.NoError(t, err)
	l.AddRound(proj, []int64{1, 1})
	l.AddRound(proj, []int64{2, 2})
	before := proj.UpdatedAt

	require.NoError(t, l.UpdateRound(proj, 0, []int64{5, -5}))
	require.Equal(t, ledger.Round{5, -5}, proj.Rounds[0])
	require.Equal(t, ledger.Round{2, 2}, proj.Rounds[1])
	require.Equal(t, []int64{7, -3}, proj.Totals())
	require.True(t, proj.UpdatedAt.After(before))

	require.ErrorIs(t, l.UpdateRound(proj, 2, []int64{0, 0}), ledger.ErrRoundOutOfRange)
	require.ErrorIs(t, l.UpdateRound(proj, -1, []int64{0, 0}), ledger.ErrRoundOutOfRange)
}

func TestLedger_DeleteRoundShifts(t *testing.T) {
	l := newTestLedger()
	proj, err := l.CreateProject("Game", []string{"A"})
	require.NoError(t, err)
	for i := int64(1); i <= 4; i++ {
		l.AddRound(proj, []int64{i})
	}

	require.NoError(t, l.DeleteRound(proj, 1))
	require.Equal(t, []ledger.Round{{1}, {3}, {4}}, proj.Rounds)
	require.Equal(t, []int64{8}, proj.Totals())

	require.ErrorIs(t, l.DeleteRound(proj, 3), ledger.ErrRoundOutOfRange)
	require.Len(t, proj.Rounds, 3)
}

func TestLedger_PokerNightScenario(t *testing.T) {
	l := newTestLedger()
	proj, err := l.CreateProject("Poker Night", []string{"A", "B"})
	require.NoError(t, err)

	l.AddRound(proj, []int64{10, -5})
	l.AddRound(proj, []int64{3, 3})
	require.Equal(t, []int64{13, -2}, proj.Totals())

	require.NoError(t, l.UpdateRound(proj, 0, []int64{0, 0}))
	require.Equal(t, []int64{3, 3}, proj.Totals())

	require.NoError(t, l.DeleteRound(proj, 1))
	require.Equal(t, []int64{0, 0}, proj.Totals())
	require.Len(t, proj.Rounds, 1)
}

func TestProject_CloneIsDeep(t *testing.T) {
	l := newTestLedger()
	proj, err := l.CreateProject("Game", []string{"A", "B"})
	require.NoError(t, err)
	l.AddRound(proj, []int64{1, 2})

	clone := proj.Clone()
	clone.Members[0] = "Z"
	clone.Rounds[0][0] = 99
	l.AddRound(clone, []int64{3, 4})

	require.Equal(t, "A", proj.Members[0])
	require.Equal(t, int64(1), proj.Rounds[0][0])
	require.Len(t, proj.Rounds, 1)
}

func TestRoundLabel(t *testing.T) {
	require.Equal(t, "R1", ledger.RoundLabel(0))
	require.Equal(t, "R12", ledger.RoundLabel(11))
}

func TestLedger_TotalOverflowIsRejected(t *testing.T) {
	l := newTestLedger()
	proj, err := l.CreateProject("Marathon", []string{"A", "B"})
	require.NoError(t, err)

	const maxEntry = 999999999999999999
	for i := 0; i < 9; i++ {
		require.NoError(t, l.AddRound(proj, []int64{maxEntry, -maxEntry}))
	}
	require.Equal(t, []int64{9 * maxEntry, -9 * maxEntry}, proj.Totals())
	stamp := proj.UpdatedAt

	err = l.AddRound(proj, []int64{maxEntry, 0})
	require.ErrorIs(t, err, ledger.ErrTotalOverflow)
	require.ErrorContains(t, err, "member 0")
	require.Len(t, proj.Rounds, 9)
	require.Equal(t, stamp, proj.UpdatedAt)

	require.ErrorIs(t, l.AddRound(proj, []int64{0, -maxEntry}), ledger.ErrTotalOverflow)
	require.ErrorIs(t, l.UpdateRound(proj, 0, []int64{maxEntry, math.MinInt64}), ledger.ErrTotalOverflow)
	require.Equal(t, ledger.Round{maxEntry, -maxEntry}, proj.Rounds[0])

	// An order-independent exact sum accepts changes whose final totals fit.
	require.NoError(t, l.AddRound(proj, []int64{-maxEntry, maxEntry}))
	require.NoError(t, l.AddRound(proj, []int64{maxEntry, -maxEntry}))
	require.Equal(t, []int64{9 * maxEntry, -9 * maxEntry}, proj.Totals())
}

func TestLedger_DeleteRoundOverflowIsRejected(t *testing.T) {
	l := newTestLedger()
	proj, err := l.CreateProject("Game", []string{"A"})
	require.NoError(t, err)
	require.NoError(t, l.AddRound(proj, []int64{math.MaxInt64}))
	require.NoError(t, l.AddRound(proj, []int64{-5}))
	require.NoError(t, l.AddRound(proj, []int64{3}))

	require.ErrorIs(t, l.DeleteRound(proj, 1), ledger.ErrTotalOverflow)
	require.Len(t, proj.Rounds, 3)
	require.NoError(t, l.DeleteRound(proj, 0))
	require.Equal(t, []int64{-2}, proj.Totals())
}

func TestProject_TotalsSaturate(t *testing.T) {
	proj := &ledger.Project{
		Members: []string{"A", "B", "C"},
		Rounds:  []ledger.Round{{math.MaxInt64, math.MinInt64, math.MaxInt64}, {1, -1, 1}, {0, 0, -1}},
	}
	require.Equal(t, []int64{math.MaxInt64, math.MinInt64, math.MaxInt64}, proj.Totals())
}
