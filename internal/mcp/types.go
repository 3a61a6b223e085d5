package mcp

import (
	"time"

	"github.com/rpggio/tally/internal/domain/activity"
	"github.com/rpggio/tally/internal/domain/ledger"
	"github.com/rpggio/tally/internal/domain/session"
)

type ListProjectsParams struct{}

type CreateProjectParams struct {
	Name    string   `json:"name" jsonschema:"project display name"`
	Members []string `json:"members" jsonschema:"member names in column order (1 to 6, blanks are dropped)"`
}

type SelectProjectParams struct {
	ID string `json:"id" jsonschema:"project identifier"`
}

type DeleteProjectParams struct {
	ID      string `json:"id" jsonschema:"project identifier"`
	Confirm bool   `json:"confirm,omitempty" jsonschema:"must be true to delete"`
}

type GetActiveProjectParams struct{}

type BeginAddRoundParams struct{}

type BeginEditRoundParams struct {
	Index int `json:"index" jsonschema:"zero-based round index"`
}

type PressKeyParams struct {
	Position int    `json:"position" jsonschema:"zero-based member position"`
	Key      string `json:"key" jsonschema:"0-9, sign, backspace or clear"`
}

type GetEntryParams struct {
	Position int `json:"position" jsonschema:"zero-based member position"`
}

type CommitRoundParams struct{}

type CancelRoundEditParams struct{}

type DeleteRoundParams struct {
	Index   int  `json:"index" jsonschema:"zero-based round index"`
	Confirm bool `json:"confirm,omitempty" jsonschema:"must be true to delete"`
}

type GetRecentActivityParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"restrict to one project"`
	Type      string `json:"type,omitempty" jsonschema:"restrict to one activity type"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of entries (default 50)"`
	Offset    int    `json:"offset,omitempty" jsonschema:"entries to skip"`
}

type ProjectSummaryResponse struct {
	ID         string   `json:"id" jsonschema:"project identifier"`
	Name       string   `json:"name" jsonschema:"project name"`
	Members    []string `json:"members" jsonschema:"member names"`
	RoundCount int      `json:"round_count" jsonschema:"number of rounds"`
	UpdatedAt  string   `json:"updated_at" jsonschema:"RFC3339 timestamp of the last change"`
}

type ListProjectsResponse struct {
	Projects []ProjectSummaryResponse `json:"projects" jsonschema:"projects, most recently updated first"`
}

type RoundView struct {
	Index  int     `json:"index" jsonschema:"zero-based round index"`
	Label  string  `json:"label" jsonschema:"display label"`
	Values []int64 `json:"values" jsonschema:"score per member position"`
}

type ProjectView struct {
	ID        string      `json:"id" jsonschema:"project identifier"`
	Name      string      `json:"name" jsonschema:"project name"`
	Members   []string    `json:"members" jsonschema:"member names"`
	Rounds    []RoundView `json:"rounds" jsonschema:"rounds in order"`
	Totals    []int64     `json:"totals" jsonschema:"per-member totals"`
	UpdatedAt string      `json:"updated_at" jsonschema:"RFC3339 timestamp of the last change"`
}

type EntryView struct {
	Position int    `json:"position" jsonschema:"zero-based member position"`
	Member   string `json:"member" jsonschema:"member name"`
	Text     string `json:"text" jsonschema:"composed value as displayed"`
}

type EditView struct {
	Mode    string      `json:"mode" jsonschema:"add or edit"`
	Index   int         `json:"index" jsonschema:"round index being added or edited"`
	Label   string      `json:"label" jsonschema:"round label"`
	Entries []EntryView `json:"entries" jsonschema:"one entry per member"`
}

// SessionView is the caller's view of its controller after a call.
type SessionView struct {
	State   string       `json:"state" jsonschema:"unselected, active or round_editing"`
	Project *ProjectView `json:"project,omitempty" jsonschema:"active project"`
	Edit    *EditView    `json:"edit,omitempty" jsonschema:"open round edit"`
}

type SelectProjectResponse struct {
	Found   bool        `json:"found" jsonschema:"false when no project has that id"`
	Session SessionView `json:"session"`
}

type DeleteResponse struct {
	Deleted bool        `json:"deleted" jsonschema:"false when confirmation was not given"`
	Session SessionView `json:"session"`
}

type EntryResponse struct {
	Position int    `json:"position" jsonschema:"zero-based member position"`
	Text     string `json:"text" jsonschema:"composed value as displayed"`
	Value    int64  `json:"value" jsonschema:"value that will be committed"`
}

type CommitRoundResponse struct {
	Totals  []int64     `json:"totals" jsonschema:"per-member totals after the commit"`
	Session SessionView `json:"session"`
}

type CancelRoundEditResponse struct {
	Cancelled bool        `json:"cancelled" jsonschema:"false when no edit was open"`
	Session   SessionView `json:"session"`
}

type ActivityEntryResponse struct {
	Timestamp string `json:"timestamp" jsonschema:"RFC3339 timestamp"`
	Type      string `json:"type" jsonschema:"activity type"`
	ProjectID string `json:"project_id" jsonschema:"project identifier"`
	Summary   string `json:"summary" jsonschema:"short description"`
	Details   string `json:"details,omitempty" jsonschema:"JSON encoded details"`
}

type RecentActivityResponse struct {
	Entries []ActivityEntryResponse `json:"entries" jsonschema:"newest first"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func summaryResponse(s ledger.ProjectSummary) ProjectSummaryResponse {
	members := s.Members
	if members == nil {
		members = []string{}
	}
	return ProjectSummaryResponse{
		ID:         s.ID,
		Name:       s.Name,
		Members:    members,
		RoundCount: s.RoundCount,
		UpdatedAt:  formatTime(s.UpdatedAt),
	}
}

func projectView(p *ledger.Project) *ProjectView {
	rounds := make([]RoundView, 0, len(p.Rounds))
	for i, r := range p.Rounds {
		values := make([]int64, len(p.Members))
		for pos := range values {
			values[pos] = r.ValueAt(pos)
		}
		rounds = append(rounds, RoundView{Index: i, Label: ledger.RoundLabel(i), Values: values})
	}
	return &ProjectView{
		ID:        p.ID,
		Name:      p.Name,
		Members:   append([]string{}, p.Members...),
		Rounds:    rounds,
		Totals:    p.Totals(),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func sessionView(c *session.Controller) SessionView {
	view := SessionView{State: string(c.State())}
	proj, ok := c.ActiveProject()
	if !ok {
		return view
	}
	view.Project = projectView(proj)

	info, err := c.Edit()
	if err != nil {
		return view
	}
	entries := make([]EntryView, 0, len(info.Entries))
	for pos, text := range info.Entries {
		member := ""
		if pos < len(proj.Members) {
			member = proj.Members[pos]
		}
		entries = append(entries, EntryView{Position: pos, Member: member, Text: text})
	}
	view.Edit = &EditView{
		Mode:    string(info.Mode),
		Index:   info.Index,
		Label:   ledger.RoundLabel(info.Index),
		Entries: entries,
	}
	return view
}

func activityResponse(e activity.ActivityEntry) ActivityEntryResponse {
	return ActivityEntryResponse{
		Timestamp: formatTime(e.CreatedAt),
		Type:      string(e.ActivityType),
		ProjectID: e.ProjectID,
		Summary:   e.Summary,
		Details:   e.Details,
	}
}
