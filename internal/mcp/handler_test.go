package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/tally/internal/codec"
	"github.com/rpggio/tally/internal/domain/activity"
	"github.com/rpggio/tally/internal/domain/ledger"
	"github.com/rpggio/tally/internal/domain/session"
	"github.com/rpggio/tally/internal/filestore"
	"github.com/stretchr/testify/require"
)

type activityStub struct {
	listFn func(context.Context, activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

func (a activityStub) GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	return a.listFn(ctx, opts)
}

type failingSource struct{}

func (failingSource) Get(context.Context, string) (*session.Controller, error) {
	return nil, errors.New("store offline")
}

func newTestRegistry(t *testing.T) *session.Registry {
	t.Helper()
	store := filestore.New(filepath.Join(t.TempDir(), "projects.json"), codec.JSON{}, nil)
	return session.NewRegistry(session.Config{Store: store})
}

func call[T any](t *testing.T, h *Handler, sessionID, method string, params any) T {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		raw = mustJSON(t, params)
	}
	result, err := h.Handle(context.Background(), sessionID, method, raw)
	require.NoError(t, err)
	typed, ok := result.(T)
	require.True(t, ok, "unexpected result type %T", result)
	return typed
}

func pressAll(t *testing.T, h *Handler, sessionID string, position int, keys ...string) {
	t.Helper()
	for _, k := range keys {
		call[EntryResponse](t, h, sessionID, "press_key", PressKeyParams{Position: position, Key: k})
	}
}

func TestHandler_PokerNight(t *testing.T) {
	h := NewHandler(newTestRegistry(t), nil)
	const sid = "sess1"

	view := call[SessionView](t, h, sid, "create_project", CreateProjectParams{Name: " Poker Night ", Members: []string{"A", "", "B"}})
	require.Equal(t, "active", view.State)
	require.Equal(t, "Poker Night", view.Project.Name)
	require.Equal(t, []string{"A", "B"}, view.Project.Members)
	require.Empty(t, view.Project.Rounds)

	view = call[SessionView](t, h, sid, "begin_add_round", nil)
	require.Equal(t, "round_editing", view.State)
	require.Equal(t, "R1", view.Edit.Label)
	pressAll(t, h, sid, 0, "1", "0")
	pressAll(t, h, sid, 1, "5", "sign")

	entry := call[EntryResponse](t, h, sid, "get_entry", GetEntryParams{Position: 1})
	require.Equal(t, "-5", entry.Text)
	require.Equal(t, int64(-5), entry.Value)

	commit := call[CommitRoundResponse](t, h, sid, "commit_round", nil)
	require.Equal(t, []int64{10, -5}, commit.Totals)

	call[SessionView](t, h, sid, "begin_add_round", nil)
	pressAll(t, h, sid, 0, "3")
	pressAll(t, h, sid, 1, "3")
	commit = call[CommitRoundResponse](t, h, sid, "commit_round", nil)
	require.Equal(t, []int64{13, -2}, commit.Totals)

	view = call[SessionView](t, h, sid, "begin_edit_round", BeginEditRoundParams{Index: 0})
	require.Equal(t, "edit", view.Edit.Mode)
	require.Equal(t, "10", view.Edit.Entries[0].Text)
	require.Equal(t, "B", view.Edit.Entries[1].Member)
	pressAll(t, h, sid, 0, "clear")
	pressAll(t, h, sid, 1, "clear")
	commit = call[CommitRoundResponse](t, h, sid, "commit_round", nil)
	require.Equal(t, []int64{3, 3}, commit.Totals)

	declined := call[DeleteResponse](t, h, sid, "delete_round", DeleteRoundParams{Index: 1})
	require.False(t, declined.Deleted)
	require.Len(t, declined.Session.Project.Rounds, 2)

	deleted := call[DeleteResponse](t, h, sid, "delete_round", DeleteRoundParams{Index: 1, Confirm: true})
	require.True(t, deleted.Deleted)
	require.Equal(t, []int64{0, 0}, deleted.Session.Project.Totals)
	require.Len(t, deleted.Session.Project.Rounds, 1)

	list := call[ListProjectsResponse](t, h, "other", "list_projects", nil)
	require.Len(t, list.Projects, 1)
	require.Equal(t, 1, list.Projects[0].RoundCount)
}

func TestHandler_SessionsAreIndependent(t *testing.T) {
	h := NewHandler(newTestRegistry(t), nil)

	created := call[SessionView](t, h, "a", "create_project", CreateProjectParams{Name: "Game", Members: []string{"X"}})
	call[SessionView](t, h, "a", "begin_add_round", nil)

	other := call[SessionView](t, h, "b", "get_active_project", nil)
	require.Equal(t, "unselected", other.State)
	require.Nil(t, other.Project)

	selected := call[SelectProjectResponse](t, h, "b", "select_project", SelectProjectParams{ID: created.Project.ID})
	require.True(t, selected.Found)
	require.Equal(t, "active", selected.Session.State)

	again := call[SessionView](t, h, "a", "get_active_project", nil)
	require.Equal(t, "round_editing", again.State)

	missing := call[SelectProjectResponse](t, h, "b", "select_project", SelectProjectParams{ID: "nope"})
	require.False(t, missing.Found)
	require.Equal(t, created.Project.ID, missing.Session.Project.ID)
}

func TestHandler_DeleteProject(t *testing.T) {
	h := NewHandler(newTestRegistry(t), nil)
	created := call[SessionView](t, h, "", "create_project", CreateProjectParams{Name: "Game", Members: []string{"X"}})

	declined := call[DeleteResponse](t, h, "", "delete_project", DeleteProjectParams{ID: created.Project.ID})
	require.False(t, declined.Deleted)
	require.Equal(t, "active", declined.Session.State)

	deleted := call[DeleteResponse](t, h, "", "delete_project", DeleteProjectParams{ID: created.Project.ID, Confirm: true})
	require.True(t, deleted.Deleted)
	require.Equal(t, "unselected", deleted.Session.State)

	list := call[ListProjectsResponse](t, h, "", "list_projects", nil)
	require.Empty(t, list.Projects)
}

func TestHandler_ErrorMapping(t *testing.T) {
	ctx := context.Background()
	h := NewHandler(newTestRegistry(t), nil)

	tests := []struct {
		name   string
		setup  func()
		method string
		params any
		code   string
	}{
		{name: "validation", method: "create_project", params: CreateProjectParams{Name: "", Members: []string{"A"}}, code: "VALIDATION_ERROR"},
		{name: "too many members", method: "create_project", params: CreateProjectParams{Name: "G", Members: []string{"1", "2", "3", "4", "5", "6", "7"}}, code: "VALIDATION_ERROR"},
		{name: "no active project", method: "begin_add_round", code: "NO_ACTIVE_PROJECT"},
		{
			name: "round range",
			setup: func() {
				_, err := h.Handle(ctx, "", "create_project", mustJSON(t, CreateProjectParams{Name: "G", Members: []string{"A"}}))
				require.NoError(t, err)
			},
			method: "begin_edit_round", params: BeginEditRoundParams{Index: 3}, code: "RANGE_ERROR",
		},
		{name: "not editing", method: "commit_round", code: "NOT_EDITING"},
		{
			name: "position range",
			setup: func() {
				_, err := h.Handle(ctx, "", "begin_add_round", nil)
				require.NoError(t, err)
			},
			method: "press_key", params: PressKeyParams{Position: 4, Key: "1"}, code: "RANGE_ERROR",
		},
		{name: "unknown key", method: "press_key", params: PressKeyParams{Position: 0, Key: "x"}, code: "VALIDATION_ERROR"},
		{name: "edit in progress", method: "delete_round", params: DeleteRoundParams{Index: 0, Confirm: true}, code: "EDIT_IN_PROGRESS"},
		{name: "unknown method", method: "get_project_overview", code: "UNKNOWN_METHOD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			var raw json.RawMessage
			if tt.params != nil {
				raw = mustJSON(t, tt.params)
			}
			_, err := h.Handle(ctx, "", tt.method, raw)
			require.Error(t, err)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestHandler_InvalidParams(t *testing.T) {
	h := NewHandler(newTestRegistry(t), nil)

	_, err := h.Handle(context.Background(), "", "begin_edit_round", json.RawMessage(`{"index":"first"}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_PARAMS", apiErr.Code)
	require.Equal(t, rpcInvalidParams, apiErr.RPCCode())
}

func TestHandler_SessionFailure(t *testing.T) {
	h := NewHandler(failingSource{}, nil)

	_, err := h.Handle(context.Background(), "", "list_projects", nil)
	require.ErrorContains(t, err, "store offline")
	require.Nil(t, MapError(err))
}

func TestHandler_RecentActivity(t *testing.T) {
	var got activity.ListActivityOptions
	stub := activityStub{listFn: func(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
		got = opts
		return []activity.ActivityEntry{{
			ProjectID:    "p1",
			ActivityType: activity.TypeRoundAdded,
			Summary:      "Added R1",
			CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}}, nil
	}}
	h := NewHandler(newTestRegistry(t), stub)

	resp := call[RecentActivityResponse](t, h, "", "get_recent_activity", GetRecentActivityParams{ProjectID: "p1", Type: "round_added", Limit: 5})
	require.Len(t, resp.Entries, 1)
	require.Equal(t, "round_added", resp.Entries[0].Type)
	require.Equal(t, "2026-03-01T12:00:00Z", resp.Entries[0].Timestamp)
	require.Equal(t, "p1", got.ProjectID)
	require.Equal(t, 5, got.Limit)
	require.NotNil(t, got.ActivityType)
	require.Equal(t, activity.TypeRoundAdded, *got.ActivityType)

	empty := call[RecentActivityResponse](t, NewHandler(newTestRegistry(t), nil), "", "get_recent_activity", nil)
	require.NotNil(t, empty.Entries)
	require.Empty(t, empty.Entries)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestMapError_TotalOverflow(t *testing.T) {
	apiErr := MapError(fmt.Errorf("committing: %w", ledger.ErrTotalOverflow))
	require.NotNil(t, apiErr)
	require.Equal(t, "RANGE_ERROR", apiErr.Code)
	require.Equal(t, -32602, apiErr.RPCCode())

	require.Nil(t, MapError(errors.New("disk full")))
}
