package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rpggio/tally/internal/domain/activity"
	"github.com/rpggio/tally/internal/domain/entry"
	"github.com/rpggio/tally/internal/domain/session"
)

// ControllerSource hands out the controller for a client session.
type ControllerSource interface {
	Get(ctx context.Context, key string) (*session.Controller, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Handler dispatches tool calls to the session's controller.
type Handler struct {
	sessions ControllerSource
	activity ActivityService
}

// NewHandler creates a new MCP handler. activitySvc may be nil.
func NewHandler(sessions ControllerSource, activitySvc ActivityService) *Handler {
	return &Handler{sessions: sessions, activity: activitySvc}
}

// Handle dispatches a method by name with JSON params.
func (h *Handler) Handle(ctx context.Context, sessionID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "list_projects":
		return h.ListProjects(ctx, sessionID)
	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.CreateProject(ctx, sessionID, req)
	case "select_project":
		var req SelectProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.SelectProject(ctx, sessionID, req)
	case "delete_project":
		var req DeleteProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.DeleteProject(ctx, sessionID, req)
	case "get_active_project":
		return h.GetActiveProject(ctx, sessionID)
	case "begin_add_round":
		return h.BeginAddRound(ctx, sessionID)
	case "begin_edit_round":
		var req BeginEditRoundParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.BeginEditRound(ctx, sessionID, req)
	case "press_key":
		var req PressKeyParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.PressKey(ctx, sessionID, req)
	case "get_entry":
		var req GetEntryParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.GetEntry(ctx, sessionID, req)
	case "commit_round":
		return h.CommitRound(ctx, sessionID)
	case "cancel_round_edit":
		return h.CancelRoundEdit(ctx, sessionID)
	case "delete_round":
		var req DeleteRoundParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.DeleteRound(ctx, sessionID, req)
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.GetRecentActivity(ctx, req)
	default:
		return nil, mapError(fmt.Errorf("%w: %s", ErrUnknownMethod, method))
	}
}

func (h *Handler) controller(ctx context.Context, sessionID string) (*session.Controller, error) {
	c, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	return c, nil
}

func (h *Handler) ListProjects(ctx context.Context, sessionID string) (ListProjectsResponse, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return ListProjectsResponse{}, err
	}
	if err := c.Refresh(ctx); err != nil {
		return ListProjectsResponse{}, err
	}
	summaries := c.ProjectList()
	resp := ListProjectsResponse{Projects: make([]ProjectSummaryResponse, 0, len(summaries))}
	for _, s := range summaries {
		resp.Projects = append(resp.Projects, summaryResponse(s))
	}
	return resp, nil
}

func (h *Handler) CreateProject(ctx context.Context, sessionID string, req CreateProjectParams) (SessionView, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if _, err := c.CreateProject(ctx, req.Name, req.Members); err != nil {
		return SessionView{}, mapError(err)
	}
	return sessionView(c), nil
}

func (h *Handler) SelectProject(ctx context.Context, sessionID string, req SelectProjectParams) (SelectProjectResponse, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return SelectProjectResponse{}, err
	}
	found, err := c.SelectProject(ctx, req.ID)
	if err != nil {
		return SelectProjectResponse{}, mapError(err)
	}
	return SelectProjectResponse{Found: found, Session: sessionView(c)}, nil
}

func (h *Handler) DeleteProject(ctx context.Context, sessionID string, req DeleteProjectParams) (DeleteResponse, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return DeleteResponse{}, err
	}
	deleted, err := c.DeleteProject(session.WithConfirmation(ctx, req.Confirm), req.ID)
	if err != nil {
		return DeleteResponse{}, mapError(err)
	}
	return DeleteResponse{Deleted: deleted, Session: sessionView(c)}, nil
}

func (h *Handler) GetActiveProject(ctx context.Context, sessionID string) (SessionView, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return sessionView(c), nil
}

func (h *Handler) BeginAddRound(ctx context.Context, sessionID string) (SessionView, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := c.BeginAddRound(); err != nil {
		return SessionView{}, mapError(err)
	}
	return sessionView(c), nil
}

func (h *Handler) BeginEditRound(ctx context.Context, sessionID string, req BeginEditRoundParams) (SessionView, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := c.BeginEditRound(req.Index); err != nil {
		return SessionView{}, mapError(err)
	}
	return sessionView(c), nil
}

func (h *Handler) PressKey(ctx context.Context, sessionID string, req PressKeyParams) (EntryResponse, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return EntryResponse{}, err
	}
	if err := pressKey(c, req.Position, req.Key); err != nil {
		return EntryResponse{}, mapError(err)
	}
	return entryResponse(c, req.Position)
}

func (h *Handler) GetEntry(ctx context.Context, sessionID string, req GetEntryParams) (EntryResponse, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return EntryResponse{}, err
	}
	return entryResponse(c, req.Position)
}

func (h *Handler) CommitRound(ctx context.Context, sessionID string) (CommitRoundResponse, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return CommitRoundResponse{}, err
	}
	totals, err := c.CommitRound(ctx)
	if err != nil {
		return CommitRoundResponse{}, mapError(err)
	}
	return CommitRoundResponse{Totals: totals, Session: sessionView(c)}, nil
}

func (h *Handler) CancelRoundEdit(ctx context.Context, sessionID string) (CancelRoundEditResponse, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return CancelRoundEditResponse{}, err
	}
	cancelled := c.CancelRoundEdit()
	return CancelRoundEditResponse{Cancelled: cancelled, Session: sessionView(c)}, nil
}

func (h *Handler) DeleteRound(ctx context.Context, sessionID string, req DeleteRoundParams) (DeleteResponse, error) {
	c, err := h.controller(ctx, sessionID)
	if err != nil {
		return DeleteResponse{}, err
	}
	deleted, err := c.DeleteRound(session.WithConfirmation(ctx, req.Confirm), req.Index)
	if err != nil {
		return DeleteResponse{}, mapError(err)
	}
	return DeleteResponse{Deleted: deleted, Session: sessionView(c)}, nil
}

func (h *Handler) GetRecentActivity(ctx context.Context, req GetRecentActivityParams) (RecentActivityResponse, error) {
	resp := RecentActivityResponse{Entries: []ActivityEntryResponse{}}
	if h.activity == nil {
		return resp, nil
	}
	opts := activity.ListActivityOptions{
		ProjectID: req.ProjectID,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	if req.Type != "" {
		typ := activity.ActivityType(req.Type)
		opts.ActivityType = &typ
	}
	entries, err := h.activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return RecentActivityResponse{}, mapError(err)
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, activityResponse(e))
	}
	return resp, nil
}

// pressKey maps a keypad label to a buffer operation.
func pressKey(c *session.Controller, position int, key string) error {
	switch k := strings.ToLower(strings.TrimSpace(key)); k {
	case "sign", "+/-", "-", "±":
		return c.ToggleSign(position)
	case "backspace", "back", "⌫":
		return c.Backspace(position)
	case "clear", "c":
		return c.ClearEntry(position)
	default:
		if r, size := utf8.DecodeRuneInString(k); size == len(k) && r >= '0' && r <= '9' {
			return c.PressDigit(position, r)
		}
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

func entryResponse(c *session.Controller, position int) (EntryResponse, error) {
	text, err := c.EntryDisplayText(position)
	if err != nil {
		return EntryResponse{}, mapError(err)
	}
	return EntryResponse{
		Position: position,
		Text:     text,
		Value:    entry.New(text).ParsedValue(),
	}, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return mapError(fmt.Errorf("%w: %v", ErrInvalidParams, err))
	}
	return nil
}
