package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// tool adapts a handler method to the SDK's typed tool signature, resolving
// the caller's session from the context populated by sessionMiddleware.
func tool[In, Out any](fn func(ctx context.Context, sessionID string, in In) (Out, error)) sdkmcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, Out, error) {
		out, err := fn(ctx, getSessionID(ctx), in)
		if err != nil {
			var zero Out
			return nil, zero, err
		}
		return nil, out, nil
	}
}

func registerTools(server *sdkmcp.Server, h *Handler) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List score projects, most recently updated first",
	}, tool(func(ctx context.Context, sid string, _ ListProjectsParams) (ListProjectsResponse, error) {
		return h.ListProjects(ctx, sid)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a project with a name and 1 to 6 members, and make it active",
	}, tool(h.CreateProject))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "select_project",
		Description: "Make a project active for this session. Discards any open round edit",
	}, tool(h.SelectProject))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_project",
		Description: "Delete a project. Requires confirm=true",
	}, tool(h.DeleteProject))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_active_project",
		Description: "Show the session state, the active project with rounds and totals, and any open round edit",
	}, tool(func(ctx context.Context, sid string, _ GetActiveProjectParams) (SessionView, error) {
		return h.GetActiveProject(ctx, sid)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "begin_add_round",
		Description: "Open a new round with every entry at 0",
	}, tool(func(ctx context.Context, sid string, _ BeginAddRoundParams) (SessionView, error) {
		return h.BeginAddRound(ctx, sid)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "begin_edit_round",
		Description: "Open an existing round for editing, seeded with its values",
	}, tool(h.BeginEditRound))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "press_key",
		Description: "Press a keypad key (0-9, sign, backspace, clear) on one member's entry",
	}, tool(h.PressKey))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_entry",
		Description: "Read the composed entry for one member position",
	}, tool(h.GetEntry))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "commit_round",
		Description: "Save the open round edit and return updated totals",
	}, tool(func(ctx context.Context, sid string, _ CommitRoundParams) (CommitRoundResponse, error) {
		return h.CommitRound(ctx, sid)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "cancel_round_edit",
		Description: "Discard the open round edit without changing the project",
	}, tool(func(ctx context.Context, sid string, _ CancelRoundEditParams) (CancelRoundEditResponse, error) {
		return h.CancelRoundEdit(ctx, sid)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_round",
		Description: "Delete a round from the active project. Requires confirm=true",
	}, tool(h.DeleteRound))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recent project and round changes, newest first",
	}, tool(func(ctx context.Context, _ string, in GetRecentActivityParams) (RecentActivityResponse, error) {
		return h.GetRecentActivity(ctx, in)
	}))
}
