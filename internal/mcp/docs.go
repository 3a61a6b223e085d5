package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `tally keeps running score totals for games as Projects -> Rounds.

Core concepts:
- Project: a name, 1 to 6 members (columns) and an ordered list of rounds.
- Round: one integer score per member. Totals are column sums.
- Session: each client has its own active project and at most one open round edit.
- Round edit: a keypad-style entry per member. Nothing is saved until commit_round.

Default workflow:
1) list_projects, then select_project or create_project.
2) begin_add_round (or begin_edit_round with an index).
3) press_key per member position: digits, "sign", "backspace", "clear".
4) commit_round to save and get totals, or cancel_round_edit to discard.
5) get_active_project at any time to see rounds, totals and the open edit.

Deletions (delete_project, delete_round) require confirm=true; without it they do nothing.

Docs:
- tally://docs/guide
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "tally://docs/guide",
		Name:        "docs_guide",
		Title:       "tally guide",
		Description: "Session states, keypad semantics and error codes.",
		Content: `# tally guide

## Session states

- **unselected**: no active project. Round tools return ` + "`NO_ACTIVE_PROJECT`" + `.
- **active**: a project is selected. Its rounds and totals are readable.
- **round_editing**: a round edit is open. ` + "`delete_round`" + ` returns ` + "`EDIT_IN_PROGRESS`" + `.

Selecting or creating a project discards an open round edit. Beginning a new edit while one is
open restarts it.

## Keypad

Each member position has its own entry, shown as text such as ` + "`0`" + `, ` + "`12`" + ` or ` + "`-7`" + `.

- Digits append. A lone ` + "`0`" + ` is replaced by the next digit.
- ` + "`sign`" + ` flips the sign. ` + "`-0`" + ` commits as 0.
- ` + "`backspace`" + ` drops the last digit. An empty entry reads ` + "`0`" + ` and keeps its sign.
- ` + "`clear`" + ` resets to ` + "`0`" + `.
- Entries hold at most 18 digits.

## Rounds

Rounds are labelled R1, R2, ... by position. Deleting a round shifts later labels down.

## Error codes

- ` + "`VALIDATION_ERROR`" + `: empty name, no members, more than 6 members, unknown key.
- ` + "`RANGE_ERROR`" + `: round index or member position out of range, or a round that would push a total past the supported range (the edit stays open).
- ` + "`NO_ACTIVE_PROJECT`" + `, ` + "`NOT_EDITING`" + `, ` + "`EDIT_IN_PROGRESS`" + `: wrong session state.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
