package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/rpggio/tally/internal/domain/activity"
	"github.com/rpggio/tally/internal/domain/entry"
	"github.com/rpggio/tally/internal/domain/ledger"
)

// Config holds controller collaborators. Store is required.
type Config struct {
	Store     Store
	Ledger    *ledger.Ledger
	Confirmer Confirmer
	Activity  ActivityLogger
	Logger    *slog.Logger

	// StoreLock serializes the load, modify and save cycle of every controller
	// sharing Store. Nil gives the controller a private lock.
	StoreLock sync.Locker
}

// Controller owns the active project working copy and the open round edit.
// The active project is always a private clone; changes reach the collection
// only through an explicit sync (upsert, re-sort, full save).
type Controller struct {
	mu       sync.Mutex
	storeMu  sync.Locker
	store    Store
	ledger   *ledger.Ledger
	confirm  Confirmer
	activity ActivityLogger
	logger   *slog.Logger

	projects []ledger.Project
	active   *ledger.Project
	edit     *roundEdit

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

type roundEdit struct {
	mode    EditMode
	index   int
	buffers []*entry.Buffer
}

// NewController loads the persisted collection and starts Unselected.
func NewController(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, ErrStoreRequired
	}
	if cfg.Ledger == nil {
		cfg.Ledger = ledger.New()
	}
	if cfg.Confirmer == nil {
		cfg.Confirmer = ContextConfirmer{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.StoreLock == nil {
		cfg.StoreLock = &sync.Mutex{}
	}

	c := &Controller{
		storeMu:   cfg.StoreLock,
		store:     cfg.Store,
		ledger:    cfg.Ledger,
		confirm:   cfg.Confirmer,
		activity:  cfg.Activity,
		logger:    cfg.Logger,
		listeners: make(map[int]Listener),
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh reloads the collection from the store. The working copy is untouched.
func (c *Controller) Refresh(ctx context.Context) error {
	projects, err := c.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading projects: %w", err)
	}
	sortProjects(projects)

	c.mu.Lock()
	c.projects = projects
	c.mu.Unlock()
	return nil
}

// Subscribe registers l and returns a function that removes it.
func (c *Controller) Subscribe(l Listener) func() {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	id := c.nextListener
	c.nextListener++
	c.listeners[id] = l
	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Controller) emit(projectID string, kinds ...EventKind) {
	c.listenersMu.Lock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.listenersMu.Unlock()

	for _, kind := range kinds {
		for _, l := range listeners {
			l(Event{Kind: kind, ProjectID: projectID})
		}
	}
}

// State reports Unselected, Active or RoundEditing.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.active == nil:
		return StateUnselected
	case c.edit != nil:
		return StateRoundEditing
	default:
		return StateActive
	}
}

// ProjectList returns summaries ordered by UpdatedAt, newest first.
func (c *Controller) ProjectList() []ledger.ProjectSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summaries := make([]ledger.ProjectSummary, 0, len(c.projects))
	for i := range c.projects {
		summaries = append(summaries, c.projects[i].Summarize())
	}
	return summaries
}

// ActiveProject returns a copy of the working project.
func (c *Controller) ActiveProject() (*ledger.Project, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil, false
	}
	return c.active.Clone(), true
}

// Totals returns the active project's per-member totals.
func (c *Controller) Totals() ([]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil, ErrNoActiveProject
	}
	return c.ledger.ComputeTotals(c.active), nil
}

// RoundLabels returns the positional labels of the active project's rounds.
func (c *Controller) RoundLabels() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil, ErrNoActiveProject
	}
	labels := make([]string, len(c.active.Rounds))
	for i := range labels {
		labels[i] = ledger.RoundLabel(i)
	}
	return labels, nil
}

// Edit describes the open round edit.
func (c *Controller) Edit() (EditInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return EditInfo{}, ErrNotEditing
	}
	info := EditInfo{Mode: c.edit.mode, Index: c.edit.index}
	for _, b := range c.edit.buffers {
		info.Entries = append(info.Entries, b.DisplayText())
	}
	return info, nil
}

// EntryDisplayText returns the composed text for a member position.
func (c *Controller) EntryDisplayText(position int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.bufferLocked(position)
	if err != nil {
		return "", err
	}
	return b.DisplayText(), nil
}

// SelectProject replaces the working copy with a fresh copy of id.
// An unknown id is a no-op and reports false.
func (c *Controller) SelectProject(ctx context.Context, id string) (bool, error) {
	if err := c.Refresh(ctx); err != nil {
		return false, err
	}

	c.mu.Lock()
	idx := indexOf(c.projects, id)
	if idx < 0 {
		c.mu.Unlock()
		return false, nil
	}
	c.active = c.projects[idx].Clone()
	c.edit = nil
	c.mu.Unlock()

	c.logger.Debug("project selected", "project_id", id)
	c.emit(id, EventActiveProjectChanged)
	return true, nil
}

// CreateProject creates, persists and selects a new project.
func (c *Controller) CreateProject(ctx context.Context, name string, members []string) (*ledger.Project, error) {
	proj, err := c.ledger.CreateProject(name, members)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if err := c.syncLocked(ctx, proj); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.active = proj
	c.edit = nil
	result := proj.Clone()
	c.mu.Unlock()

	c.logActivity(ctx, activity.NewEntry(proj.ID, activity.TypeProjectCreated,
		fmt.Sprintf("Created %s", proj.Name), map[string]any{"members": proj.Members}))
	c.logger.Info("project created", "project_id", proj.ID, "members", len(proj.Members))
	c.emit(proj.ID, EventProjectsChanged, EventActiveProjectChanged)
	return result, nil
}

// DeleteProject removes id after confirmation. Deleting the active project
// returns the controller to Unselected. Reports false when declined or when
// no project has that id.
func (c *Controller) DeleteProject(ctx context.Context, id string) (bool, error) {
	if err := c.Refresh(ctx); err != nil {
		return false, err
	}
	c.mu.Lock()
	idx := indexOf(c.projects, id)
	if idx < 0 {
		c.mu.Unlock()
		return false, nil
	}
	name := c.projects[idx].Name
	c.mu.Unlock()

	if !c.confirm.Confirm(ctx, fmt.Sprintf("Delete project %q?", name)) {
		return false, nil
	}

	c.mu.Lock()
	removed, err := c.removeLocked(ctx, id)
	if err != nil || !removed {
		c.mu.Unlock()
		return false, err
	}
	wasActive := c.active != nil && c.active.ID == id
	if wasActive {
		c.active = nil
		c.edit = nil
	}
	c.mu.Unlock()

	c.logActivity(ctx, activity.NewEntry(id, activity.TypeProjectDeleted, fmt.Sprintf("Deleted %s", name), nil))
	c.logger.Info("project deleted", "project_id", id)
	if wasActive {
		c.emit(id, EventProjectsChanged, EventActiveProjectChanged)
	} else {
		c.emit(id, EventProjectsChanged)
	}
	return true, nil
}

// BeginAddRound opens a round edit with every position at 0.
// Beginning while already editing restarts the episode.
func (c *Controller) BeginAddRound() error {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return ErrNoActiveProject
	}
	buffers := make([]*entry.Buffer, len(c.active.Members))
	for i := range buffers {
		buffers[i] = entry.New("0")
	}
	c.edit = &roundEdit{mode: ModeAdd, index: len(c.active.Rounds), buffers: buffers}
	id := c.active.ID
	c.mu.Unlock()

	c.emit(id, EventEntryChanged)
	return nil
}

// BeginEditRound opens a round edit seeded from the round at index.
func (c *Controller) BeginEditRound(index int) error {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return ErrNoActiveProject
	}
	if index < 0 || index >= len(c.active.Rounds) {
		n := len(c.active.Rounds)
		c.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0, %d)", ledger.ErrRoundOutOfRange, index, n)
	}
	round := c.active.Rounds[index]
	buffers := make([]*entry.Buffer, len(c.active.Members))
	for i := range buffers {
		buffers[i] = entry.NewFromInt(round.ValueAt(i))
	}
	c.edit = &roundEdit{mode: ModeEdit, index: index, buffers: buffers}
	id := c.active.ID
	c.mu.Unlock()

	c.emit(id, EventEntryChanged)
	return nil
}

// PressDigit sends a digit key to the buffer at position.
func (c *Controller) PressDigit(position int, d rune) error {
	return c.withBuffer(position, func(b *entry.Buffer) { b.PressDigit(d) })
}

// ToggleSign flips the sign of the buffer at position.
func (c *Controller) ToggleSign(position int) error {
	return c.withBuffer(position, (*entry.Buffer).ToggleSign)
}

// Backspace removes the last digit of the buffer at position.
func (c *Controller) Backspace(position int) error {
	return c.withBuffer(position, (*entry.Buffer).Backspace)
}

// ClearEntry resets the buffer at position to 0.
func (c *Controller) ClearEntry(position int) error {
	return c.withBuffer(position, (*entry.Buffer).Clear)
}

func (c *Controller) withBuffer(position int, fn func(*entry.Buffer)) error {
	c.mu.Lock()
	b, err := c.bufferLocked(position)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	fn(b)
	id := c.active.ID
	c.mu.Unlock()

	c.emit(id, EventEntryChanged)
	return nil
}

func (c *Controller) bufferLocked(position int) (*entry.Buffer, error) {
	if c.active == nil {
		return nil, ErrNoActiveProject
	}
	if c.edit == nil {
		return nil, ErrNotEditing
	}
	if position < 0 || position >= len(c.edit.buffers) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPositionOutOfRange, position, len(c.edit.buffers))
	}
	return c.edit.buffers[position], nil
}

// CommitRound applies the composed values, persists, and returns the new totals.
func (c *Controller) CommitRound(ctx context.Context) ([]int64, error) {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return nil, ErrNoActiveProject
	}
	if c.edit == nil {
		c.mu.Unlock()
		return nil, ErrNotEditing
	}

	values := make([]int64, len(c.edit.buffers))
	for i, b := range c.edit.buffers {
		values[i] = b.ParsedValue()
	}

	before := c.active.Clone()
	edit := c.edit
	typ := activity.TypeRoundAdded
	var err error
	if edit.mode == ModeEdit {
		typ = activity.TypeRoundUpdated
		err = c.ledger.UpdateRound(c.active, edit.index, values)
	} else {
		err = c.ledger.AddRound(c.active, values)
	}
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	if err := c.syncLocked(ctx, c.active); err != nil {
		c.active = before
		c.mu.Unlock()
		return nil, err
	}
	c.edit = nil
	totals := c.ledger.ComputeTotals(c.active)
	id := c.active.ID
	c.mu.Unlock()

	label := ledger.RoundLabel(edit.index)
	verb := "Added"
	if typ == activity.TypeRoundUpdated {
		verb = "Updated"
	}
	c.logActivity(ctx, activity.NewEntry(id, typ, fmt.Sprintf("%s %s", verb, label),
		map[string]any{"index": edit.index, "values": values}))
	c.emit(id, EventRoundsChanged, EventProjectsChanged)
	return totals, nil
}

// CancelRoundEdit discards the open edit. Reports false when none was open.
func (c *Controller) CancelRoundEdit() bool {
	c.mu.Lock()
	if c.edit == nil {
		c.mu.Unlock()
		return false
	}
	c.edit = nil
	id := c.active.ID
	c.mu.Unlock()

	c.emit(id, EventEntryChanged)
	return true
}

// DeleteRound removes the round at index after confirmation and persists.
// Reports false when declined.
func (c *Controller) DeleteRound(ctx context.Context, index int) (bool, error) {
	c.mu.Lock()
	if err := c.checkDeleteRoundLocked(index); err != nil {
		c.mu.Unlock()
		return false, err
	}
	id := c.active.ID
	c.mu.Unlock()

	if !c.confirm.Confirm(ctx, fmt.Sprintf("Delete round %s?", ledger.RoundLabel(index))) {
		return false, nil
	}

	c.mu.Lock()
	// The working copy may have moved on while the confirmer was asking.
	if err := c.checkDeleteRoundLocked(index); err != nil {
		c.mu.Unlock()
		return false, err
	}
	if c.active.ID != id {
		c.mu.Unlock()
		return false, nil
	}
	before := c.active.Clone()
	if err := c.ledger.DeleteRound(c.active, index); err != nil {
		c.mu.Unlock()
		return false, err
	}
	if err := c.syncLocked(ctx, c.active); err != nil {
		c.active = before
		c.mu.Unlock()
		return false, err
	}
	c.mu.Unlock()

	c.logActivity(ctx, activity.NewEntry(id, activity.TypeRoundDeleted,
		fmt.Sprintf("Deleted %s", ledger.RoundLabel(index)), map[string]any{"index": index}))
	c.emit(id, EventRoundsChanged, EventProjectsChanged)
	return true, nil
}

func (c *Controller) checkDeleteRoundLocked(index int) error {
	if c.active == nil {
		return ErrNoActiveProject
	}
	if c.edit != nil {
		return ErrEditInProgress
	}
	if index < 0 || index >= len(c.active.Rounds) {
		return fmt.Errorf("%w: %d not in [0, %d)", ledger.ErrRoundOutOfRange, index, len(c.active.Rounds))
	}
	return nil
}

// syncLocked upserts proj into a freshly loaded collection, re-sorts and saves it.
// The cached collection is replaced only when the save succeeds.
func (c *Controller) syncLocked(ctx context.Context, proj *ledger.Project) error {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	projects, err := c.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading projects: %w", err)
	}

	snapshot := *proj.Clone()
	if idx := indexOf(projects, proj.ID); idx >= 0 {
		projects[idx] = snapshot
	} else {
		projects = append(projects, snapshot)
	}
	sortProjects(projects)

	if err := c.store.SaveAll(ctx, projects); err != nil {
		c.logger.Error("failed to save projects", "project_id", proj.ID, "error", err)
		return fmt.Errorf("saving projects: %w", err)
	}
	c.projects = projects
	return nil
}

// removeLocked deletes id from a freshly loaded collection. It reports false,
// leaving the store untouched, when another session already removed it.
func (c *Controller) removeLocked(ctx context.Context, id string) (bool, error) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	projects, err := c.store.LoadAll(ctx)
	if err != nil {
		return false, fmt.Errorf("loading projects: %w", err)
	}
	if indexOf(projects, id) < 0 {
		sortProjects(projects)
		c.projects = projects
		return false, nil
	}
	if err := c.store.Remove(ctx, id); err != nil {
		c.logger.Error("failed to remove project", "project_id", id, "error", err)
		return false, fmt.Errorf("removing project: %w", err)
	}
	projects = slices.DeleteFunc(projects, func(p ledger.Project) bool { return p.ID == id })
	sortProjects(projects)
	c.projects = projects
	return true, nil
}

func (c *Controller) logActivity(ctx context.Context, e *activity.ActivityEntry) {
	if c.activity == nil {
		return
	}
	if err := c.activity.LogActivity(ctx, e); err != nil {
		c.logger.Warn("failed to log activity", "project_id", e.ProjectID, "type", e.ActivityType, "error", err)
	}
}

func indexOf(projects []ledger.Project, id string) int {
	for i := range projects {
		if projects[i].ID == id {
			return i
		}
	}
	return -1
}

func sortProjects(projects []ledger.Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
}
