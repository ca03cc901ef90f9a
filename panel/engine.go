// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/termpanel/lib/clock"
)

// DefaultFreshnessThreshold matches the backend's idle-eviction horizon.
// Sessions younger than this survive reconciliation even when the
// backend does not report them.
const DefaultFreshnessThreshold = 10 * time.Minute

// defaultReleaseTimeout bounds each fire-and-forget release call.
const defaultReleaseTimeout = 10 * time.Second

// Options configures an Engine. Every field is optional.
type Options struct {
	// Backend answers liveness queries and receives releases.
	// Defaults to NopBackend.
	Backend Backend

	// Store persists a snapshot after every state change. Nil
	// disables persistence.
	Store Store

	// Clock stamps CreatedAt and ages sessions. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to a discard logger.
	Logger *slog.Logger

	// FreshnessThreshold defaults to DefaultFreshnessThreshold.
	FreshnessThreshold time.Duration

	// DefaultCwd is used for terminals created without a working
	// directory. Defaults to the process's working directory.
	DefaultCwd string

	// DefaultHeightPercent is the initial panel height. Defaults to
	// DefaultHeightPercent and is clamped.
	DefaultHeightPercent float64

	// ReleaseTimeout bounds each backend release. Defaults to 10s.
	ReleaseTimeout time.Duration
}

// Engine owns the terminal registry, the pane layout, the active
// terminal, and the panel state. Every exported method is one atomic
// transaction: it takes the engine lock, applies its change, restores
// the invariants, persists, and returns. Backend releases run after the
// local change in their own goroutines.
//
// Invariants between transactions:
//   - every leaf names a session in the registry;
//   - every split has at least two children and sizes summing to 100;
//   - the active terminal is empty or shown in the tree;
//   - no two agent sessions share an agent ID;
//   - the tree is empty exactly when the registry is.
type Engine struct {
	mu sync.Mutex

	registry         Registry
	root             *Node
	activeTerminalID string
	panel            PanelState

	backend        Backend
	store          Store
	clock          clock.Clock
	logger         *slog.Logger
	freshness      time.Duration
	defaultCwd     string
	defaultHeight  float64
	releaseTimeout time.Duration

	releases sync.WaitGroup
}

// New constructs an empty Engine with a closed panel.
func New(options Options) *Engine {
	engine := &Engine{
		backend:        options.Backend,
		store:          options.Store,
		clock:          options.Clock,
		logger:         options.Logger,
		freshness:      options.FreshnessThreshold,
		defaultCwd:     options.DefaultCwd,
		defaultHeight:  options.DefaultHeightPercent,
		releaseTimeout: options.ReleaseTimeout,
	}
	if engine.backend == nil {
		engine.backend = NopBackend{}
	}
	if engine.clock == nil {
		engine.clock = clock.Real()
	}
	if engine.logger == nil {
		engine.logger = slog.New(slog.DiscardHandler)
	}
	if engine.freshness <= 0 {
		engine.freshness = DefaultFreshnessThreshold
	}
	if engine.defaultCwd == "" {
		engine.defaultCwd, _ = os.Getwd()
	}
	if engine.defaultHeight == 0 {
		engine.defaultHeight = DefaultHeightPercent
	}
	engine.defaultHeight = ClampHeight(engine.defaultHeight)
	if engine.releaseTimeout <= 0 {
		engine.releaseTimeout = defaultReleaseTimeout
	}

	engine.panel = PanelState{Mode: ModeClosed, HeightPercent: engine.defaultHeight}
	return engine
}

// Root returns the current layout tree, nil when empty. The tree is
// immutable and safe to read after the lock is released.
func (e *Engine) Root() *Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root
}

// Terminals returns the sessions in creation order.
func (e *Engine) Terminals() []Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Sessions()
}

// Terminal returns the session with id.
func (e *Engine) Terminal(id string) (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Get(id)
}

// ActiveTerminalID returns the focused terminal, or "".
func (e *Engine) ActiveTerminalID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeTerminalID
}

// Panel returns the panel state.
func (e *Engine) Panel() PanelState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.panel
}

// CreateTerminal creates a shell session in cwd (the default directory
// when empty), makes it the whole layout and the active terminal, and
// opens the panel. Returns the new terminal's ID.
func (e *Engine) CreateTerminal(cwd string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.createTerminalLocked(cwd)
	e.persistLocked()
	return id
}

func (e *Engine) createTerminalLocked(cwd string) string {
	session := e.newSessionLocked(KindShell, "", cwd)
	e.registry.Add(session)
	e.root = InsertAsRoot(session.ID)
	e.activeTerminalID = session.ID
	e.panel.Open()

	e.logger.Info("terminal created", "terminal_id", session.ID, "cwd", session.Cwd)
	return session.ID
}

func (e *Engine) newSessionLocked(kind Kind, title, cwd string) Session {
	if cwd == "" {
		cwd = e.defaultCwd
	}
	if title == "" {
		title = e.nextTitleLocked()
	}
	return Session{
		ID:        uuid.NewString(),
		Title:     title,
		Cwd:       cwd,
		CreatedAt: e.clock.Now(),
		Kind:      kind,
	}
}

// nextTitleLocked returns "Terminal N" with N one past the highest
// number already used by a default title.
func (e *Engine) nextTitleLocked() string {
	highest := 0
	for _, session := range e.registry.sessions {
		var number int
		if _, err := fmt.Sscanf(session.Title, "Terminal %d", &number); err == nil && number > highest {
			highest = number
		}
	}
	return fmt.Sprintf("Terminal %d", highest+1)
}

// SplitTerminal splits the pane showing terminalID in direction and
// starts a new shell in the new pane, inheriting the target's working
// directory. The new terminal becomes active. Returns ok false, and
// creates nothing, when terminalID is not shown in the layout.
func (e *Engine) SplitTerminal(terminalID string, direction Direction) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	target, exists := e.registry.Get(terminalID)
	if !exists {
		return "", false
	}

	session := e.newSessionLocked(KindShell, "", target.Cwd)
	tree, _, ok := SplitPane(e.root, terminalID, session.ID, direction)
	if !ok {
		return "", false
	}

	e.registry.Add(session)
	e.root = tree
	e.activeTerminalID = session.ID

	e.logger.Info("terminal split",
		"terminal_id", session.ID,
		"target_terminal_id", terminalID,
		"direction", direction,
	)
	e.persistLocked()
	return session.ID, true
}

// CloseTerminal removes a session and its pane, then tells the backend
// to release it. Closing the last session closes the panel. Returns
// false if no such session exists.
func (e *Engine) CloseTerminal(terminalID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.removeSessionLocked(terminalID) {
		return false
	}
	e.repairAfterRemovalLocked()

	e.logger.Info("terminal closed", "terminal_id", terminalID, "remaining", e.registry.Len())
	e.persistLocked()
	return true
}

// removeSessionLocked drops a session from the registry and the tree
// and schedules its release.
func (e *Engine) removeSessionLocked(terminalID string) bool {
	if !e.registry.Remove(terminalID) {
		return false
	}
	e.root = RemovePane(e.root, terminalID)
	e.releaseAsync(terminalID)
	return true
}

// repairAfterRemovalLocked restores the invariants after sessions have
// been removed. An emptied registry clears the layout and closes the
// panel. A layout emptied while sessions remain shows the most
// recently created one. An active terminal that left the tree is
// replaced by any terminal in the tree; a cleared focus stays cleared.
func (e *Engine) repairAfterRemovalLocked() {
	if e.registry.Len() == 0 {
		e.root = nil
		e.activeTerminalID = ""
		e.panel.Close()
		return
	}
	if e.root == nil {
		last, _ := e.registry.Last()
		e.root = InsertAsRoot(last.ID)
	}
	if e.activeTerminalID != "" && FindLeafForTerminal(e.root, e.activeTerminalID) == nil {
		e.activeTerminalID = FindAnyTerminalID(e.root)
	}
}

// SetActiveTerminal focuses terminalID. A terminal not shown in the
// layout replaces the whole layout with a single pane for it. An empty
// ID clears the focus. Unknown IDs are ignored (returns false).
func (e *Engine) SetActiveTerminal(terminalID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if terminalID == "" {
		e.activeTerminalID = ""
		e.persistLocked()
		return true
	}
	if !e.registry.Contains(terminalID) {
		return false
	}
	e.focusLocked(terminalID)
	e.persistLocked()
	return true
}

func (e *Engine) focusLocked(terminalID string) {
	if FindLeafForTerminal(e.root, terminalID) == nil {
		e.root = InsertAsRoot(terminalID)
		e.logger.Debug("layout replaced by focused terminal", "terminal_id", terminalID)
	}
	e.activeTerminalID = terminalID
}

// UpdatePaneSizes replaces the sizes of split splitID. Malformed sizes
// or an unknown split leave the layout unchanged and return false.
func (e *Engine) UpdatePaneSizes(splitID string, sizes []float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	tree, ok := UpdateSizes(e.root, splitID, sizes)
	if !ok {
		e.logger.Debug("pane size update rejected", "split_id", splitID, "sizes", sizes)
		return false
	}
	e.root = tree
	e.persistLocked()
	return true
}

// UpdateTerminalTitle renames a session. Returns false if absent.
func (e *Engine) UpdateTerminalTitle(terminalID, title string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.registry.UpdateTitle(terminalID, title) {
		return false
	}
	e.persistLocked()
	return true
}

// TogglePanel opens a closed or minimized panel and minimizes an open
// one. Opening a closed panel with no sessions creates a terminal first.
func (e *Engine) TogglePanel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.panel.Mode == ModeClosed && e.registry.Len() == 0 {
		e.createTerminalLocked("")
	} else {
		e.panel.Toggle()
	}
	e.persistLocked()
}

// MinimizePanel collapses the panel to its minimized bar.
func (e *Engine) MinimizePanel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.Minimize()
	e.persistLocked()
}

// MaximizePanel toggles between full and panel mode.
func (e *Engine) MaximizePanel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.Maximize()
	e.persistLocked()
}

// ClosePanel hides the panel, keeping sessions and layout.
func (e *Engine) ClosePanel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.Close()
	e.persistLocked()
}

// SetPanelHeight sets the docked height, clamped to [10, 90].
func (e *Engine) SetPanelHeight(heightPercent float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.SetHeightPercent(heightPercent)
	e.persistLocked()
}

// releaseAsync notifies the backend without blocking the caller. A
// failure is logged; the local removal stands.
func (e *Engine) releaseAsync(terminalID string) {
	e.releases.Add(1)
	go func() {
		defer e.releases.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.releaseTimeout)
		defer cancel()
		if err := e.backend.ReleaseSession(ctx, terminalID); err != nil {
			e.logger.Warn("backend release failed", "terminal_id", terminalID, "error", err)
		}
	}()
}

// WaitReleases blocks until every backend release started so far has
// returned. Front ends call it before exiting.
func (e *Engine) WaitReleases() {
	e.releases.Wait()
}
