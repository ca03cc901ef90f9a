// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

// CreateOrFocusAgentTerminal returns the terminal bound to agentID,
// creating it on first use. An existing binding is focused the way
// SetActiveTerminal focuses (the layout collapses to that terminal
// alone); a new binding is an agent session with status running that
// becomes the whole layout. Either way the panel opens. Repeated calls
// for one agent return the same terminal and create nothing new.
//
// An empty agentID binds nothing and returns "".
func (e *Engine) CreateOrFocusAgentTerminal(agentID, title, cwd string) string {
	if agentID == "" {
		return ""
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.registry.FindByAgentID(agentID); ok {
		e.root = InsertAsRoot(existing.ID)
		e.activeTerminalID = existing.ID
		e.panel.Open()
		e.logger.Debug("agent terminal focused", "agent_id", agentID, "terminal_id", existing.ID)
		e.persistLocked()
		return existing.ID
	}

	session := e.newSessionLocked(KindAgent, title, cwd)
	session.AgentID = agentID
	session.AgentStatus = AgentRunning
	e.registry.Add(session)
	e.root = InsertAsRoot(session.ID)
	e.activeTerminalID = session.ID
	e.panel.Open()

	e.logger.Info("agent terminal created", "agent_id", agentID, "terminal_id", session.ID)
	e.persistLocked()
	return session.ID
}

// UpdateAgentTerminalStatus records an agent's status on its terminal.
// The layout is untouched. Returns false when no terminal is bound to
// agentID.
func (e *Engine) UpdateAgentTerminalStatus(agentID, status string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.registry.UpdateAgentStatus(agentID, status) {
		return false
	}
	e.persistLocked()
	return true
}
