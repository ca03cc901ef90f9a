// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import "time"

// Kind distinguishes plain shells from sessions bound to an agent.
type Kind string

const (
	KindShell Kind = "shell"
	KindAgent Kind = "agent"
)

// Agent status values used by the panel itself. Callers may report
// other strings; the vocabulary is open.
const (
	AgentRunning = "running"
	AgentIdle    = "idle"
	AgentDone    = "done"
	AgentError   = "error"
)

// Session is one terminal session tracked by the panel.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Cwd       string    `json:"cwd"`
	CreatedAt time.Time `json:"created_at"`
	Kind      Kind      `json:"kind"`

	// AgentID and AgentStatus are set only for KindAgent.
	AgentID     string `json:"agent_id,omitempty"`
	AgentStatus string `json:"agent_status,omitempty"`
}

// Registry is the ordered collection of sessions, keyed by ID. It does
// not enforce agent-ID uniqueness; the agent binder does.
//
// Registry is not safe for concurrent use. The Engine serializes access.
type Registry struct {
	sessions []Session
}

// Add appends session. IDs are generated fresh by the engine, so there
// is no duplicate check.
func (r *Registry) Add(session Session) {
	r.sessions = append(r.sessions, session)
}

// Remove deletes the session with id and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	index := r.index(id)
	if index < 0 {
		return false
	}
	r.sessions = append(r.sessions[:index], r.sessions[index+1:]...)
	return true
}

// Get returns the session with id.
func (r *Registry) Get(id string) (Session, bool) {
	index := r.index(id)
	if index < 0 {
		return Session{}, false
	}
	return r.sessions[index], true
}

// Contains reports whether a session with id exists.
func (r *Registry) Contains(id string) bool {
	return r.index(id) >= 0
}

// UpdateTitle sets the title of session id. No-op if absent.
func (r *Registry) UpdateTitle(id, title string) bool {
	index := r.index(id)
	if index < 0 {
		return false
	}
	r.sessions[index].Title = title
	return true
}

// UpdateAgentStatus sets the status of the agent session bound to
// agentID. No-op if no such session exists.
func (r *Registry) UpdateAgentStatus(agentID, status string) bool {
	for i := range r.sessions {
		if r.sessions[i].Kind == KindAgent && r.sessions[i].AgentID == agentID {
			r.sessions[i].AgentStatus = status
			return true
		}
	}
	return false
}

// FindByAgentID returns the agent session bound to agentID.
func (r *Registry) FindByAgentID(agentID string) (Session, bool) {
	for _, session := range r.sessions {
		if session.Kind == KindAgent && session.AgentID == agentID {
			return session, true
		}
	}
	return Session{}, false
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// Sessions returns a copy of the sessions in insertion order.
func (r *Registry) Sessions() []Session {
	return append([]Session(nil), r.sessions...)
}

// Last returns the most recently added session.
func (r *Registry) Last() (Session, bool) {
	if len(r.sessions) == 0 {
		return Session{}, false
	}
	return r.sessions[len(r.sessions)-1], true
}

func (r *Registry) index(id string) int {
	for i, session := range r.sessions {
		if session.ID == id {
			return i
		}
	}
	return -1
}
