// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import "testing"

func registryIDs(r *Registry) []string {
	var ids []string
	for _, session := range r.Sessions() {
		ids = append(ids, session.ID)
	}
	return ids
}

func TestRegistryPreservesOrder(t *testing.T) {
	var registry Registry
	for _, id := range []string{"a", "b", "c"} {
		registry.Add(Session{ID: id, Kind: KindShell})
	}

	if !registry.Remove("b") {
		t.Fatal("Remove(b) = false, want true")
	}
	if registry.Remove("b") {
		t.Fatal("second Remove(b) = true, want false")
	}

	ids := registryIDs(&registry)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("ids = %v, want [a c]", ids)
	}
	if last, ok := registry.Last(); !ok || last.ID != "c" {
		t.Errorf("Last() = %v, %v, want c", last.ID, ok)
	}
}

func TestRegistrySessionsIsACopy(t *testing.T) {
	var registry Registry
	registry.Add(Session{ID: "a", Title: "original"})

	sessions := registry.Sessions()
	sessions[0].Title = "changed"

	got, _ := registry.Get("a")
	if got.Title != "original" {
		t.Fatalf("Title = %q after editing the copy, want original", got.Title)
	}
}

func TestRegistryUpdateTitle(t *testing.T) {
	var registry Registry
	registry.Add(Session{ID: "a", Title: "Terminal 1"})

	if !registry.UpdateTitle("a", "build") {
		t.Fatal("UpdateTitle(a) = false")
	}
	if registry.UpdateTitle("missing", "x") {
		t.Fatal("UpdateTitle(missing) = true")
	}
	if got, _ := registry.Get("a"); got.Title != "build" {
		t.Errorf("Title = %q, want build", got.Title)
	}
}

func TestRegistryAgentLookups(t *testing.T) {
	var registry Registry
	registry.Add(Session{ID: "shell", Kind: KindShell})
	registry.Add(Session{ID: "agent", Kind: KindAgent, AgentID: "agent-7", AgentStatus: AgentRunning})

	session, ok := registry.FindByAgentID("agent-7")
	if !ok || session.ID != "agent" {
		t.Fatalf("FindByAgentID(agent-7) = %v, %v", session.ID, ok)
	}
	if _, ok := registry.FindByAgentID("agent-8"); ok {
		t.Fatal("FindByAgentID(agent-8) found a session")
	}

	if !registry.UpdateAgentStatus("agent-7", AgentDone) {
		t.Fatal("UpdateAgentStatus(agent-7) = false")
	}
	if registry.UpdateAgentStatus("agent-8", AgentDone) {
		t.Fatal("UpdateAgentStatus(agent-8) = true")
	}
	if got, _ := registry.Get("agent"); got.AgentStatus != AgentDone {
		t.Errorf("AgentStatus = %q, want %q", got.AgentStatus, AgentDone)
	}
}

func TestRegistryIgnoresAgentIDOnShells(t *testing.T) {
	var registry Registry
	registry.Add(Session{ID: "shell", Kind: KindShell, AgentID: "agent-7"})

	if _, ok := registry.FindByAgentID("agent-7"); ok {
		t.Fatal("FindByAgentID matched a shell session")
	}
}
