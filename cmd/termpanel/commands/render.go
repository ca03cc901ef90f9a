// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/termpanel/panel"
)

// maxTitleWidth is the display width titles are truncated to.
const maxTitleWidth = 32

// shortIDLength is how much of an ID the tree view prints. Commands
// accept any unique prefix of at least minIDPrefix characters.
const shortIDLength = 8

type layoutRenderer struct {
	header lipgloss.Style
	split  lipgloss.Style
	active lipgloss.Style
	title  lipgloss.Style
	agent  lipgloss.Style
	dim    lipgloss.Style
}

// newLayoutRenderer builds the styles for w. Without color every
// style renders plain text.
func newLayoutRenderer(w io.Writer, color bool) *layoutRenderer {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	return &layoutRenderer{
		header: renderer.NewStyle().Bold(true),
		split:  renderer.NewStyle().Foreground(lipgloss.Color("244")),
		active: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		title:  renderer.NewStyle(),
		agent:  renderer.NewStyle().Foreground(lipgloss.Color("75")),
		dim:    renderer.NewStyle().Faint(true),
	}
}

// render writes the panel state, the layout tree, and the terminals
// not shown in the layout.
func (r *layoutRenderer) render(w io.Writer, engine *panel.Engine) {
	state := engine.Panel()
	sessions := engine.Terminals()
	active := engine.ActiveTerminalID()
	byID := make(map[string]panel.Session, len(sessions))
	for _, session := range sessions {
		byID[session.ID] = session
	}

	fmt.Fprintln(w, r.header.Render(fmt.Sprintf("panel %s  height %s%%  terminals %d",
		state.Mode, formatSize(state.HeightPercent), len(sessions))))

	root := engine.Root()
	if root == nil {
		fmt.Fprintln(w, r.dim.Render("(no terminals)"))
		return
	}
	r.renderNode(w, root, "", "", byID, active)

	shown := make(map[string]bool)
	for _, id := range panel.TerminalIDs(root) {
		shown[id] = true
	}
	var hidden []panel.Session
	for _, session := range sessions {
		if !shown[session.ID] {
			hidden = append(hidden, session)
		}
	}
	if len(hidden) > 0 {
		fmt.Fprintln(w, r.dim.Render("not in layout:"))
		for _, session := range hidden {
			fmt.Fprintln(w, "  "+r.sessionLine(session, false))
		}
	}
}

// renderNode writes node with first as its own line prefix and rest as
// the prefix for its descendants.
func (r *layoutRenderer) renderNode(w io.Writer, node *panel.Node, first, rest string, byID map[string]panel.Session, active string) {
	if node.IsLeaf() {
		fmt.Fprintln(w, first+r.sessionLine(byID[node.TerminalID], node.TerminalID == active))
		return
	}

	sizes := make([]string, len(node.Sizes))
	for i, size := range node.Sizes {
		sizes[i] = formatSize(size)
	}
	fmt.Fprintln(w, first+r.split.Render(fmt.Sprintf("%s %s [%s]",
		node.Direction, shortID(node.ID), strings.Join(sizes, " "))))

	for i, child := range node.Children {
		if i == len(node.Children)-1 {
			r.renderNode(w, child, rest+"└─ ", rest+"   ", byID, active)
		} else {
			r.renderNode(w, child, rest+"├─ ", rest+"│  ", byID, active)
		}
	}
}

func (r *layoutRenderer) sessionLine(session panel.Session, active bool) string {
	title := session.Title
	if ansi.StringWidth(title) > maxTitleWidth {
		title = ansi.Truncate(title, maxTitleWidth, "…")
	}

	marker := "  "
	styledTitle := r.title.Render(title)
	if active {
		marker = "* "
		styledTitle = r.active.Render(title)
	}

	kind := string(session.Kind)
	if session.Kind == panel.KindAgent {
		kind = r.agent.Render(fmt.Sprintf("agent %s [%s]", session.AgentID, session.AgentStatus))
	}
	return fmt.Sprintf("%s%s %s %s %s", marker, styledTitle, r.dim.Render(shortID(session.ID)), kind, r.dim.Render(session.Cwd))
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

// formatSize prints a percentage with at most one decimal.
func formatSize(size float64) string {
	return strconv.FormatFloat(math.Round(size*10)/10, 'f', -1, 64)
}
