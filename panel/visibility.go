// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import "math"

// Mode is the visibility of the whole panel, independent of the layout.
type Mode string

const (
	ModeClosed    Mode = "closed"
	ModeMinimized Mode = "minimized"
	ModePanel     Mode = "panel"
	ModeFull      Mode = "full"
)

// Height bounds, as a percentage of the host window.
const (
	MinHeightPercent     = 10
	MaxHeightPercent     = 90
	DefaultHeightPercent = 40
)

// PanelState is the panel's visibility mode and docked height.
type PanelState struct {
	Mode          Mode    `json:"mode"`
	HeightPercent float64 `json:"height_percent"`
}

// Toggle moves closed and minimized panels to panel, and anything
// else to minimized. The engine creates a first terminal before a
// closed, empty panel opens; PanelState itself has no registry.
func (p *PanelState) Toggle() {
	switch p.Mode {
	case ModeClosed, ModeMinimized:
		p.Mode = ModePanel
	default:
		p.Mode = ModeMinimized
	}
}

// Maximize toggles between full and panel. From closed or minimized it
// goes straight to full.
func (p *PanelState) Maximize() {
	if p.Mode == ModeFull {
		p.Mode = ModePanel
		return
	}
	p.Mode = ModeFull
}

// Minimize collapses the panel to its minimized bar.
func (p *PanelState) Minimize() {
	p.Mode = ModeMinimized
}

// Close hides the panel. Sessions and layout are kept.
func (p *PanelState) Close() {
	p.Mode = ModeClosed
}

// Open brings a closed or minimized panel to panel mode and leaves a
// full panel alone.
func (p *PanelState) Open() {
	if p.Mode == ModeClosed || p.Mode == ModeMinimized {
		p.Mode = ModePanel
	}
}

// SetHeightPercent sets the docked height, clamped to
// [MinHeightPercent, MaxHeightPercent]. NaN is ignored.
func (p *PanelState) SetHeightPercent(height float64) {
	if math.IsNaN(height) {
		return
	}
	p.HeightPercent = ClampHeight(height)
}

// ClampHeight clamps height to [MinHeightPercent, MaxHeightPercent].
func ClampHeight(height float64) float64 {
	return math.Min(MaxHeightPercent, math.Max(MinHeightPercent, height))
}
