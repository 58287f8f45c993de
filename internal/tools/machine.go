/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tools

import (
	"log/slog"
	"slices"
	"sync"

	applog "canvasstudio/internal/log"
	"canvasstudio/internal/vector"
)

// Pencil defaults and limits.
const (
	DefaultPencilWidth = 2
	MinPencilWidth     = 1
	MaxPencilWidth     = 50
)

var DefaultPencilColor = vector.Black

// Brush is the freehand stroke style.
type Brush struct {
	Color vector.Color
	Width float64
}

// ModeSwitcher is the canvas side of the machine.
type ModeSwitcher interface {
	SetToolMode(t Tool)
	SetBrush(b Brush)
}

// Machine is the tool palette state of one editor session.
type Machine struct {
	sw  ModeSwitcher
	log *slog.Logger

	// applyMu orders canvas effects with the state changes that caused them.
	// Lock order: applyMu, then mu.
	applyMu sync.Mutex

	mu     sync.Mutex
	active Tool
	brush  Brush
	recent []vector.Color
	hooks  []func(Tool)
}

// NewMachine starts with no tool and the default pencil.
func NewMachine(sw ModeSwitcher, logger *slog.Logger) *Machine {
	return &Machine{
		sw:    sw,
		log:   applog.Or(logger, "tools"),
		brush: Brush{Color: DefaultPencilColor, Width: DefaultPencilWidth},
	}
}

// Active returns the current tool.
func (m *Machine) Active() Tool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Press handles a tool button click and returns the new tool.
func (m *Machine) Press(t Tool) Tool { return m.fire(Press(t)) }

// Dismiss closes the active tool.
func (m *Machine) Dismiss(r DismissReason) Tool { return m.fire(Dismiss(r)) }

func (m *Machine) fire(ev Event) Tool {
	m.applyMu.Lock()
	m.mu.Lock()
	prev := m.active
	next, eff := Transition(prev, ev)
	m.active = next
	brush := m.brush
	hooks := slices.Clone(m.hooks)
	m.mu.Unlock()

	if m.sw != nil {
		switch eff {
		case EnterDrawing:
			m.sw.SetBrush(brush)
			m.sw.SetToolMode(Pencil)
		case LeaveDrawing:
			m.sw.SetToolMode(next)
		}
	}
	m.applyMu.Unlock()

	if prev != next {
		m.log.Debug("tool changed", slog.String("from", prev.String()), slog.String("to", next.String()), slog.String("event", ev.String()), slog.String("effect", eff.String()))
		for _, h := range hooks {
			h(next)
		}
	}
	return next
}

// OnChange registers fn for tool changes.
func (m *Machine) OnChange(fn func(Tool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Brush returns the pencil settings new strokes use.
func (m *Machine) Brush() Brush {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brush
}

// SetPencilColor parses hex, makes it the pencil color and remembers it in the
// recent colors. Invalid input is rejected without changes.
func (m *Machine) SetPencilColor(hex string) error {
	c, err := vector.ParseHex(hex)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.brush.Color = c
	if !slices.Contains(m.recent, c) {
		m.recent = append(m.recent, c)
	}
	m.mu.Unlock()
	m.pushBrush()
	return nil
}

// SetPencilWidth clamps w into MinPencilWidth..MaxPencilWidth.
func (m *Machine) SetPencilWidth(w float64) float64 {
	w = min(max(w, MinPencilWidth), MaxPencilWidth)
	m.mu.Lock()
	m.brush.Width = w
	m.mu.Unlock()
	m.pushBrush()
	return w
}

// pushBrush updates the live brush while the pencil is active.
func (m *Machine) pushBrush() {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()
	m.mu.Lock()
	active, brush := m.active, m.brush
	m.mu.Unlock()
	if active == Pencil && m.sw != nil {
		m.sw.SetBrush(brush)
	}
}

// RecentColors returns the colors used so far, oldest first.
func (m *Machine) RecentColors() []vector.Color {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.recent)
}
