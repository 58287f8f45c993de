/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tools models the tool palette as a finite state machine. Transition
// is pure; Machine holds the current state and pencil settings and applies
// the drawing-mode effects to the canvas.
package tools

import (
	"fmt"
	"strings"
)

// Tool is the active palette tool. None means no tool and no open popover.
type Tool int

const (
	None Tool = iota
	Select
	Shapes
	Connect
	Pencil
	Text
	Icons
	Images
	Templates
)

var toolNames = [...]string{"none", "select", "shapes", "connect", "pencil", "text", "icons", "images", "templates"}

// All lists the palette tools in bar order.
var All = []Tool{Select, Shapes, Connect, Pencil, Text, Icons, Images, Templates}

func (t Tool) String() string {
	if t >= 0 && int(t) < len(toolNames) {
		return toolNames[t]
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool accepts a tool name case-insensitively; "" parses as None.
func ParseTool(s string) (Tool, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return None, nil
	}
	for i, n := range toolNames {
		if n == v {
			return Tool(i), nil
		}
	}
	return None, fmt.Errorf("unknown tool %q", s)
}

func (t Tool) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tool) UnmarshalText(b []byte) error {
	v, err := ParseTool(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// DismissReason says why the open tool was closed from outside the palette.
type DismissReason int

const (
	OutsideClick DismissReason = iota
	ViewportResize
)

func (r DismissReason) String() string {
	if r == ViewportResize {
		return "resize"
	}
	return "outside-click"
}

// Event is an input to Transition.
type Event struct {
	dismiss bool
	tool    Tool
	reason  DismissReason
}

// Press is a click on a tool button.
func Press(t Tool) Event { return Event{tool: t} }

// Dismiss is an outside click or a viewport resize.
func Dismiss(r DismissReason) Event { return Event{dismiss: true, reason: r} }

func (e Event) String() string {
	if e.dismiss {
		return "dismiss(" + e.reason.String() + ")"
	}
	return "press(" + e.tool.String() + ")"
}

// Effect is the side effect a transition asks of the canvas.
type Effect int

const (
	NoEffect Effect = iota
	EnterDrawing
	LeaveDrawing
)

func (e Effect) String() string {
	switch e {
	case EnterDrawing:
		return "enter-drawing"
	case LeaveDrawing:
		return "leave-drawing"
	default:
		return "none"
	}
}

// Transition returns the next tool and the canvas effect. Pressing the active
// tool closes it; pressing another switches directly; a dismissal closes any tool.
func Transition(cur Tool, ev Event) (Tool, Effect) {
	next := None
	if !ev.dismiss && ev.tool != cur {
		next = ev.tool
	}
	switch {
	case cur != Pencil && next == Pencil:
		return next, EnterDrawing
	case cur == Pencil && next != Pencil:
		return next, LeaveDrawing
	default:
		return next, NoEffect
	}
}
