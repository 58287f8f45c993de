/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package panel keeps the properties panel, the document and the active
// object consistent. All edits go through the scene adapter.
package panel

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"

	"canvasstudio/internal/fonts"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/scene"
	"canvasstudio/internal/vector"
)

// Font size limits.
const (
	MinFontSize = 8
	MaxFontSize = 200
)

// FontSizePresets is the fixed size list offered next to free entry.
var FontSizePresets = []float64{8, 10, 12, 14, 16, 18, 20, 24, 28, 32, 36, 42, 48, 56, 64, 72, 96, 128, 160, 200}

// Swatches is the preset color grid, row by row.
var Swatches = []vector.Color{
	vector.MustHex("#FFFFFF"), vector.MustHex("#F3F4F6"), vector.MustHex("#9CA3AF"), vector.MustHex("#4B5563"), vector.MustHex("#111827"), vector.MustHex("#000000"),
	vector.MustHex("#FEE2E2"), vector.MustHex("#FCA5A5"), vector.MustHex("#EF4444"), vector.MustHex("#B91C1C"), vector.MustHex("#FFEDD5"), vector.MustHex("#F97316"),
	vector.MustHex("#FEF9C3"), vector.MustHex("#FACC15"), vector.MustHex("#DCFCE7"), vector.MustHex("#22C55E"), vector.MustHex("#15803D"), vector.MustHex("#CCFBF1"),
	vector.MustHex("#14B8A6"), vector.MustHex("#DBEAFE"), vector.MustHex("#3B82F6"), vector.MustHex("#1D4ED8"), vector.MustHex("#4F46E5"), vector.MustHex("#A855F7"),
}

// Preset is a named aspect ratio with its document size.
type Preset struct {
	Name          string
	Width, Height int
}

var Presets = []Preset{
	{"1:1", 1080, 1080},
	{"16:9", 1920, 1080},
	{"4:3", 1024, 768},
	{"9:16", 1080, 1920},
}

// Section is a collapsible panel section.
type Section string

const (
	SectionDimensions Section = "dimensions"
	SectionAppearance Section = "appearance"
	SectionStroke     Section = "stroke"
	SectionTypography Section = "typography"
)

// Canvas is the part of the scene adapter the panel edits through.
type Canvas interface {
	Snapshot() scene.Document
	ActiveObject() (scene.Object, bool)
	SetDocumentSize(w, h int) bool
	SetBackgroundColor(hex string) bool
	UpdateActiveObjectFill(hex string) bool
	UpdateActiveObjectStroke(p scene.StrokePatch) bool
	UpdateActiveObjectFont(p scene.FontPatch) bool
	RefreshText(family string)
}

// FontLoader resolves web fonts.
type FontLoader interface {
	EnsureLoaded(ctx context.Context, family string) error
	Status(family string) fonts.Status
	Catalog() *fonts.Catalog
}

// Panel is the properties panel state of one editor session.
type Panel struct {
	canvas Canvas
	fonts  FontLoader
	log    *slog.Logger

	mu        sync.Mutex
	width     int
	height    int
	locked    bool
	ratio     float64
	collapsed map[Section]bool
}

// New mounts a panel on canvas, capturing the aspect ratio of the current
// document. The lock starts engaged.
func New(c Canvas, f FontLoader, logger *slog.Logger) *Panel {
	p := &Panel{
		canvas:    c,
		fonts:     f,
		log:       applog.Or(logger, "panel"),
		locked:    true,
		collapsed: map[Section]bool{},
	}
	p.Sync()
	return p
}

// Sync re-reads the document size, e.g. after another document was opened,
// and recaptures the ratio.
func (p *Panel) Sync() {
	d := p.canvas.Snapshot()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width, p.height = d.Width, d.Height
	p.captureRatio()
}

func (p *Panel) captureRatio() {
	if p.width > 0 && p.height > 0 {
		p.ratio = float64(p.width) / float64(p.height)
	}
}

// Dimensions returns the values shown in the width and height inputs.
func (p *Panel) Dimensions() (w, h int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// Locked reports whether the aspect ratio lock is engaged.
func (p *Panel) Locked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.locked
}

// Ratio is the cached width/height ratio.
func (p *Panel) Ratio() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ratio
}

// ToggleLock flips the lock. The cached ratio is kept.
func (p *Panel) ToggleLock() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = !p.locked
	return p.locked
}

// SetWidth edits the width input. With the lock engaged the height follows
// as round(width/ratio). The document is resized once both are positive.
func (p *Panel) SetWidth(w int) {
	p.mu.Lock()
	p.width = w
	if p.locked && p.ratio > 0 && w > 0 {
		p.height = int(math.Round(float64(w) / p.ratio))
	}
	w, h := p.width, p.height
	p.mu.Unlock()
	p.apply(w, h)
}

// SetHeight edits the height input; the width follows as round(height*ratio).
func (p *Panel) SetHeight(h int) {
	p.mu.Lock()
	p.height = h
	if p.locked && p.ratio > 0 && h > 0 {
		p.width = int(math.Round(float64(h) * p.ratio))
	}
	w, h := p.width, p.height
	p.mu.Unlock()
	p.apply(w, h)
}

func (p *Panel) apply(w, h int) {
	if w > 0 && h > 0 {
		p.canvas.SetDocumentSize(w, h)
	}
}

// Blur commits the inputs: a non-positive dimension resets the document to
// the default size.
func (p *Panel) Blur() {
	p.mu.Lock()
	if p.width > 0 && p.height > 0 {
		p.mu.Unlock()
		return
	}
	p.log.Debug("resetting invalid dimensions", slog.Int("w", p.width), slog.Int("h", p.height))
	p.width, p.height = scene.DefaultWidth, scene.DefaultHeight
	p.mu.Unlock()
	p.canvas.SetDocumentSize(scene.DefaultWidth, scene.DefaultHeight)
}

// ApplyPreset sets both dimensions from a named preset and refreshes the
// cached ratio.
func (p *Panel) ApplyPreset(name string) bool {
	for _, pr := range Presets {
		if pr.Name != name {
			continue
		}
		p.mu.Lock()
		p.width, p.height = pr.Width, pr.Height
		p.captureRatio()
		p.mu.Unlock()
		p.canvas.SetDocumentSize(pr.Width, pr.Height)
		return true
	}
	return false
}

// SetBackground sets the document background from a hex string.
func (p *Panel) SetBackground(hex string) bool { return p.canvas.SetBackgroundColor(hex) }

// PickSwatch applies swatch i as the active object's fill, or as the
// background when nothing is selected.
func (p *Panel) PickSwatch(i int) bool {
	if i < 0 || i >= len(Swatches) {
		return false
	}
	hex := Swatches[i].Hex()
	if _, ok := p.canvas.ActiveObject(); ok {
		return p.canvas.UpdateActiveObjectFill(hex)
	}
	return p.canvas.SetBackgroundColor(hex)
}

// SetFill sets the active object's fill.
func (p *Panel) SetFill(hex string) bool { return p.canvas.UpdateActiveObjectFill(hex) }

// SetStrokeColor sets the active object's stroke color.
func (p *Panel) SetStrokeColor(hex string) bool {
	if strings.TrimSpace(hex) == "" {
		return false
	}
	return p.canvas.UpdateActiveObjectStroke(scene.StrokePatch{Color: hex})
}

// SetStrokeWidth sets the active object's stroke width.
func (p *Panel) SetStrokeWidth(w float64) bool {
	return p.canvas.UpdateActiveObjectStroke(scene.StrokePatch{Width: &w})
}

// FontEntry is one row of the font list.
type FontEntry struct {
	Family  string `json:"family"`
	Popular bool   `json:"popular"`
	Loading bool   `json:"loading"`
	Loaded  bool   `json:"loaded"`
}

// FontEntries lists families matching query, popular ones first, with their
// load state.
func (p *Panel) FontEntries(query string) []FontEntry {
	if p.fonts == nil {
		return nil
	}
	cat := p.fonts.Catalog()
	names := cat.Search(query)
	out := make([]FontEntry, len(names))
	for i, n := range names {
		st := p.fonts.Status(n)
		out[i] = FontEntry{Family: n, Popular: cat.IsPopular(n), Loading: st == fonts.Loading, Loaded: st == fonts.Loaded}
	}
	return out
}

// SelectFont applies family to the active text object at once and loads the
// font in the background. The returned channel closes after the load
// resolved and the text was re-measured. It reports false when there is no
// active text object.
func (p *Panel) SelectFont(ctx context.Context, family string) (<-chan struct{}, bool) {
	family = strings.TrimSpace(family)
	if family == "" || !p.canvas.UpdateActiveObjectFont(scene.FontPatch{Family: &family}) {
		return nil, false
	}
	done := make(chan struct{})
	if p.fonts == nil {
		close(done)
		return done, true
	}
	go func() {
		defer close(done)
		if err := p.fonts.EnsureLoaded(ctx, family); err != nil {
			p.log.Debug("font wait ended early", slog.String("family", family), slog.Any("err", err))
			return
		}
		p.canvas.RefreshText(family)
	}()
	return done, true
}

// SetFontSize clamps size to the allowed range and applies it.
func (p *Panel) SetFontSize(size float64) bool {
	if math.IsNaN(size) {
		return false
	}
	size = min(max(size, MinFontSize), MaxFontSize)
	return p.canvas.UpdateActiveObjectFont(scene.FontPatch{Size: &size})
}

// SetFontWeight snaps w to the nine-step scale and applies it.
func (p *Panel) SetFontWeight(w fonts.Weight) bool {
	if w <= 0 {
		return false
	}
	w = w.Snap()
	return p.canvas.UpdateActiveObjectFont(scene.FontPatch{Weight: &w})
}

// SetAlign sets text alignment.
func (p *Panel) SetAlign(a scene.Align) bool {
	if !a.Valid() {
		return false
	}
	return p.canvas.UpdateActiveObjectFont(scene.FontPatch{Align: &a})
}

// Toggle collapses or expands a section and returns whether it is expanded.
func (p *Panel) Toggle(s Section) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collapsed[s] = !p.collapsed[s]
	return !p.collapsed[s]
}

// Expanded reports whether s is expanded. Sections start expanded.
func (p *Panel) Expanded(s Section) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.collapsed[s]
}

// View is what the host draws.
type View struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Locked     bool    `json:"locked"`
	Ratio      float64 `json:"ratio"`
	Background string  `json:"background"`

	Active      bool       `json:"active"`
	ActiveKind  scene.Kind `json:"activeKind,omitempty"`
	Fill        string     `json:"fill,omitempty"`
	Stroke      string     `json:"stroke,omitempty"`
	StrokeWidth float64    `json:"strokeWidth,omitempty"`

	Text        bool         `json:"text"`
	FontFamily  string       `json:"fontFamily,omitempty"`
	FontSize    float64      `json:"fontSize,omitempty"`
	FontWeight  fonts.Weight `json:"fontWeight,omitempty"`
	Align       scene.Align  `json:"align,omitempty"`
	FontLoading bool         `json:"fontLoading"`

	Collapsed []Section `json:"collapsed,omitempty"`
}

// View reflects the document and the active object.
func (p *Panel) View() View {
	d := p.canvas.Snapshot()
	p.mu.Lock()
	v := View{Width: p.width, Height: p.height, Locked: p.locked, Ratio: p.ratio, Background: d.Background.Hex()}
	for _, s := range []Section{SectionDimensions, SectionAppearance, SectionStroke, SectionTypography} {
		if p.collapsed[s] {
			v.Collapsed = append(v.Collapsed, s)
		}
	}
	p.mu.Unlock()

	o, ok := p.canvas.ActiveObject()
	if !ok {
		return v
	}
	v.Active = true
	v.ActiveKind = o.Kind
	v.Fill = o.Style.Fill.Hex()
	v.Stroke = o.Style.Stroke.Hex()
	v.StrokeWidth = o.Style.StrokeWidth
	if o.Text != nil {
		v.Text = true
		v.FontFamily = o.Text.Family
		v.FontSize = o.Text.Size
		v.FontWeight = o.Text.Weight
		v.Align = o.Text.Align
		if p.fonts != nil {
			v.FontLoading = p.fonts.Status(o.Text.Family) == fonts.Loading
		}
	}
	return v
}
