/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene owns the edited document. Every mutation goes through the
// Adapter, which applies tool-mode policy and schedules coalesced renders on
// a Surface.
package scene

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"canvasstudio/internal/assets"
	"canvasstudio/internal/dragdrop"
	"canvasstudio/internal/fonts"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/tools"
	"canvasstudio/internal/vector"
)

// Frame is an immutable snapshot handed to a Surface.
type Frame struct {
	Doc      Document
	ActiveID string
	Drawing  bool
	Brush    tools.Brush
	// Stroke is the freehand stroke in progress, in canvas coordinates.
	Stroke []vector.Pt
	Seq    uint64
}

// Surface is a rendering backend.
type Surface interface {
	Render(f Frame) error
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(Frame) error

func (f SurfaceFunc) Render(fr Frame) error { return f(fr) }

// AssetFetcher resolves icon and image sources.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) (assets.Asset, error)
}

// TextMeasurer measures text for layout.
type TextMeasurer interface {
	Measure(text string, spec fonts.Spec) (w, h float64)
}

// Options configure an Adapter. Zero values select defaults.
type Options struct {
	Width, Height int
	Coalesce      time.Duration
	Assets        AssetFetcher
	Measurer      TextMeasurer
	Logger        *slog.Logger
	// NewID generates object ids; defaults to uuid.NewString.
	NewID func() string
}

// FontPatch is a partial typography update; nil fields are left unchanged.
type FontPatch struct {
	Family *string
	Size   *float64
	Weight *fonts.Weight
	Align  *Align
}

// StrokePatch is a partial stroke update; an empty Color or nil Width is left unchanged.
type StrokePatch struct {
	Color string
	Width *float64
}

// Adapter is the single owner of the document and its render surface.
type Adapter struct {
	surface  Surface
	sched    *Scheduler
	assets   AssetFetcher
	measurer TextMeasurer
	log      *slog.Logger
	newID    func() string

	renderMu sync.Mutex
	rendered uint64 // newest Seq handed to the surface; guarded by renderMu

	mu      sync.Mutex
	doc     Document
	active  string
	mode    tools.Tool
	drawing bool
	brush   tools.Brush
	focused bool
	stroke  *strokeState
	drag    *vector.Pt
	seq     uint64
	closed  bool
}

type strokeState struct {
	brush  tools.Brush
	points []vector.Pt
}

// NewAdapter creates an adapter with an empty document rendering to s.
func NewAdapter(s Surface, o Options) *Adapter {
	a := &Adapter{
		surface:  s,
		assets:   o.Assets,
		measurer: o.Measurer,
		log:      applog.Or(o.Logger, "scene"),
		newID:    o.NewID,
		doc:      NewDocument(o.Width, o.Height),
		brush:    tools.Brush{Color: tools.DefaultPencilColor, Width: tools.DefaultPencilWidth},
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}
	a.sched = NewScheduler(o.Coalesce, a.render)
	return a
}

func (a *Adapter) render() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.seq++
	f := Frame{Doc: a.doc.Clone(), ActiveID: a.active, Drawing: a.drawing, Brush: a.brush, Seq: a.seq}
	if a.stroke != nil {
		f.Stroke = slices.Clone(a.stroke.points)
	}
	a.mu.Unlock()
	a.deliver(f)
}

// deliver hands f to the surface unless a newer frame already went out.
// Timer renders and Flush can snapshot in one order and reach the surface in
// the other.
func (a *Adapter) deliver(f Frame) {
	if a.surface == nil {
		return
	}
	a.renderMu.Lock()
	defer a.renderMu.Unlock()
	if f.Seq <= a.rendered {
		return
	}
	a.rendered = f.Seq
	if err := a.surface.Render(f); err != nil {
		a.log.Warn("render failed", slog.Uint64("seq", f.Seq), slog.Any("err", err))
	}
}

// mutated must be called with a.mu held after every change.
func (a *Adapter) mutated() {
	if !a.closed {
		a.sched.Schedule()
	}
}

// RequestRender schedules a render without changing anything.
func (a *Adapter) RequestRender() { a.sched.Schedule() }

// Flush renders pending changes immediately.
func (a *Adapter) Flush() { a.sched.Flush() }

// Close stops rendering. Later mutations are ignored.
func (a *Adapter) Close() {
	a.mu.Lock()
	a.closed = true
	a.stroke = nil
	a.mu.Unlock()
	a.sched.Stop()
}

// CreateFromPayload builds the object p describes centered at canvas point
// (x, y), adds it on top and makes it active. Icon and image sources are
// fetched first; on failure nothing is added and ok is false.
func (a *Adapter) CreateFromPayload(ctx context.Context, p dragdrop.Payload, x, y float64) (id string, ok bool) {
	lg := applog.WithOperation(a.log, "create").With(slog.String("payload", p.String()))
	var obj *Object
	switch p.Kind {
	case dragdrop.KindShape:
		kind, err := vector.ParseShapeKind(string(p.ShapeKind))
		if err != nil {
			lg.Debug("unknown shape kind", slog.Any("err", err))
			return "", false
		}
		obj = &Object{
			Kind:  KindShape,
			Shape: &ShapeData{Kind: kind, Size: ShapeSize},
			Style: Style{Fill: DefaultShapeFill},
		}
	case dragdrop.KindText:
		t := &TextData{
			Content: p.Label,
			Family:  DefaultFontFamily,
			Size:    p.Size,
			Weight:  p.Weight,
			Align:   AlignCenter,
		}
		if t.Content == "" {
			t.Content = DefaultTextLabel
		}
		if t.Size <= 0 {
			t.Size = DefaultTextSize
		}
		if t.Weight == 0 {
			t.Weight = fonts.Regular
		}
		obj = &Object{Kind: KindText, Text: t, Style: Style{Fill: DefaultTextFill}}
		a.measure(obj)
	case dragdrop.KindIcon, dragdrop.KindImage:
		if a.assets == nil || p.URL == "" {
			lg.Debug("no asset source")
			return "", false
		}
		asset, err := a.assets.Fetch(ctx, p.URL)
		if err != nil {
			lg.Warn("asset unavailable, drop ignored", slog.Any("err", err))
			return "", false
		}
		if asset.Width <= 0 || asset.Height <= 0 {
			lg.Warn("asset has no intrinsic size, drop ignored")
			return "", false
		}
		kind, target := KindIcon, float64(IconSize)
		if p.Kind == dragdrop.KindImage {
			kind, target = KindImage, float64(ImageSize)
		}
		s := target / math.Max(asset.Width, asset.Height)
		obj = &Object{
			Kind:   kind,
			Asset:  &AssetData{URL: p.URL, Name: p.Name, Width: asset.Width, Height: asset.Height},
			ScaleX: s,
			ScaleY: s,
		}
	default:
		lg.Debug("unsupported payload kind")
		return "", false
	}
	if obj.ScaleX == 0 {
		obj.ScaleX, obj.ScaleY = 1, 1
	}
	obj.Position = vector.Pt{X: x, Y: y}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return "", false
	}
	obj.ID = a.newID()
	a.doc.Objects = append(a.doc.Objects, obj)
	a.active = obj.ID
	a.mutated()
	lg.Debug("object created", slog.String("id", obj.ID), slog.Float64("x", x), slog.Float64("y", y))
	return obj.ID, true
}

func (a *Adapter) measure(o *Object) {
	if o.Text == nil {
		return
	}
	if a.measurer != nil {
		o.Text.Width, o.Text.Height = a.measurer.Measure(o.Text.Content, o.Text.Spec())
		return
	}
	lines := strings.Split(o.Text.Content, "\n")
	longest := 0
	for _, l := range lines {
		longest = max(longest, len([]rune(l)))
	}
	o.Text.Width = float64(longest) * o.Text.Size * 0.6
	o.Text.Height = float64(len(lines)) * o.Text.Size * 1.2
}

// SetToolMode switches between drawing (Pencil) and selection (anything
// else). Changing the mode clears the selection.
func (a *Adapter) SetToolMode(t tools.Tool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	drawing := t == tools.Pencil
	a.mode = t
	if drawing == a.drawing {
		return
	}
	a.drawing = drawing
	a.active = ""
	a.stroke = nil
	a.drag = nil
	a.mutated()
	a.log.Debug("mode switched", slog.Bool("drawing", drawing), slog.String("tool", t.String()))
}

// SetBrush sets the brush used by strokes started from now on.
func (a *Adapter) SetBrush(b tools.Brush) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b.Width = min(max(b.Width, tools.MinPencilWidth), tools.MaxPencilWidth)
	a.brush = b
	a.mutated()
}

// activeLocked returns the active object, if any.
func (a *Adapter) activeLocked() *Object {
	if a.active == "" {
		return nil
	}
	o, _ := a.doc.Find(a.active)
	return o
}

// UpdateActiveObjectFont applies p to the active text object. It reports
// whether anything was applied; with no active text object it is a no-op.
func (a *Adapter) UpdateActiveObjectFont(p FontPatch) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	o := a.activeLocked()
	if o == nil || o.Text == nil {
		return false
	}
	if p.Family != nil && strings.TrimSpace(*p.Family) != "" {
		o.Text.Family = strings.TrimSpace(*p.Family)
	}
	if p.Size != nil && *p.Size > 0 {
		o.Text.Size = *p.Size
	}
	if p.Weight != nil && *p.Weight > 0 {
		o.Text.Weight = p.Weight.Snap()
	}
	if p.Align != nil && p.Align.Valid() {
		o.Text.Align = *p.Align
	}
	a.measure(o)
	a.mutated()
	return true
}

// UpdateActiveObjectText replaces the content of the active text object.
func (a *Adapter) UpdateActiveObjectText(content string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	o := a.activeLocked()
	if o == nil || o.Text == nil {
		return false
	}
	o.Text.Content = content
	a.measure(o)
	a.mutated()
	return true
}

// UpdateActiveObjectFill sets the fill color of the active object. Invalid
// colors and an empty selection are no-ops.
func (a *Adapter) UpdateActiveObjectFill(hex string) bool {
	c, err := vector.ParseHex(hex)
	if err != nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	o := a.activeLocked()
	if o == nil {
		return false
	}
	o.Style.Fill = c
	a.mutated()
	return true
}

// UpdateActiveObjectStroke applies p to the active object's stroke.
func (a *Adapter) UpdateActiveObjectStroke(p StrokePatch) bool {
	var (
		c     vector.Color
		hasC  bool
		err   error
		width = p.Width
	)
	if p.Color != "" {
		if c, err = vector.ParseHex(p.Color); err != nil {
			return false
		}
		hasC = true
	}
	if width != nil && *width < 0 {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	o := a.activeLocked()
	if o == nil || (!hasC && width == nil) {
		return false
	}
	if hasC {
		o.Style.Stroke = c
	}
	if width != nil {
		o.Style.StrokeWidth = *width
	}
	a.mutated()
	return true
}

// RemoveActiveObject deletes the active object. Without one it does nothing.
func (a *Adapter) RemoveActiveObject() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == "" {
		return false
	}
	_, i := a.doc.Find(a.active)
	a.active = ""
	a.drag = nil
	if i < 0 {
		return false
	}
	a.doc.Objects = slices.Delete(a.doc.Objects, i, i+1)
	a.mutated()
	return true
}

// SetDocumentSize resizes the document. Non-positive sizes are ignored.
func (a *Adapter) SetDocumentSize(w, h int) bool {
	if w <= 0 || h <= 0 {
		a.log.Debug("ignoring non-positive document size", slog.Int("w", w), slog.Int("h", h))
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.doc.Width == w && a.doc.Height == h {
		return true
	}
	a.doc.Width, a.doc.Height = w, h
	a.mutated()
	return true
}

// SetBackgroundColor sets the document background. Invalid colors are ignored.
func (a *Adapter) SetBackgroundColor(hex string) bool {
	c, err := vector.ParseHex(hex)
	if err != nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.doc.Background = c
	a.mutated()
	return true
}

// Select makes id the active object. Selection is disabled while drawing.
func (a *Adapter) Select(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drawing {
		return false
	}
	if o, _ := a.doc.Find(id); o == nil {
		return false
	}
	if a.active != id {
		a.active = id
		a.mutated()
	}
	return true
}

// SelectAt selects the top-most object under p, or clears the selection
// when there is none.
func (a *Adapter) SelectAt(p vector.Pt) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drawing {
		return "", false
	}
	id := a.hitLocked(p)
	if id != a.active {
		a.active = id
		a.mutated()
	}
	return id, id != ""
}

func (a *Adapter) hitLocked(p vector.Pt) string {
	for i := len(a.doc.Objects) - 1; i >= 0; i-- {
		if a.doc.Objects[i].Hit(p) {
			return a.doc.Objects[i].ID
		}
	}
	return ""
}

// ClearSelection drops the active object reference.
func (a *Adapter) ClearSelection() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active != "" {
		a.active = ""
		a.mutated()
	}
}

// MoveActiveObject translates the active object.
func (a *Adapter) MoveActiveObject(dx, dy float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	o := a.activeLocked()
	if o == nil {
		return false
	}
	o.Position = o.Position.Add(vector.Pt{X: dx, Y: dy})
	a.mutated()
	return true
}

// PointerDown starts a freehand stroke in drawing mode, or selects the object
// under p and starts dragging it otherwise.
func (a *Adapter) PointerDown(p vector.Pt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.drawing {
		a.stroke = &strokeState{brush: a.brush, points: []vector.Pt{p}}
		a.mutated()
		return
	}
	id := a.hitLocked(p)
	if id != a.active {
		a.active = id
		a.mutated()
	}
	a.drag = nil
	if id != "" {
		start := p
		a.drag = &start
	}
}

// PointerMove extends the stroke or drags the active object.
func (a *Adapter) PointerMove(p vector.Pt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.stroke != nil:
		if last := a.stroke.points[len(a.stroke.points)-1]; last == p {
			return
		}
		a.stroke.points = append(a.stroke.points, p)
		a.mutated()
	case a.drag != nil:
		if o := a.activeLocked(); o != nil {
			d := p.Sub(*a.drag)
			o.Position = o.Position.Add(d)
			*a.drag = p
			a.mutated()
		}
	}
}

// PointerUp ends the gesture. A finished stroke becomes a path object with
// the brush captured at PointerDown; it is not selected.
func (a *Adapter) PointerUp(p vector.Pt) (id string, created bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.drag = nil
	st := a.stroke
	a.stroke = nil
	if st == nil || a.closed {
		return "", false
	}
	if last := st.points[len(st.points)-1]; last != p {
		st.points = append(st.points, p)
	}
	b := vector.BoundsOf(st.points)
	c := b.Center()
	rel := make([]vector.Pt, len(st.points))
	for i, q := range st.points {
		d := q.Sub(c)
		rel[i] = vector.Pt{X: vector.FloatRound(d.X, 2), Y: vector.FloatRound(d.Y, 2)}
	}
	obj := &Object{
		ID:       a.newID(),
		Kind:     KindPath,
		Position: c,
		ScaleX:   1,
		ScaleY:   1,
		Style:    Style{Stroke: st.brush.Color, StrokeWidth: st.brush.Width},
		Path:     &PathData{Points: rel},
	}
	a.doc.Objects = append(a.doc.Objects, obj)
	a.mutated()
	a.log.Debug("stroke added", slog.String("id", obj.ID), slog.Int("points", len(rel)))
	return obj.ID, true
}

// SetFocused records whether the canvas has keyboard focus.
func (a *Adapter) SetFocused(f bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.focused = f
}

// HandleKey handles a key press while the canvas is focused. Delete and
// Backspace remove the active object.
func (a *Adapter) HandleKey(key string) bool {
	a.mu.Lock()
	focused := a.focused
	a.mu.Unlock()
	if !focused {
		return false
	}
	switch key {
	case "Delete", "Backspace":
		return a.RemoveActiveObject()
	}
	return false
}

// RefreshText re-measures text set in family, after its font became available.
func (a *Adapter) RefreshText(family string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	changed := false
	for _, o := range a.doc.Objects {
		if o.Text != nil && o.Text.Family == family {
			a.measure(o)
			changed = true
		}
	}
	if changed {
		a.mutated()
	}
}

// Load replaces the document, clearing selection and any gesture.
func (a *Adapter) Load(d Document) {
	if d.Width <= 0 || d.Height <= 0 {
		d.Width, d.Height = DefaultWidth, DefaultHeight
	}
	d = d.Clone()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.doc = d
	a.active = ""
	a.stroke = nil
	a.drag = nil
	a.mutated()
}

// Snapshot returns a deep copy of the document.
func (a *Adapter) Snapshot() Document {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc.Clone()
}

// ActiveObject returns a copy of the active object.
func (a *Adapter) ActiveObject() (Object, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o := a.activeLocked()
	if o == nil {
		return Object{}, false
	}
	return *o.Clone(), true
}

// ActiveID returns the active object id, or "".
func (a *Adapter) ActiveID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Drawing reports whether the canvas is in drawing mode.
func (a *Adapter) Drawing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.drawing
}

// Mode returns the tool last passed to SetToolMode.
func (a *Adapter) Mode() tools.Tool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Brush returns the brush new strokes will use.
func (a *Adapter) Brush() tools.Brush {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.brush
}
