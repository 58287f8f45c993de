//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"canvasstudio/internal/dragdrop"
	"canvasstudio/internal/editor"
	"canvasstudio/internal/scene"
	"canvasstudio/internal/vector"
)

// viewMargin is the gap kept around the document inside the view.
const viewMargin = 16

var workspaceColor = color.RGBA{R: 30, G: 30, B: 34, A: 255}

// DocumentView shows the latest rendered frame fitted into the widget and
// turns mouse and key input into canvas pointer and key events.
type DocumentView struct {
	widget.BaseWidget
	sess *editor.Session

	img *canvas.Image
	bg  *canvas.Rectangle

	docW, docH float32
	zoom       float32
	origin     fyne.Position // document top-left inside the widget
	lastSize   fyne.Size

	// OnPress runs before a pointer press reaches the canvas.
	OnPress func()
}

func NewDocumentView(s *editor.Session) *DocumentView {
	d := s.Canvas.Snapshot()
	v := &DocumentView{sess: s, docW: float32(d.Width), docH: float32(d.Height), zoom: 1}
	v.img = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, d.Width, d.Height)))
	v.img.FillMode = canvas.ImageFillStretch
	v.img.ScaleMode = canvas.ImageScaleSmooth
	v.bg = canvas.NewRectangle(workspaceColor)
	v.ExtendBaseWidget(v)
	return v
}

func (v *DocumentView) CreateRenderer() fyne.WidgetRenderer {
	return &documentViewRenderer{v: v, objects: []fyne.CanvasObject{v.bg, v.img}}
}

// SetFrame shows a rendered frame; a changed document size refits the view.
func (v *DocumentView) SetFrame(f scene.Frame, img image.Image) {
	v.img.Image = img
	w, h := float32(f.Doc.Width), float32(f.Doc.Height)
	if w != v.docW || h != v.docH {
		v.docW, v.docH = w, h
		v.Refresh()
		return
	}
	v.img.Refresh()
}

// fit scales the document to the largest size that fits and centers it.
func (v *DocumentView) fit(size fyne.Size) {
	if v.docW <= 0 || v.docH <= 0 {
		return
	}
	z := min((size.Width-2*viewMargin)/v.docW, (size.Height-2*viewMargin)/v.docH)
	if z <= 0 {
		z = 1
	}
	v.zoom = z
	v.origin = fyne.NewPos((size.Width-v.docW*z)/2, (size.Height-v.docH*z)/2)
}

// Viewport places the document in window coordinates.
func (v *DocumentView) Viewport() scene.Viewport {
	abs := v.absolute()
	return scene.Viewport{
		OriginX: float64(abs.X + v.origin.X),
		OriginY: float64(abs.Y + v.origin.Y),
		Zoom:    float64(v.zoom),
	}
}

func (v *DocumentView) absolute() fyne.Position {
	if a := fyne.CurrentApp(); a != nil {
		return a.Driver().AbsolutePositionForObject(v)
	}
	return fyne.Position{}
}

// ContainsAbsolute reports whether a window position lies inside the view.
func (v *DocumentView) ContainsAbsolute(p fyne.Position) bool {
	abs := v.absolute()
	sz := v.Size()
	return p.X >= abs.X && p.Y >= abs.Y && p.X < abs.X+sz.Width && p.Y < abs.Y+sz.Height
}

func (v *DocumentView) toDoc(p fyne.Position) vector.Pt {
	z := v.zoom
	if z == 0 {
		z = 1
	}
	return vector.Pt{X: float64((p.X - v.origin.X) / z), Y: float64((p.Y - v.origin.Y) / z)}
}

func (v *DocumentView) MouseDown(e *desktop.MouseEvent) {
	if c := fyne.CurrentApp().Driver().CanvasForObject(v); c != nil {
		c.Focus(v)
	}
	if v.OnPress != nil {
		v.OnPress()
	}
	v.sess.Canvas.PointerDown(v.toDoc(e.Position))
}

func (v *DocumentView) MouseUp(e *desktop.MouseEvent) { v.sess.Canvas.PointerUp(v.toDoc(e.Position)) }

func (v *DocumentView) Dragged(e *fyne.DragEvent) { v.sess.Canvas.PointerMove(v.toDoc(e.Position)) }

func (v *DocumentView) DragEnd() {}

func (v *DocumentView) FocusGained() { v.sess.SetFocused(true) }
func (v *DocumentView) FocusLost()   { v.sess.SetFocused(false) }
func (v *DocumentView) TypedRune(rune) {}

func (v *DocumentView) TypedKey(e *fyne.KeyEvent) {
	switch e.Name {
	case fyne.KeyDelete:
		v.sess.KeyDown("Delete")
	case fyne.KeyBackspace:
		v.sess.KeyDown("Backspace")
	}
}

type documentViewRenderer struct {
	v       *DocumentView
	objects []fyne.CanvasObject
}

func (r *documentViewRenderer) Destroy()                     {}
func (r *documentViewRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *documentViewRenderer) MinSize() fyne.Size           { return fyne.NewSize(400, 300) }
func (r *documentViewRenderer) Refresh()                     { r.Layout(r.v.Size()); canvas.Refresh(r.v) }

// Layout refits the document. A changed widget size counts as a viewport
// resize, which closes any open tool popover.
func (r *documentViewRenderer) Layout(size fyne.Size) {
	v := r.v
	v.bg.Resize(size)
	v.bg.Move(fyne.NewPos(0, 0))
	v.fit(size)
	v.img.Move(v.origin)
	v.img.Resize(fyne.NewSize(v.docW*v.zoom, v.docH*v.zoom))

	vp := v.Viewport()
	if v.lastSize != (fyne.Size{}) && v.lastSize != size {
		v.sess.Resize(vp)
	} else {
		v.sess.SetViewport(vp)
	}
	v.lastSize = size
}

// PaletteTile is a palette entry. Tapping it creates the item at the
// document center; dragging it and releasing over the canvas drops it there.
type PaletteTile struct {
	widget.BaseWidget
	Label   string
	Payload dragdrop.Payload

	onTap  func(dragdrop.Payload)
	onDrop func(dragdrop.Payload, fyne.Position)

	dragging bool
	last     fyne.Position
}

func NewPaletteTile(label string, p dragdrop.Payload, onTap func(dragdrop.Payload), onDrop func(dragdrop.Payload, fyne.Position)) *PaletteTile {
	t := &PaletteTile{Label: label, Payload: p, onTap: onTap, onDrop: onDrop}
	t.ExtendBaseWidget(t)
	return t
}

func (t *PaletteTile) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 60, G: 60, B: 66, A: 255})
	bg.CornerRadius = 4
	bg.SetMinSize(fyne.NewSize(90, 36))
	return widget.NewSimpleRenderer(container.NewStack(bg, widget.NewLabelWithStyle(t.Label, fyne.TextAlignCenter, fyne.TextStyle{})))
}

func (t *PaletteTile) Tapped(*fyne.PointEvent) {
	if t.onTap != nil {
		t.onTap(t.Payload)
	}
}

func (t *PaletteTile) Dragged(e *fyne.DragEvent) {
	t.dragging = true
	t.last = e.AbsolutePosition
}

func (t *PaletteTile) DragEnd() {
	if !t.dragging {
		return
	}
	t.dragging = false
	if t.onDrop != nil {
		t.onDrop(t.Payload, t.last)
	}
}

// swatch is a tappable color square.
func swatch(c color.Color, tap func()) fyne.CanvasObject {
	r := canvas.NewRectangle(c)
	r.SetMinSize(fyne.NewSize(22, 22))
	b := widget.NewButton("", tap)
	b.Importance = widget.LowImportance
	return container.NewStack(r, b)
}
