/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"math"
	"slices"

	"canvasstudio/internal/fonts"
	"canvasstudio/internal/vector"
)

// Default document and creation constants.
const (
	DefaultWidth  = 800
	DefaultHeight = 600

	// ShapeSize is the nominal size of a new shape; circles get radius ShapeSize/2.
	ShapeSize = 100
	// IconSize and ImageSize are the longer side of a new icon or image.
	IconSize  = 64
	ImageSize = 240

	DefaultTextSize   = 32
	DefaultTextLabel  = "Text"
	DefaultFontFamily = "Sarabun"
)

var (
	DefaultBackground = vector.White
	DefaultShapeFill  = vector.MustHex("#4F46E5")
	DefaultTextFill   = vector.Black
)

// Kind is the variant of an Object.
type Kind string

const (
	KindShape Kind = "shape"
	KindText  Kind = "text"
	KindIcon  Kind = "icon"
	KindImage Kind = "image"
	KindPath  Kind = "path"
)

// Align is horizontal text alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Valid reports whether a is one of the three alignments.
func (a Align) Valid() bool { return a == AlignLeft || a == AlignCenter || a == AlignRight }

// Document is the canvas being edited. Objects are drawn in slice order.
type Document struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Background vector.Color `json:"background"`
	Objects    []*Object    `json:"objects"`
}

// NewDocument returns an empty w×h document with a white background.
// Non-positive dimensions fall back to 800×600.
func NewDocument(w, h int) Document {
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth, DefaultHeight
	}
	return Document{Width: w, Height: h, Background: DefaultBackground, Objects: []*Object{}}
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	out := d
	out.Objects = make([]*Object, len(d.Objects))
	for i, o := range d.Objects {
		out.Objects[i] = o.Clone()
	}
	return out
}

// Find returns the object with id.
func (d *Document) Find(id string) (*Object, int) {
	for i, o := range d.Objects {
		if o.ID == id {
			return o, i
		}
	}
	return nil, -1
}

// Center is the middle of the document in canvas coordinates.
func (d Document) Center() vector.Pt { return vector.Pt{X: float64(d.Width) / 2, Y: float64(d.Height) / 2} }

type Style struct {
	Fill        vector.Color `json:"fill"`
	Stroke      vector.Color `json:"stroke"`
	StrokeWidth float64      `json:"strokeWidth"`
}

type ShapeData struct {
	Kind vector.ShapeKind `json:"kind"`
	Size float64          `json:"size"`
}

type TextData struct {
	Content string       `json:"content"`
	Family  string       `json:"family"`
	Size    float64      `json:"size"`
	Weight  fonts.Weight `json:"weight"`
	Align   Align        `json:"align"`
	// Width and Height are the measured extent of Content.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Spec is the font request for the text.
func (t TextData) Spec() fonts.Spec {
	return fonts.Spec{Family: t.Family, Size: t.Size, Weight: t.Weight}
}

// AssetData is the source of an icon or image and its intrinsic size.
type AssetData struct {
	URL    string  `json:"url"`
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PathData holds freehand points relative to the object position.
type PathData struct {
	Points []vector.Pt `json:"points"`
}

// Object is one placed item. Position is the center of the object; exactly
// one of the variant pointers matching Kind is set.
type Object struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Position vector.Pt `json:"position"`
	ScaleX   float64   `json:"scaleX"`
	ScaleY   float64   `json:"scaleY"`
	Rotation float64   `json:"rotation"` // degrees
	Style    Style     `json:"style"`

	Shape *ShapeData `json:"shape,omitempty"`
	Text  *TextData  `json:"text,omitempty"`
	Asset *AssetData `json:"asset,omitempty"`
	Path  *PathData  `json:"path,omitempty"`
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := *o
	if o.Shape != nil {
		s := *o.Shape
		c.Shape = &s
	}
	if o.Text != nil {
		t := *o.Text
		c.Text = &t
	}
	if o.Asset != nil {
		a := *o.Asset
		c.Asset = &a
	}
	if o.Path != nil {
		c.Path = &PathData{Points: slices.Clone(o.Path.Points)}
	}
	return &c
}

// Extent is the untransformed width and height of the object.
func (o *Object) Extent() (w, h float64) {
	switch {
	case o.Shape != nil:
		return vector.ShapeExtent(o.Shape.Kind, o.Shape.Size)
	case o.Text != nil:
		return o.Text.Width, o.Text.Height
	case o.Asset != nil:
		return o.Asset.Width, o.Asset.Height
	case o.Path != nil:
		b := vector.BoundsOf(o.Path.Points)
		pad := o.Style.StrokeWidth
		return b.W + pad, b.H + pad
	}
	return 0, 0
}

// LocalRect is the untransformed box centered on the origin.
func (o *Object) LocalRect() vector.Rect {
	w, h := o.Extent()
	return vector.CenteredRect(vector.Pt{}, w, h)
}

// Transform maps local coordinates to canvas coordinates.
func (o *Object) Transform() vector.Affine2D {
	sx, sy := o.ScaleX, o.ScaleY
	if sx == 0 && sy == 0 {
		sx, sy = 1, 1
	}
	return vector.Translate(o.Position.X, o.Position.Y).
		Mul(vector.Rotate(o.Rotation)).
		Mul(vector.Scale(sx, sy))
}

// Bounds is the axis-aligned box of the object in canvas coordinates.
func (o *Object) Bounds() vector.Rect { return o.Transform().TransformRect(o.LocalRect()) }

// Hit reports whether canvas point p falls on the object.
func (o *Object) Hit(p vector.Pt) bool {
	inv, ok := o.Transform().Invert()
	if !ok {
		return false
	}
	q := inv.Apply(p)
	r := o.LocalRect()
	if o.Shape != nil && o.Shape.Kind == vector.Circle {
		rx, ry := r.W/2, r.H/2
		if rx == 0 || ry == 0 {
			return false
		}
		dx, dy := q.X/rx, q.Y/ry
		return dx*dx+dy*dy <= 1
	}
	if o.Path != nil {
		// generous for thin strokes
		pad := math.Max(4, o.Style.StrokeWidth/2)
		r = r.Inset(-pad, -pad)
	}
	return r.Contains(q)
}
