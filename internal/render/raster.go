/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render is a software scene.Surface backed by fogleman/gg.
package render

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fogleman/gg"

	"canvasstudio/internal/fonts"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/scene"
	"canvasstudio/internal/vector"
)

// ImageSource returns decoded icon and image pixels by URL.
type ImageSource interface {
	Image(url string) (image.Image, bool)
}

// SelectionColor outlines the active object.
var SelectionColor = vector.MustHex("#3B82F6")

// Raster draws frames into an RGBA image and keeps the latest one.
type Raster struct {
	fonts  *fonts.Library
	images ImageSource
	log    *slog.Logger

	mu     sync.RWMutex
	latest image.Image
	frame  scene.Frame
	hooks  []func(scene.Frame, image.Image)
}

// NewRaster creates a surface. lib and images may be nil; text then uses the
// built-in fallback face and assets draw as placeholders.
func NewRaster(lib *fonts.Library, images ImageSource, logger *slog.Logger) *Raster {
	return &Raster{fonts: lib, images: images, log: applog.Or(logger, "render")}
}

// Render implements scene.Surface.
func (r *Raster) Render(f scene.Frame) error {
	if f.Doc.Width <= 0 || f.Doc.Height <= 0 {
		return fmt.Errorf("render frame %d: empty document %dx%d", f.Seq, f.Doc.Width, f.Doc.Height)
	}
	img := r.Draw(f)

	r.mu.Lock()
	r.latest = img
	r.frame = f
	hooks := append([]func(scene.Frame, image.Image){}, r.hooks...)
	r.mu.Unlock()

	for _, h := range hooks {
		h(f, img)
	}
	return nil
}

// OnFrame registers fn to run after every rendered frame.
func (r *Raster) OnFrame(fn func(scene.Frame, image.Image)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// Latest returns the last rendered image and its frame.
func (r *Raster) Latest() (image.Image, scene.Frame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.frame, r.latest != nil
}

// EncodePNG writes the last rendered image as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	img, _, ok := r.Latest()
	if !ok {
		return fmt.Errorf("encode png: nothing rendered yet")
	}
	if err := gg.NewContextForImage(img).EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// PNG returns the last rendered image as PNG bytes.
func (r *Raster) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Draw paints f into a new image without touching the stored frame.
func (r *Raster) Draw(f scene.Frame) image.Image {
	dc := gg.NewContext(f.Doc.Width, f.Doc.Height)
	dc.SetColor(f.Doc.Background)
	dc.Clear()

	for _, o := range f.Doc.Objects {
		dc.Push()
		r.drawObject(dc, o)
		dc.Pop()
	}
	if len(f.Stroke) > 1 {
		drawPolyline(dc, f.Stroke, f.Brush.Color, f.Brush.Width)
	}
	if f.ActiveID != "" && !f.Drawing {
		if o, _ := f.Doc.Find(f.ActiveID); o != nil {
			b := o.Bounds()
			dc.SetColor(SelectionColor)
			dc.SetLineWidth(1.5)
			dc.SetDash(4, 3)
			dc.DrawRectangle(b.X-2, b.Y-2, b.W+4, b.H+4)
			dc.Stroke()
			dc.SetDash()
		}
	}
	return dc.Image()
}

func (r *Raster) drawObject(dc *gg.Context, o *scene.Object) {
	sx, sy := o.ScaleX, o.ScaleY
	if sx == 0 && sy == 0 {
		sx, sy = 1, 1
	}
	dc.Translate(o.Position.X, o.Position.Y)
	dc.Rotate(gg.Radians(o.Rotation))

	switch {
	case o.Shape != nil:
		dc.Scale(sx, sy)
		drawShape(dc, o.Shape)
		fillAndStroke(dc, o.Style)
	case o.Path != nil:
		dc.Scale(sx, sy)
		drawPolyline(dc, o.Path.Points, o.Style.Stroke, o.Style.StrokeWidth)
	case o.Asset != nil:
		dc.Scale(sx, sy)
		r.drawAsset(dc, o.Asset)
	case o.Text != nil:
		r.drawText(dc, o.Text, o.Style.Fill, sx, sy)
	}
}

func drawShape(dc *gg.Context, s *scene.ShapeData) {
	w, h := vector.ShapeExtent(s.Kind, s.Size)
	switch s.Kind {
	case vector.Circle:
		dc.DrawEllipse(0, 0, w/2, h/2)
	case vector.Square, vector.Rectangle:
		dc.DrawRectangle(-w/2, -h/2, w, h)
	default:
		trace(dc, vector.Polygon(vector.ShapeVertices(s.Kind, s.Size)))
	}
}

// trace replays p onto the context's current path.
func trace(dc *gg.Context, p vector.Path) {
	for _, c := range p.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			dc.MoveTo(d[0], d[1])
		case vector.LineTo:
			dc.LineTo(d[0], d[1])
		case vector.QuadTo:
			dc.QuadraticTo(d[0], d[1], d[2], d[3])
		case vector.CubicTo:
			dc.CubicTo(d[0], d[1], d[2], d[3], d[4], d[5])
		case vector.Close:
			dc.ClosePath()
		}
	}
}

func fillAndStroke(dc *gg.Context, st scene.Style) {
	if st.Fill.A > 0 {
		dc.SetColor(st.Fill)
		dc.FillPreserve()
	}
	if st.StrokeWidth > 0 && st.Stroke.A > 0 {
		dc.SetColor(st.Stroke)
		dc.SetLineWidth(st.StrokeWidth)
		dc.StrokePreserve()
	}
	dc.ClearPath()
}

func drawPolyline(dc *gg.Context, pts []vector.Pt, c vector.Color, width float64) {
	if len(pts) == 0 || width <= 0 {
		return
	}
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	if len(pts) == 1 {
		dc.DrawCircle(pts[0].X, pts[0].Y, width/2)
		dc.Fill()
		return
	}
	trace(dc, vector.Polyline(pts))
	dc.Stroke()
}

func (r *Raster) drawAsset(dc *gg.Context, a *scene.AssetData) {
	if r.images != nil {
		if img, ok := r.images.Image(a.URL); ok {
			b := img.Bounds()
			// decoded pixels may be larger than the intrinsic size (rasterized SVG)
			dc.Scale(a.Width/float64(b.Dx()), a.Height/float64(b.Dy()))
			dc.DrawImageAnchored(img, 0, 0, 0.5, 0.5)
			return
		}
	}
	dc.SetColor(vector.MustHex("#E5E7EB"))
	dc.DrawRectangle(-a.Width/2, -a.Height/2, a.Width, a.Height)
	dc.Fill()
}

func (r *Raster) drawText(dc *gg.Context, t *scene.TextData, c vector.Color, sx, sy float64) {
	spec := t.Spec()
	spec.Size *= sy
	fallback := true
	if r.fonts != nil {
		face, fb := r.fonts.Face(spec)
		dc.SetFontFace(face)
		fallback = fb
		if !fb {
			defer face.Close()
		}
	}
	if fallback {
		r.log.Debug("drawing text with fallback face", slog.String("family", t.Family))
	}
	lines := strings.Split(t.Content, "\n")
	lh := dc.FontHeight() * 1.2
	w := t.Width * sx
	var x, ax float64
	switch t.Align {
	case scene.AlignLeft:
		x, ax = -w/2, 0
	case scene.AlignRight:
		x, ax = w/2, 1
	default:
		x, ax = 0, 0.5
	}
	top := -lh * float64(len(lines)) / 2
	dc.SetColor(c)
	for i, ln := range lines {
		dc.DrawStringAnchored(ln, x, top+lh*(float64(i)+0.5), ax, 0.5)
	}
}
