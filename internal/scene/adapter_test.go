/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"canvasstudio/internal/assets"
	"canvasstudio/internal/dragdrop"
	"canvasstudio/internal/fonts"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/tools"
	"canvasstudio/internal/vector"
)

type recordingSurface struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *recordingSurface) Render(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *recordingSurface) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recordingSurface) last() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[len(r.frames)-1]
}

type fakeAssets struct {
	asset assets.Asset
	err   error
	calls int
}

func (f *fakeAssets) Fetch(_ context.Context, url string) (assets.Asset, error) {
	f.calls++
	if f.err != nil {
		return assets.Asset{}, f.err
	}
	a := f.asset
	a.URL = url
	return a, nil
}

type fixedMeasurer struct{ w, h float64 }

func (m fixedMeasurer) Measure(string, fonts.Spec) (float64, float64) { return m.w, m.h }

func newTestAdapter(t *testing.T, o Options) (*Adapter, *recordingSurface) {
	t.Helper()
	s := &recordingSurface{}
	if o.Logger == nil {
		o.Logger = applog.Nop()
	}
	if o.Coalesce == 0 {
		o.Coalesce = time.Hour
	}
	n := 0
	o.NewID = func() string {
		n++
		return "obj-" + string(rune('0'+n))
	}
	a := NewAdapter(s, o)
	t.Cleanup(a.Close)
	return a, s
}

func TestCreateCircleCenteredAtDropPoint(t *testing.T) {
	a, s := newTestAdapter(t, Options{})
	id, ok := a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Circle), 120, 80)
	if !ok || id == "" {
		t.Fatal("circle not created")
	}
	o, ok := a.ActiveObject()
	if !ok || o.ID != id {
		t.Fatalf("active = %v %v, want %s", o.ID, ok, id)
	}
	b := o.Bounds()
	if c := b.Center(); math.Abs(c.X-120) > 1e-9 || math.Abs(c.Y-80) > 1e-9 {
		t.Fatalf("center = %v", c)
	}
	if math.Abs(b.W/2-50) > 1e-9 {
		t.Fatalf("radius = %v, want 50", b.W/2)
	}
	if !o.Hit(vector.Pt{X: 120, Y: 80}) || o.Hit(vector.Pt{X: 120 + 49, Y: 80 + 49}) {
		t.Fatal("circle hit test wrong")
	}
	a.Flush()
	if s.count() != 1 || s.last().ActiveID != id {
		t.Fatalf("frames = %d", s.count())
	}
}

func TestPolygonOutlineMatchesBoundsAndHit(t *testing.T) {
	for _, kind := range []vector.ShapeKind{vector.Triangle, vector.Pentagon, vector.Star} {
		a, _ := newTestAdapter(t, Options{})
		a.CreateFromPayload(context.Background(), dragdrop.Shape(kind), 100, 100)
		o, _ := a.ActiveObject()

		drawn := vector.ShapeVertices(kind, ShapeSize)
		for i := range drawn {
			drawn[i] = o.Transform().Apply(drawn[i])
		}
		want := vector.BoundsOf(drawn)
		got := o.Bounds()
		if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 ||
			math.Abs(got.W-want.W) > 1e-9 || math.Abs(got.H-want.H) > 1e-9 {
			t.Fatalf("%s: bounds %+v, drawn %+v", kind, got, want)
		}
		if c := got.Center(); math.Abs(c.X-100) > 1e-9 || math.Abs(c.Y-100) > 1e-9 {
			t.Fatalf("%s: center = %v", kind, c)
		}
		// the apex is drawn at the top of the box
		if !o.Hit(vector.Pt{X: 100, Y: want.Y + 1}) {
			t.Fatalf("%s: apex not hit", kind)
		}
		if o.Hit(vector.Pt{X: 100, Y: want.Y - 1}) || o.Hit(vector.Pt{X: 100, Y: want.Y + want.H + 1}) {
			t.Fatalf("%s: hit outside the drawn outline", kind)
		}
	}
}

func TestCreateRectangleExtent(t *testing.T) {
	a, _ := newTestAdapter(t, Options{})
	a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Rectangle), 0, 0)
	o, _ := a.ActiveObject()
	if w, h := o.Extent(); w != 150 || h != 100 {
		t.Fatalf("extent = %vx%v", w, h)
	}
}

func TestCreateTextUsesDefaultsAndMeasure(t *testing.T) {
	a, _ := newTestAdapter(t, Options{Measurer: fixedMeasurer{w: 90, h: 40}})
	_, ok := a.CreateFromPayload(context.Background(), dragdrop.Text("", 0, 0), 400, 300)
	if !ok {
		t.Fatal("text not created")
	}
	o, _ := a.ActiveObject()
	if o.Text.Content != DefaultTextLabel || o.Text.Size != DefaultTextSize || o.Text.Family != DefaultFontFamily {
		t.Fatalf("text = %+v", *o.Text)
	}
	if o.Text.Weight != fonts.Regular || o.Text.Align != AlignCenter {
		t.Fatalf("weight/align = %v/%v", o.Text.Weight, o.Text.Align)
	}
	b := o.Bounds()
	if b.X != 400-45 || b.Y != 300-20 {
		t.Fatalf("bounds = %+v", b)
	}
}

func TestCreateIconScalesToIconSize(t *testing.T) {
	f := &fakeAssets{asset: assets.Asset{Width: 24, Height: 12}}
	a, _ := newTestAdapter(t, Options{Assets: f})
	_, ok := a.CreateFromPayload(context.Background(), dragdrop.Icon("http://x/a.svg", "a"), 10, 10)
	if !ok {
		t.Fatal("icon not created")
	}
	o, _ := a.ActiveObject()
	if b := o.Bounds(); math.Abs(b.W-IconSize) > 1e-9 || math.Abs(b.H-IconSize/2) > 1e-9 {
		t.Fatalf("bounds = %+v", b)
	}
}

func TestCreateIconFetchFailureAddsNothing(t *testing.T) {
	f := &fakeAssets{err: errors.New("boom")}
	a, s := newTestAdapter(t, Options{Assets: f})
	if _, ok := a.CreateFromPayload(context.Background(), dragdrop.Image("http://x/a.png", "a"), 10, 10); ok {
		t.Fatal("expected failure")
	}
	if n := len(a.Snapshot().Objects); n != 0 || f.calls != 1 {
		t.Fatalf("objects = %d calls = %d", n, f.calls)
	}
	a.Flush()
	if s.count() != 0 {
		t.Fatal("no render expected")
	}
}

func TestCreateUnknownKindIsIgnored(t *testing.T) {
	a, _ := newTestAdapter(t, Options{})
	if _, ok := a.CreateFromPayload(context.Background(), dragdrop.Payload{Kind: "sticker"}, 1, 1); ok {
		t.Fatal("unknown kind created something")
	}
	if _, ok := a.CreateFromPayload(context.Background(), dragdrop.Payload{Kind: dragdrop.KindShape, ShapeKind: "blob"}, 1, 1); ok {
		t.Fatal("unknown shape created something")
	}
	if len(a.Snapshot().Objects) != 0 {
		t.Fatal("document changed")
	}
}

func TestRemoveActiveObject(t *testing.T) {
	a, _ := newTestAdapter(t, Options{})
	if a.RemoveActiveObject() {
		t.Fatal("remove with no selection should be a no-op")
	}
	a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Square), 50, 50)
	a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Star), 200, 200)
	if !a.RemoveActiveObject() {
		t.Fatal("remove failed")
	}
	d := a.Snapshot()
	if len(d.Objects) != 1 || d.Objects[0].Shape.Kind != vector.Square {
		t.Fatalf("objects = %+v", d.Objects)
	}
	if a.ActiveID() != "" {
		t.Fatal("selection not cleared")
	}
}

func TestHandleKeyRequiresFocus(t *testing.T) {
	a, _ := newTestAdapter(t, Options{})
	a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Square), 50, 50)
	if a.HandleKey("Delete") {
		t.Fatal("unfocused delete handled")
	}
	a.SetFocused(true)
	if a.HandleKey("Enter") {
		t.Fatal("enter should be ignored")
	}
	if !a.HandleKey("Backspace") || len(a.Snapshot().Objects) != 0 {
		t.Fatal("backspace did not delete")
	}
}

func TestPencilStrokeUsesCapturedBrush(t *testing.T) {
	a, _ := newTestAdapter(t, Options{})
	a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Square), 50, 50)
	a.SetBrush(tools.Brush{Color: vector.MustHex("#FF0000"), Width: 6})
	a.SetToolMode(tools.Pencil)
	if !a.Drawing() || a.ActiveID() != "" {
		t.Fatal("entering drawing mode should clear selection")
	}

	a.PointerDown(vector.Pt{X: 10, Y: 10})
	a.SetBrush(tools.Brush{Color: vector.Black, Width: 1})
	a.PointerMove(vector.Pt{X: 20, Y: 30})
	id, ok := a.PointerUp(vector.Pt{X: 30, Y: 10})
	if !ok {
		t.Fatal("stroke not created")
	}
	if a.ActiveID() != "" || !a.Drawing() {
		t.Fatal("stroke must not be selected and mode must stay drawing")
	}
	snap := a.Snapshot()
	o, _ := snap.Find(id)
	if o.Kind != KindPath || o.Style.StrokeWidth != 6 || o.Style.Stroke.Hex() != "#FF0000" {
		t.Fatalf("stroke = %+v", o.Style)
	}
	if o.Position != (vector.Pt{X: 20, Y: 20}) || len(o.Path.Points) != 3 || o.Path.Points[0] != (vector.Pt{X: -10, Y: -10}) {
		t.Fatalf("path = %v at %v", o.Path.Points, o.Position)
	}
	if _, ok := a.SelectAt(o.Position); ok {
		t.Fatal("selection disabled while drawing")
	}
}

func TestLeavingDrawingModeClearsSelectionOnlyOnChange(t *testing.T) {
	a, _ := newTestAdapter(t, Options{})
	id, _ := a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Square), 50, 50)
	a.SetToolMode(tools.Shapes)
	if a.ActiveID() != id {
		t.Fatal("switching between selection tools must keep the selection")
	}
	a.SetToolMode(tools.Pencil)
	a.SetToolMode(tools.Select)
	if a.Drawing() || a.ActiveID() != "" || a.Mode() != tools.Select {
		t.Fatal("unexpected state after leaving drawing mode")
	}
}

func TestSelectAndDrag(t *testing.T) {
	a, _ := newTestAdapter(t, Options{})
	id, _ := a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Square), 100, 100)
	a.ClearSelection()

	a.PointerDown(vector.Pt{X: 110, Y: 110})
	if a.ActiveID() != id {
		t.Fatal("pointer down should select")
	}
	a.PointerMove(vector.Pt{X: 130, Y: 100})
	a.PointerUp(vector.Pt{X: 130, Y: 100})
	o, _ := a.ActiveObject()
	if o.Position != (vector.Pt{X: 120, Y: 90}) {
		t.Fatalf("position = %v", o.Position)
	}
	if _, ok := a.SelectAt(vector.Pt{X: 700, Y: 500}); ok || a.ActiveID() != "" {
		t.Fatal("click on empty canvas should clear selection")
	}
}

func TestStyleUpdates(t *testing.T) {
	a, _ := newTestAdapter(t, Options{Measurer: fixedMeasurer{w: 10, h: 10}})
	if a.UpdateActiveObjectFill("#112233") {
		t.Fatal("fill without selection")
	}
	a.CreateFromPayload(context.Background(), dragdrop.Text("Hi", fonts.Bold, 20), 0, 0)
	if a.UpdateActiveObjectFill("nope") {
		t.Fatal("invalid color accepted")
	}
	fam, size, w, al := "Kanit", 48.0, fonts.Weight(650), AlignRight
	if !a.UpdateActiveObjectFont(FontPatch{Family: &fam, Size: &size, Weight: &w, Align: &al}) {
		t.Fatal("font patch rejected")
	}
	width := 3.0
	a.UpdateActiveObjectFill("#112233")
	a.UpdateActiveObjectStroke(StrokePatch{Color: "#abc", Width: &width})
	a.UpdateActiveObjectText("Hello")

	o, _ := a.ActiveObject()
	if o.Text.Family != "Kanit" || o.Text.Size != 48 || o.Text.Weight != fonts.Weight(700) || o.Text.Align != AlignRight {
		t.Fatalf("text = %+v", *o.Text)
	}
	if o.Text.Content != "Hello" || o.Style.Fill.Hex() != "#112233" || o.Style.Stroke.Hex() != "#AABBCC" || o.Style.StrokeWidth != 3 {
		t.Fatalf("style = %+v", o.Style)
	}
}

func TestFontPatchIgnoredForShapes(t *testing.T) {
	a, _ := newTestAdapter(t, Options{})
	a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Hexagon), 0, 0)
	fam := "Kanit"
	if a.UpdateActiveObjectFont(FontPatch{Family: &fam}) {
		t.Fatal("font patch applied to a shape")
	}
}

func TestDocumentSizeAndBackground(t *testing.T) {
	a, _ := newTestAdapter(t, Options{Width: -1})
	if d := a.Snapshot(); d.Width != 800 || d.Height != 600 {
		t.Fatalf("default size = %dx%d", d.Width, d.Height)
	}
	if a.SetDocumentSize(0, 100) {
		t.Fatal("zero width accepted")
	}
	a.SetDocumentSize(1080, 1920)
	a.SetBackgroundColor("#000")
	d := a.Snapshot()
	if d.Width != 1080 || d.Height != 1920 || d.Background != vector.Black {
		t.Fatalf("doc = %dx%d %v", d.Width, d.Height, d.Background)
	}
}

func TestRendersAreCoalesced(t *testing.T) {
	a, s := newTestAdapter(t, Options{Coalesce: 20 * time.Millisecond})
	for i := 0; i < 10; i++ {
		a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Triangle), float64(i), 0)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)
	if n := s.count(); n != 1 {
		t.Fatalf("renders = %d, want 1", n)
	}
	if len(s.last().Doc.Objects) != 10 {
		t.Fatal("frame missing objects")
	}
}

func TestRefreshTextRemeasures(t *testing.T) {
	m := &switchMeasurer{w: 10}
	a, _ := newTestAdapter(t, Options{Measurer: m})
	a.CreateFromPayload(context.Background(), dragdrop.Text("abc", fonts.Regular, 20), 0, 0)
	m.set(70)
	a.RefreshText("Other")
	o, _ := a.ActiveObject()
	if o.Text.Width != 10 {
		t.Fatal("unrelated family remeasured")
	}
	a.RefreshText(DefaultFontFamily)
	o, _ = a.ActiveObject()
	if o.Text.Width != 70 {
		t.Fatalf("width = %v", o.Text.Width)
	}
}

type switchMeasurer struct {
	mu sync.Mutex
	w  float64
}

func (m *switchMeasurer) set(w float64) {
	m.mu.Lock()
	m.w = w
	m.mu.Unlock()
}

func (m *switchMeasurer) Measure(string, fonts.Spec) (float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.w, 20
}

func TestLoadReplacesDocument(t *testing.T) {
	a, _ := newTestAdapter(t, Options{})
	a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Square), 0, 0)
	d := NewDocument(300, 200)
	d.Objects = append(d.Objects, &Object{ID: "x", Kind: KindShape, ScaleX: 1, ScaleY: 1, Shape: &ShapeData{Kind: vector.Diamond, Size: 40}})
	a.Load(d)
	d.Objects[0].Position.X = 99
	got := a.Snapshot()
	if got.Width != 300 || len(got.Objects) != 1 || got.Objects[0].Position.X != 0 || a.ActiveID() != "" {
		t.Fatalf("loaded = %+v", got)
	}
}

func TestClosedAdapterIgnoresMutations(t *testing.T) {
	a, s := newTestAdapter(t, Options{})
	a.Close()
	if _, ok := a.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Square), 0, 0); ok {
		t.Fatal("closed adapter created an object")
	}
	a.Flush()
	if s.count() != 0 {
		t.Fatal("closed adapter rendered")
	}
}

func TestStaleFrameIsNotDelivered(t *testing.T) {
	a, s := newTestAdapter(t, Options{})
	a.deliver(Frame{Seq: 2})
	a.deliver(Frame{Seq: 1})
	a.deliver(Frame{Seq: 2})
	if s.count() != 1 || s.last().Seq != 2 {
		t.Fatalf("frames = %d, last seq %d", s.count(), s.last().Seq)
	}
	a.deliver(Frame{Seq: 3})
	if s.count() != 2 || s.last().Seq != 3 {
		t.Fatalf("newer frame dropped: %d frames", s.count())
	}
}

func TestStrokeInProgressDiscardedOnClose(t *testing.T) {
	a, _ := newTestAdapter(t, Options{})
	a.SetToolMode(tools.Pencil)
	a.PointerDown(vector.Pt{X: 10, Y: 10})
	a.PointerMove(vector.Pt{X: 40, Y: 40})
	a.Close()
	if _, ok := a.PointerUp(vector.Pt{X: 50, Y: 10}); ok {
		t.Fatal("stroke created after close")
	}
	if n := len(a.Snapshot().Objects); n != 0 {
		t.Fatalf("objects = %d", n)
	}
}
