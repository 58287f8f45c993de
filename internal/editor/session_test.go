/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"canvasstudio/internal/assets"
	"canvasstudio/internal/config"
	"canvasstudio/internal/crash"
	"canvasstudio/internal/dragdrop"
	"canvasstudio/internal/fonts"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/scene"
	"canvasstudio/internal/store"
	"canvasstudio/internal/tools"
	"canvasstudio/internal/vector"
)

var _ crash.Session = (*Session)(nil)

type fakeAssets struct{}

func (fakeAssets) Fetch(_ context.Context, url string) (assets.Asset, error) {
	if url == "" {
		return assets.Asset{}, assets.ErrUnavailable
	}
	return assets.Asset{URL: url, Width: 32, Height: 32}, nil
}

func testConfig() config.AppConfig {
	cfg := config.Defaults()
	cfg.Editor.RenderCoalesceMs = 60 * 60 * 1000
	return cfg
}

func newSession(t *testing.T, d Deps) *Session {
	t.Helper()
	if d.Config.Editor.DefaultWidth == 0 {
		d.Config = testConfig()
	}
	if d.Logger == nil {
		d.Logger = applog.Nop()
	}
	s := New(d)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDropUsesViewportCoordinates(t *testing.T) {
	s := newSession(t, Deps{})
	s.SetViewport(scene.Viewport{OriginX: 100, OriginY: 40, Zoom: 1})
	dt := dragdrop.NewMapTransfer()
	if err := dragdrop.Start(dt, dragdrop.Shape(vector.Circle)); err != nil {
		t.Fatal(err)
	}
	id, ok := s.Drop(context.Background(), dt, 220, 120)
	if !ok {
		t.Fatal("drop ignored")
	}
	o, _ := s.Canvas.ActiveObject()
	if o.ID != id || o.Position != (vector.Pt{X: 120, Y: 80}) {
		t.Fatalf("object = %+v", o)
	}
}

func TestMalformedDropsChangeNothing(t *testing.T) {
	s := newSession(t, Deps{})
	empty := dragdrop.NewMapTransfer()
	bad := dragdrop.NewMapTransfer()
	bad.SetData(dragdrop.MIMEType, `{"kind":"sticker"}`)
	junk := dragdrop.NewMapTransfer()
	junk.SetData(dragdrop.TextPlain, `{{{`)
	for _, dt := range []*dragdrop.MapTransfer{empty, bad, junk} {
		if _, ok := s.Drop(context.Background(), dt, 10, 10); ok {
			t.Fatalf("drop of %v accepted", dt.Data)
		}
	}
	if n := len(s.Canvas.Snapshot().Objects); n != 0 {
		t.Fatalf("objects = %d", n)
	}
}

func TestClickCreatesAtDocumentCenter(t *testing.T) {
	s := newSession(t, Deps{Assets: fakeAssets{}, IconURL: func(n string) string { return "http://icons/svg?name=" + n }})
	if _, ok := s.Click(context.Background(), dragdrop.Text("Hello", fonts.Bold, 40)); !ok {
		t.Fatal("click ignored")
	}
	o, _ := s.Canvas.ActiveObject()
	if o.Position != (vector.Pt{X: 400, Y: 300}) {
		t.Fatalf("position = %v", o.Position)
	}
	p := s.IconPayload("arrow")
	if p.URL != "http://icons/svg?name=arrow" || p.Name != "arrow" {
		t.Fatalf("payload = %+v", p)
	}
	if _, ok := s.Click(context.Background(), p); !ok {
		t.Fatal("icon click ignored")
	}
	if n := len(s.Canvas.Snapshot().Objects); n != 2 {
		t.Fatalf("objects = %d", n)
	}
}

func TestToolsDriveDrawingMode(t *testing.T) {
	s := newSession(t, Deps{})
	s.Tools.SetPencilWidth(6)
	if err := s.Tools.SetPencilColor("#FF0000"); err != nil {
		t.Fatal(err)
	}
	if s.PressTool(tools.Pencil) != tools.Pencil || !s.Canvas.Drawing() {
		t.Fatal("pencil should enter drawing mode")
	}
	if b := s.Canvas.Brush(); b.Width != 6 || b.Color.Hex() != "#FF0000" {
		t.Fatalf("brush = %+v", b)
	}
	s.Canvas.PointerDown(vector.Pt{X: 10, Y: 10})
	s.Canvas.PointerMove(vector.Pt{X: 50, Y: 60})
	id, ok := s.Canvas.PointerUp(vector.Pt{X: 90, Y: 10})
	if !ok || s.Canvas.ActiveID() != "" || !s.Canvas.Drawing() {
		t.Fatal("stroke should be created unselected in drawing mode")
	}
	d := s.Canvas.Snapshot()
	if o, _ := d.Find(id); o.Style.StrokeWidth != 6 || o.Style.Stroke.Hex() != "#FF0000" {
		t.Fatalf("stroke style = %+v", o.Style)
	}

	if s.OutsideClick() != tools.None || s.Canvas.Drawing() {
		t.Fatal("outside click should leave drawing mode")
	}
	s.PressTool(tools.Shapes)
	if s.Resize(scene.Viewport{OriginX: 5}) != tools.None {
		t.Fatal("resize should dismiss the tool")
	}
}

func TestKeyDownNeedsFocus(t *testing.T) {
	s := newSession(t, Deps{})
	s.Click(context.Background(), dragdrop.Shape(vector.Square))
	if s.KeyDown("Delete") {
		t.Fatal("unfocused delete")
	}
	s.SetFocused(true)
	if !s.KeyDown("Delete") || len(s.Canvas.Snapshot().Objects) != 0 {
		t.Fatal("focused delete failed")
	}

	cfg := testConfig()
	cfg.Editor.FocusDelete = false
	g := newSession(t, Deps{Config: cfg})
	g.Click(context.Background(), dragdrop.Shape(vector.Square))
	g.SetFocused(false)
	if !g.KeyDown("Backspace") {
		t.Fatal("global delete should not need focus")
	}
}

func TestSaveAndOpen(t *testing.T) {
	st, err := store.OpenFiles(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := newSession(t, Deps{Store: st})
	s.Click(context.Background(), dragdrop.Shape(vector.Hexagon))
	s.Panel.SetWidth(1000)
	id, err := s.Save(context.Background())
	if err != nil || id == "" || s.DocumentID() != id {
		t.Fatalf("save = %q, %v", id, err)
	}
	again, _ := s.Save(context.Background())
	if again != id {
		t.Fatal("second save should reuse the id")
	}

	s.NewDocument(100, 100)
	if s.DocumentID() != "" || len(s.Canvas.Snapshot().Objects) != 0 {
		t.Fatal("new document not empty")
	}
	if err := s.Open(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	d := s.Canvas.Snapshot()
	if d.Width != 1000 || d.Height != 750 || len(d.Objects) != 1 {
		t.Fatalf("opened %dx%d with %d objects", d.Width, d.Height, len(d.Objects))
	}
	if w, h := s.Panel.Dimensions(); w != 1000 || h != 750 {
		t.Fatalf("panel = %dx%d", w, h)
	}
	if err := s.Open(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenLoadsTextFonts(t *testing.T) {
	st, err := store.OpenFiles(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var (
		mu  sync.Mutex
		got []string
	)
	loader := fonts.NewLoader(fonts.FetchFunc(func(_ context.Context, r fonts.Request) error {
		mu.Lock()
		got = append(got, r.Families...)
		mu.Unlock()
		return nil
	}), fonts.LoaderOptions{Logger: applog.Nop()})
	s := newSession(t, Deps{Store: st, Fonts: loader})
	s.Click(context.Background(), dragdrop.Text("a", fonts.Regular, 20))
	id, err := s.Save(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Open(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for loader.Status(scene.DefaultFontFamily) != fonts.Loaded && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != scene.DefaultFontFamily {
		t.Fatalf("fetched %v", got)
	}
}

func TestAutosaveWithoutStore(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, Deps{ReportDir: dir})
	if _, err := s.Save(context.Background()); !errors.Is(err, ErrNoStore) {
		t.Fatalf("err = %v", err)
	}
	s.Click(context.Background(), dragdrop.Shape(vector.Star))
	where, err := s.Autosave(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(where) != dir {
		t.Fatalf("autosave at %s", where)
	}
	b, err := os.ReadFile(where)
	if err != nil {
		t.Fatal(err)
	}
	d, err := store.Decode(b)
	if err != nil || len(d.Objects) != 1 {
		t.Fatalf("autosave content: %v", err)
	}
}

func TestAutosaveWithStore(t *testing.T) {
	st, err := store.OpenFiles(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := newSession(t, Deps{Store: st})
	where, err := s.Autosave(context.Background())
	if err != nil || where != "store:"+s.DocumentID() {
		t.Fatalf("autosave = %q, %v", where, err)
	}
}
