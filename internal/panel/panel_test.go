/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package panel

import (
	"context"
	"testing"
	"time"

	"canvasstudio/internal/dragdrop"
	"canvasstudio/internal/fonts"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/scene"
	"canvasstudio/internal/vector"
)

func newCanvas(t *testing.T) *scene.Adapter {
	t.Helper()
	a := scene.NewAdapter(nil, scene.Options{Coalesce: time.Hour, Logger: applog.Nop()})
	t.Cleanup(a.Close)
	return a
}

func newLoader(fetch fonts.FetchFunc) *fonts.Loader {
	return fonts.NewLoader(fetch, fonts.LoaderOptions{
		Timeout: 2 * time.Second,
		Catalog: fonts.NewCatalog([]string{"Sarabun", "Kanit"}, []string{"Chakra Petch", "Bai Jamjuree"}),
		Logger:  applog.Nop(),
	})
}

func TestLockedWidthRecomputesHeight(t *testing.T) {
	c := newCanvas(t)
	p := New(c, nil, applog.Nop())
	if !p.Locked() {
		t.Fatal("lock should start engaged")
	}
	p.SetWidth(1000)
	if w, h := p.Dimensions(); w != 1000 || h != 750 {
		t.Fatalf("inputs = %dx%d", w, h)
	}
	if d := c.Snapshot(); d.Width != 1000 || d.Height != 750 {
		t.Fatalf("document = %dx%d", d.Width, d.Height)
	}
	p.SetHeight(300)
	if w, h := p.Dimensions(); w != 400 || h != 300 {
		t.Fatalf("inputs = %dx%d", w, h)
	}
}

func TestLockedEditsUseRoundedRatio(t *testing.T) {
	c := newCanvas(t)
	p := New(c, nil, applog.Nop())
	p.ApplyPreset("16:9")
	r := 1920.0 / 1080.0
	for _, w := range []int{1, 333, 1001, 4097} {
		p.SetWidth(w)
		if _, h := p.Dimensions(); h != int(float64(w)/r+0.5) {
			t.Fatalf("width %d gave height %d", w, h)
		}
	}
	p.SetHeight(77)
	if w, _ := p.Dimensions(); w != 137 {
		t.Fatalf("height 77 gave width %d", w)
	}
}

func TestUnlockedEditsOneAxis(t *testing.T) {
	c := newCanvas(t)
	p := New(c, nil, applog.Nop())
	p.ToggleLock()
	p.SetWidth(1200)
	if d := c.Snapshot(); d.Width != 1200 || d.Height != 600 {
		t.Fatalf("document = %dx%d", d.Width, d.Height)
	}
	p.ToggleLock()
	if p.Ratio() != 800.0/600.0 {
		t.Fatal("toggling the lock must not recapture the ratio")
	}
}

func TestBlurResetsNonPositive(t *testing.T) {
	c := newCanvas(t)
	p := New(c, nil, applog.Nop())
	p.SetWidth(1600)
	p.ToggleLock()
	p.SetHeight(0)
	if d := c.Snapshot(); d.Width != 1600 || d.Height != 1200 {
		t.Fatalf("invalid input reached the document: %dx%d", d.Width, d.Height)
	}
	p.Blur()
	if w, h := p.Dimensions(); w != 800 || h != 600 {
		t.Fatalf("inputs = %dx%d", w, h)
	}
	if d := c.Snapshot(); d.Width != 800 || d.Height != 600 {
		t.Fatalf("document = %dx%d", d.Width, d.Height)
	}
}

func TestPresetsRefreshRatio(t *testing.T) {
	c := newCanvas(t)
	p := New(c, nil, applog.Nop())
	if p.ApplyPreset("2:1") {
		t.Fatal("unknown preset applied")
	}
	p.ApplyPreset("9:16")
	if d := c.Snapshot(); d.Width != 1080 || d.Height != 1920 {
		t.Fatalf("document = %dx%d", d.Width, d.Height)
	}
	p.SetWidth(540)
	if _, h := p.Dimensions(); h != 960 {
		t.Fatalf("height = %d", h)
	}
}

func TestSwatchTargetsActiveObjectOrBackground(t *testing.T) {
	c := newCanvas(t)
	p := New(c, nil, applog.Nop())
	if !p.PickSwatch(5) || c.Snapshot().Background != vector.Black {
		t.Fatal("swatch without selection should set the background")
	}
	c.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Circle), 10, 10)
	p.PickSwatch(8)
	o, _ := c.ActiveObject()
	if o.Style.Fill != Swatches[8] {
		t.Fatalf("fill = %v", o.Style.Fill)
	}
	if p.PickSwatch(len(Swatches)) {
		t.Fatal("out of range swatch")
	}
}

func TestStrokeAndFillNeedSelection(t *testing.T) {
	c := newCanvas(t)
	p := New(c, nil, applog.Nop())
	if p.SetFill("#FF0000") || p.SetStrokeColor("#FF0000") || p.SetStrokeWidth(3) {
		t.Fatal("edits with no active object should be no-ops")
	}
	c.CreateFromPayload(context.Background(), dragdrop.Shape(vector.Pentagon), 10, 10)
	p.SetStrokeColor("#00FF00")
	p.SetStrokeWidth(4)
	v := p.View()
	if !v.Active || v.Stroke != "#00FF00" || v.StrokeWidth != 4 || v.ActiveKind != scene.KindShape {
		t.Fatalf("view = %+v", v)
	}
}

func TestFontSizeClampedAndWeightSnapped(t *testing.T) {
	c := newCanvas(t)
	p := New(c, nil, applog.Nop())
	c.CreateFromPayload(context.Background(), dragdrop.Text("Hi", fonts.Regular, 24), 10, 10)
	p.SetFontSize(4)
	if v := p.View(); v.FontSize != MinFontSize {
		t.Fatalf("size = %v", v.FontSize)
	}
	p.SetFontSize(999)
	p.SetFontWeight(fonts.Weight(260))
	p.SetAlign(scene.AlignLeft)
	v := p.View()
	if v.FontSize != MaxFontSize || v.FontWeight != fonts.Light || v.Align != scene.AlignLeft {
		t.Fatalf("view = %+v", v)
	}
	if p.SetAlign("justify") {
		t.Fatal("invalid alignment accepted")
	}
}

func TestSelectFontIsOptimistic(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	l := newLoader(func(ctx context.Context, req fonts.Request) error {
		started <- struct{}{}
		<-release
		return nil
	})
	c := newCanvas(t)
	p := New(c, l, applog.Nop())
	c.CreateFromPayload(context.Background(), dragdrop.Text("Hi", fonts.Regular, 24), 10, 10)

	done, ok := p.SelectFont(context.Background(), "Chakra Petch")
	if !ok {
		t.Fatal("select font rejected")
	}
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("load never started")
	}
	v := p.View()
	if v.FontFamily != "Chakra Petch" || !v.FontLoading {
		t.Fatalf("view = %+v", v)
	}
	var entry FontEntry
	for _, e := range p.FontEntries("chakra") {
		if e.Family == "Chakra Petch" {
			entry = e
		}
	}
	if !entry.Loading || entry.Popular {
		t.Fatalf("entry = %+v", entry)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("load never resolved")
	}
	if v := p.View(); v.FontLoading {
		t.Fatal("loading indicator not cleared")
	}
}

func TestSelectFontWithoutTextObject(t *testing.T) {
	c := newCanvas(t)
	p := New(c, newLoader(func(context.Context, fonts.Request) error { return nil }), applog.Nop())
	if _, ok := p.SelectFont(context.Background(), "Kanit"); ok {
		t.Fatal("font applied without text selection")
	}
}

func TestFontEntriesPopularFirst(t *testing.T) {
	p := New(newCanvas(t), newLoader(func(context.Context, fonts.Request) error { return nil }), applog.Nop())
	es := p.FontEntries("")
	if len(es) != 4 || !es[0].Popular || es[3].Popular {
		t.Fatalf("entries = %+v", es)
	}
}

func TestSectionsAreIndependent(t *testing.T) {
	p := New(newCanvas(t), nil, applog.Nop())
	if !p.Expanded(SectionTypography) {
		t.Fatal("sections start expanded")
	}
	if p.Toggle(SectionTypography) {
		t.Fatal("toggle should collapse")
	}
	if !p.Expanded(SectionDimensions) {
		t.Fatal("other section affected")
	}
	if v := p.View(); len(v.Collapsed) != 1 || v.Collapsed[0] != SectionTypography || v.Width != 800 {
		t.Fatalf("view = %+v", v)
	}
}
