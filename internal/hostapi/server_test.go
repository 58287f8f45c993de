/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package hostapi

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"canvasstudio/internal/config"
	"canvasstudio/internal/dragdrop"
	"canvasstudio/internal/editor"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/panel"
	"canvasstudio/internal/render"
	"canvasstudio/internal/vector"
)

func newServer(t *testing.T, withRaster bool) (*Server, *editor.Session) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Editor.RenderCoalesceMs = 60 * 60 * 1000
	d := editor.Deps{Config: cfg, Logger: applog.Nop()}
	var r *render.Raster
	if withRaster {
		r = render.NewRaster(nil, nil, applog.Nop())
		d.Surface = r
	}
	sess := editor.New(d)
	t.Cleanup(func() { _ = sess.Close() })
	return New(sess, r, applog.Nop()), sess
}

func do(t *testing.T, s *Server, method, path, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newServer(t, false)
	resp := do(t, s, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestDropCreatesObject(t *testing.T) {
	s, sess := newServer(t, false)
	raw, err := dragdrop.Encode(dragdrop.Shape(vector.Circle))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := json.Marshal(map[string]any{
		"data": map[string]string{dragdrop.MIMEType: raw},
		"x":    120, "y": 80,
	})
	resp := do(t, s, http.MethodPost, "/api/drop", string(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &out)
	o, ok := sess.Canvas.ActiveObject()
	if !ok || o.ID != out.ID || o.Position != (vector.Pt{X: 120, Y: 80}) {
		t.Fatalf("active = %+v", o)
	}
}

func TestMalformedDropIsNoContent(t *testing.T) {
	s, sess := newServer(t, false)
	for _, body := range []string{
		`not json`,
		`{"data":{}}`,
		`{"data":{"text/plain":"{{{"}},"x":1,"y":1}`,
		`{"data":{"application/x-canvasstudio-item":"{\"kind\":\"sticker\"}"}}`,
	} {
		resp := do(t, s, http.MethodPost, "/api/drop", body)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("%s: status = %d", body, resp.StatusCode)
		}
	}
	if n := len(sess.Canvas.Snapshot().Objects); n != 0 {
		t.Fatalf("objects = %d", n)
	}
}

func TestClickAndDeleteActive(t *testing.T) {
	s, sess := newServer(t, false)
	resp := do(t, s, http.MethodPost, "/api/click", `{"kind":"shape","shapeKind":"rectangle"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if o, _ := sess.Canvas.ActiveObject(); o.Position != (vector.Pt{X: 400, Y: 300}) {
		t.Fatalf("position = %v", o.Position)
	}
	if resp := do(t, s, http.MethodDelete, "/api/active", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if resp := do(t, s, http.MethodDelete, "/api/active", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("second delete status = %d", resp.StatusCode)
	}
	if resp := do(t, s, http.MethodGet, "/api/active", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("active status = %d", resp.StatusCode)
	}
}

func TestPanelDimensionsFollowLock(t *testing.T) {
	s, sess := newServer(t, false)
	resp := do(t, s, http.MethodPut, "/api/panel/dimensions", `{"width":1000}`)
	var v panel.View
	decodeBody(t, resp, &v)
	if v.Width != 1000 || v.Height != 750 {
		t.Fatalf("view = %+v", v)
	}
	d := sess.Canvas.Snapshot()
	if d.Width != 1000 || d.Height != 750 {
		t.Fatalf("document = %dx%d", d.Width, d.Height)
	}
	if resp := do(t, s, http.MethodPost, "/api/panel/preset/16:9", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("preset status = %d", resp.StatusCode)
	}
	if d := sess.Canvas.Snapshot(); d.Width != 1920 || d.Height != 1080 {
		t.Fatalf("document = %dx%d", d.Width, d.Height)
	}
	if resp := do(t, s, http.MethodPost, "/api/panel/preset/2:1", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown preset status = %d", resp.StatusCode)
	}
}

func TestFillWithoutSelectionIsNoContent(t *testing.T) {
	s, _ := newServer(t, false)
	resp := do(t, s, http.MethodPut, "/api/panel/fill", `{"color":"#FF0000"}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp = do(t, s, http.MethodPut, "/api/panel/fill", `{`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad body status = %d", resp.StatusCode)
	}
}

func TestToolsAndPencilStroke(t *testing.T) {
	s, sess := newServer(t, false)
	if resp := do(t, s, http.MethodPut, "/api/pencil", `{"color":"#FF0000","width":6}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("pencil status = %d", resp.StatusCode)
	}
	resp := do(t, s, http.MethodPost, "/api/tools/pencil", "")
	var tv struct {
		Active  string `json:"active"`
		Drawing bool   `json:"drawing"`
	}
	decodeBody(t, resp, &tv)
	if !tv.Drawing || !sess.Canvas.Drawing() {
		t.Fatalf("tools = %+v", tv)
	}
	do(t, s, http.MethodPost, "/api/pointer/down", `{"x":10,"y":10}`)
	do(t, s, http.MethodPost, "/api/pointer/move", `{"x":50,"y":60}`)
	resp = do(t, s, http.MethodPost, "/api/pointer/up", `{"x":90,"y":10}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("pointer up status = %d", resp.StatusCode)
	}
	d := sess.Canvas.Snapshot()
	if len(d.Objects) != 1 || d.Objects[0].Style.StrokeWidth != 6 {
		t.Fatalf("objects = %+v", d.Objects)
	}
	if resp := do(t, s, http.MethodPost, "/api/pointer/sideways", `{"x":1,"y":1}`); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown phase status = %d", resp.StatusCode)
	}
	do(t, s, http.MethodPost, "/api/tools/dismiss", `{"reason":"outside"}`)
	if sess.Canvas.Drawing() {
		t.Fatal("dismiss should leave drawing mode")
	}
	if resp := do(t, s, http.MethodPost, "/api/tools/lasso", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown tool status = %d", resp.StatusCode)
	}
}

func TestSaveWithoutStoreIsUnavailable(t *testing.T) {
	s, _ := newServer(t, false)
	resp := do(t, s, http.MethodPost, "/api/document/save", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestFrameRendersPNG(t *testing.T) {
	s, _ := newServer(t, true)
	if resp := do(t, s, http.MethodPut, "/api/document/background", `{"color":"#000000"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("background status = %d", resp.StatusCode)
	}
	resp := do(t, s, http.MethodGet, "/api/frame.png", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if bd := img.Bounds(); bd.Dx() != 800 || bd.Dy() != 600 {
		t.Fatalf("bounds = %v", bd)
	}
	if r, g, b, _ := img.At(5, 5).RGBA(); r != 0 || g != 0 || b != 0 {
		t.Fatalf("background pixel = %d,%d,%d", r, g, b)
	}
}

func TestFrameWithoutRasterIsNotFound(t *testing.T) {
	s, _ := newServer(t, false)
	if resp := do(t, s, http.MethodGet, "/api/frame.png", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestIconRoutesWithoutSearcher(t *testing.T) {
	s, _ := newServer(t, false)
	if resp := do(t, s, http.MethodGet, "/api/icons/results", ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
