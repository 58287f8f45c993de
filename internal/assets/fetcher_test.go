/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	applog "canvasstudio/internal/log"
)

const arrowSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 12" width="24" height="12">
  <path d="M0 6 L18 6 L18 0 L24 6 L18 12 L18 6 Z" fill="#000000"/>
</svg>`

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *memCache) LoadAsset(_ context.Context, url string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[url]
	return b, ok, nil
}

func (c *memCache) StoreAsset(_ context.Context, url string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	c.m[url] = data
	return nil
}

func newServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	photo := pngBytes(t, 300, 200)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/arrow.svg":
			w.Header().Set("Content-Type", "image/svg+xml")
			_, _ = w.Write([]byte(arrowSVG))
		case "/photo.png":
			_, _ = w.Write(photo)
		case "/garbage":
			_, _ = w.Write([]byte("definitely not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSVGUsesViewBox(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	f := NewFetcher(srv.Client(), nil, applog.Nop())
	f.RasterSize = 48

	a, err := f.Fetch(context.Background(), srv.URL+"/arrow.svg")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !a.SVG || a.Width != 24 || a.Height != 12 {
		t.Fatalf("asset = %+v", a)
	}
	if b := a.Image.Bounds(); b.Dx() != 48 || b.Dy() != 24 {
		t.Fatalf("raster bounds = %v", b)
	}
	if _, ok := f.Image(srv.URL + "/arrow.svg"); !ok {
		t.Fatalf("decoded image not retained")
	}
	// served from memory the second time
	if _, err := f.Fetch(context.Background(), srv.URL+"/arrow.svg"); err != nil || hits.Load() != 1 {
		t.Fatalf("second fetch: err=%v hits=%d", err, hits.Load())
	}
}

func TestFetchRasterIntrinsicSize(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	f := NewFetcher(srv.Client(), nil, applog.Nop())
	a, err := f.Fetch(context.Background(), srv.URL+"/photo.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if a.SVG || a.Width != 300 || a.Height != 200 {
		t.Fatalf("asset = %+v", a)
	}
}

func TestFetchFailuresWrapErrUnavailable(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	f := NewFetcher(srv.Client(), nil, applog.Nop())
	for _, p := range []string{"/missing.png", "/garbage"} {
		if _, err := f.Fetch(context.Background(), srv.URL+p); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("Fetch(%s) err = %v", p, err)
		}
	}
	if _, ok := f.Image(srv.URL + "/garbage"); ok {
		t.Fatalf("failed asset must not be retained")
	}
}

func TestFetchUsesByteCacheAcrossSessions(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	cache := &memCache{}
	url := srv.URL + "/photo.png"

	if _, err := NewFetcher(srv.Client(), cache, applog.Nop()).Fetch(context.Background(), url); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	a, err := NewFetcher(srv.Client(), cache, applog.Nop()).Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("network hits = %d, want 1", hits.Load())
	}
	if a.Width != 300 {
		t.Fatalf("cached asset = %+v", a)
	}
}

func TestIsSVG(t *testing.T) {
	if !IsSVG([]byte(arrowSVG)) || !IsSVG([]byte("  <svg/>")) {
		t.Fatalf("expected svg")
	}
	if IsSVG([]byte("<?xml version=\"1.0\"?><html/>")) || IsSVG(pngBytes(t, 2, 2)) {
		t.Fatalf("unexpected svg detection")
	}
}
