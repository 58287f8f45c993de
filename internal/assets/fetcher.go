/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets fetches icon and image sources for placed objects: it
// resolves their intrinsic size and keeps a decoded image for rendering.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	applog "canvasstudio/internal/log"
)

// ErrUnavailable wraps every fetch or decode failure.
var ErrUnavailable = errors.New("asset unavailable")

// maxAssetBytes caps a single download.
const maxAssetBytes = 32 << 20

// DefaultRasterSize is the longer side, in pixels, SVG sources are rasterized to.
const DefaultRasterSize = 512

// Asset is a fetched source with its intrinsic size.
type Asset struct {
	URL    string
	Width  float64
	Height float64
	SVG    bool
	Image  image.Image
}

// Cache persists raw asset bytes between sessions.
type Cache interface {
	LoadAsset(ctx context.Context, url string) (data []byte, ok bool, err error)
	StoreAsset(ctx context.Context, url string, data []byte) error
}

// Fetcher downloads and decodes assets. Decoded assets are kept in memory for
// the session and can be looked up by URL.
type Fetcher struct {
	Client     *http.Client
	Cache      Cache
	Log        *slog.Logger
	RasterSize int

	mu     sync.RWMutex
	assets map[string]Asset
}

func NewFetcher(client *http.Client, cache Cache, logger *slog.Logger) *Fetcher {
	return &Fetcher{Client: client, Cache: cache, Log: applog.Or(logger, "assets"), assets: make(map[string]Asset)}
}

func (f *Fetcher) logger() *slog.Logger { return applog.Or(f.Log, "assets") }

// Fetch returns the asset at url, from memory, the byte cache or the network.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Asset, error) {
	if a, ok := f.lookup(url); ok {
		return a, nil
	}
	lg := applog.WithOperation(f.logger(), "fetch").With(slog.String("url", url))

	data, cached := f.fromCache(ctx, url, lg)
	if !cached {
		var err error
		if data, err = f.download(ctx, url); err != nil {
			return Asset{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	a, err := Decode(data, f.RasterSize)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, url, err)
	}
	a.URL = url
	if !cached && f.Cache != nil {
		if err := f.Cache.StoreAsset(ctx, url, data); err != nil {
			lg.Debug("asset cache write failed", slog.Any("err", err))
		}
	}
	f.mu.Lock()
	if f.assets == nil {
		f.assets = make(map[string]Asset)
	}
	f.assets[url] = a
	f.mu.Unlock()
	lg.Debug("asset ready", slog.Float64("w", a.Width), slog.Float64("h", a.Height), slog.Bool("cached", cached))
	return a, nil
}

func (f *Fetcher) lookup(url string) (Asset, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	a, ok := f.assets[url]
	return a, ok
}

// Image returns the decoded image of a previously fetched asset.
func (f *Fetcher) Image(url string) (image.Image, bool) {
	a, ok := f.lookup(url)
	if !ok || a.Image == nil {
		return nil, false
	}
	return a.Image, true
}

func (f *Fetcher) fromCache(ctx context.Context, url string, lg *slog.Logger) ([]byte, bool) {
	if f.Cache == nil {
		return nil, false
	}
	data, ok, err := f.Cache.LoadAsset(ctx, url)
	if err != nil {
		lg.Debug("asset cache read failed", slog.Any("err", err))
		return nil, false
	}
	return data, ok && len(data) > 0
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
}

// IsSVG sniffs data for an SVG document.
func IsSVG(data []byte) bool {
	head := data[:min(len(data), 512)]
	s := strings.ToLower(string(bytes.TrimSpace(head)))
	return strings.HasPrefix(s, "<svg") || (strings.HasPrefix(s, "<?xml") || strings.HasPrefix(s, "<!--")) && strings.Contains(s, "<svg")
}

// Decode reads a raster image or an SVG. SVG sources report their viewBox
// size and are rasterized so that the longer side is rasterSize pixels.
func Decode(data []byte, rasterSize int) (Asset, error) {
	if len(data) == 0 {
		return Asset{}, errors.New("empty body")
	}
	if IsSVG(data) {
		return decodeSVG(data, rasterSize)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Asset{}, err
	}
	b := img.Bounds()
	return Asset{Width: float64(b.Dx()), Height: float64(b.Dy()), Image: img}, nil
}

func decodeSVG(data []byte, rasterSize int) (Asset, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return Asset{}, err
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		return Asset{}, errors.New("svg without a usable viewBox")
	}
	if rasterSize <= 0 {
		rasterSize = DefaultRasterSize
	}
	s := float64(rasterSize) / math.Max(w, h)
	pw, ph := max(1, int(math.Round(w*s))), max(1, int(math.Round(h*s)))
	img := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	icon.SetTarget(0, 0, float64(pw), float64(ph))
	scanner := rasterx.NewScannerGV(pw, ph, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(pw, ph, scanner), 1)
	return Asset{Width: w, Height: h, SVG: true, Image: img}, nil
}
