/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor wires one editing session: the scene adapter, the tool
// machine, the properties panel, font loading, icon search and persistence.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"canvasstudio/internal/config"
	"canvasstudio/internal/dragdrop"
	"canvasstudio/internal/fonts"
	"canvasstudio/internal/icons"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/panel"
	"canvasstudio/internal/scene"
	"canvasstudio/internal/store"
	"canvasstudio/internal/tools"
)

// ErrNoStore is returned by Save and Open when the session has no store.
var ErrNoStore = errors.New("no document store configured")

// IconSVGSize is the pixel size requested for dropped icons.
const IconSVGSize = 128

// Deps are the collaborators of a session. Only Config is required.
type Deps struct {
	Config   config.AppConfig
	Surface  scene.Surface
	Store    store.DocumentStore
	Fonts    *fonts.Loader
	Measurer scene.TextMeasurer
	Assets   scene.AssetFetcher
	// IconSearch backs the debounced icon search box.
	IconSearch icons.SearchFunc
	// IconURL maps an icon name to an image URL for drops and clicks.
	IconURL func(name string) string
	// ReportDir receives crash reports and store-less autosaves.
	ReportDir string
	Logger    *slog.Logger
	// Closers are closed with the session, after the canvas.
	Closers []io.Closer
}

// Session is one open editor.
type Session struct {
	Canvas *scene.Adapter
	Tools  *tools.Machine
	Panel  *panel.Panel
	Fonts  *fonts.Loader
	Icons  *icons.Searcher

	cfg       config.AppConfig
	store     store.DocumentStore
	iconURL   func(string) string
	reportDir string
	log       *slog.Logger
	closers   []io.Closer

	mu       sync.Mutex
	docID    string
	viewport scene.Viewport
}

// New builds a session around an empty document of the configured size.
func New(d Deps) *Session {
	lg := applog.Or(d.Logger, "editor")
	s := &Session{
		Fonts:     d.Fonts,
		cfg:       d.Config,
		store:     d.Store,
		iconURL:   d.IconURL,
		reportDir: d.ReportDir,
		log:       lg,
		closers:   d.Closers,
	}
	s.Canvas = scene.NewAdapter(d.Surface, scene.Options{
		Width:    d.Config.Editor.DefaultWidth,
		Height:   d.Config.Editor.DefaultHeight,
		Coalesce: d.Config.Editor.CoalesceWindow(),
		Assets:   d.Assets,
		Measurer: d.Measurer,
		Logger:   d.Logger,
	})
	if !d.Config.Editor.FocusDelete {
		s.Canvas.SetFocused(true)
	}
	s.Tools = tools.NewMachine(s.Canvas, d.Logger)
	s.Panel = panel.New(s.Canvas, loaderOrNil(d.Fonts), d.Logger)
	if d.Fonts != nil {
		d.Fonts.OnLoaded(s.Canvas.RefreshText)
	}
	if d.IconSearch != nil {
		s.Icons = icons.NewSearcher(d.IconSearch, d.Config.Icons.Debounce(), d.Config.Icons.Limit, d.Logger)
	}
	s.Canvas.RequestRender()
	return s
}

// loaderOrNil keeps a nil *fonts.Loader from becoming a non-nil interface.
func loaderOrNil(l *fonts.Loader) panel.FontLoader {
	if l == nil {
		return nil
	}
	return l
}

// SetViewport records where the canvas sits in host coordinates.
func (s *Session) SetViewport(v scene.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = v
}

// Drop handles a native drop at host coordinates. Transfers without a
// payload, or with a malformed one, are ignored.
func (s *Session) Drop(ctx context.Context, dt dragdrop.DataTransfer, clientX, clientY float64) (string, bool) {
	lg := applog.WithOperation(s.log, "drop")
	p, err := dragdrop.Decode(dt)
	if err != nil {
		lg.Debug("drop ignored", slog.Any("err", err))
		return "", false
	}
	s.mu.Lock()
	pt := s.viewport.ToLocal(clientX, clientY)
	s.mu.Unlock()
	return s.Canvas.CreateFromPayload(ctx, p, pt.X, pt.Y)
}

// Click creates the payload's object at the document center, the palette
// alternative to dragging.
func (s *Session) Click(ctx context.Context, p dragdrop.Payload) (string, bool) {
	c := s.Canvas.Snapshot().Center()
	return s.Canvas.CreateFromPayload(ctx, p, c.X, c.Y)
}

// IconPayload builds the payload for an icon search result.
func (s *Session) IconPayload(name string) dragdrop.Payload {
	url := name
	if s.iconURL != nil {
		url = s.iconURL(name)
	}
	return dragdrop.Icon(url, name)
}

// PressTool toggles a tool button.
func (s *Session) PressTool(t tools.Tool) tools.Tool { return s.Tools.Press(t) }

// OutsideClick closes the open tool popover.
func (s *Session) OutsideClick() tools.Tool { return s.Tools.Dismiss(tools.OutsideClick) }

// Resize handles a viewport resize; it closes the open tool popover.
func (s *Session) Resize(v scene.Viewport) tools.Tool {
	s.SetViewport(v)
	return s.Tools.Dismiss(tools.ViewportResize)
}

// SetFocused forwards canvas focus changes.
func (s *Session) SetFocused(f bool) {
	if !s.cfg.Editor.FocusDelete {
		f = true
	}
	s.Canvas.SetFocused(f)
}

// KeyDown handles a key press.
func (s *Session) KeyDown(key string) bool { return s.Canvas.HandleKey(key) }

// DocumentID is the id the document is saved under, or "" before the first save.
func (s *Session) DocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docID
}

// NewDocument replaces the document with an empty one.
func (s *Session) NewDocument(w, h int) {
	s.Canvas.Load(scene.NewDocument(w, h))
	s.Panel.Sync()
	s.mu.Lock()
	s.docID = ""
	s.mu.Unlock()
}

// Save persists the document and returns its id. A document saved for the
// first time gets a fresh id.
func (s *Session) Save(ctx context.Context) (string, error) {
	if s.store == nil {
		return "", ErrNoStore
	}
	s.mu.Lock()
	if s.docID == "" {
		s.docID = uuid.NewString()
	}
	id := s.docID
	s.mu.Unlock()
	if err := s.store.Save(ctx, id, s.Canvas.Snapshot()); err != nil {
		return "", fmt.Errorf("save %s: %w", id, err)
	}
	s.log.Info("document saved", slog.String("id", id))
	return id, nil
}

// Open loads a stored document and starts loading its fonts.
func (s *Session) Open(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrNoStore
	}
	d, err := s.store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("open %s: %w", id, err)
	}
	s.Canvas.Load(d)
	s.Panel.Sync()
	s.mu.Lock()
	s.docID = id
	s.mu.Unlock()
	if s.Fonts != nil {
		seen := map[string]bool{}
		for _, o := range d.Objects {
			if o.Text == nil || seen[o.Text.Family] {
				continue
			}
			seen[o.Text.Family] = true
			go func(family string) { _ = s.Fonts.EnsureLoaded(context.WithoutCancel(ctx), family) }(o.Text.Family)
		}
	}
	s.log.Info("document opened", slog.String("id", id), slog.Int("objects", len(d.Objects)))
	return nil
}

// Autosave implements crash.Session. With a store the document is saved
// there; otherwise it is written as JSON into the report directory.
func (s *Session) Autosave(ctx context.Context) (string, error) {
	if s.store != nil {
		id, err := s.Save(ctx)
		if err != nil {
			return "", err
		}
		return "store:" + id, nil
	}
	b, err := store.Encode(s.Canvas.Snapshot())
	if err != nil {
		return "", err
	}
	dir := s.ReportDir()
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("autosave dir: %w", err)
	}
	path := filepath.Join(dir, "autosave-"+time.Now().Format("20060102-150405")+store.DocumentExt)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("autosave: %w", err)
	}
	return path, nil
}

// ReportDir implements crash.Session.
func (s *Session) ReportDir() string { return s.reportDir }

// Close stops background work and releases resources.
func (s *Session) Close() error {
	if s.Icons != nil {
		s.Icons.Close()
	}
	s.Canvas.Flush()
	s.Canvas.Close()
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
