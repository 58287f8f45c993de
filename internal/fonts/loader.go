/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package fonts makes web font families available for rendering: a searchable
// catalog, an idempotent per-family loader with a bounded wait, and the
// stylesheet fetcher that downloads and registers the font files.
package fonts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	applog "canvasstudio/internal/log"
)

// Status is the load state of a family. It only moves forward.
type Status int

const (
	Unloaded Status = iota
	Loading
	Loaded
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// Request asks a Fetcher to make families available.
type Request struct {
	Families []string
	Weights  []Weight
	Subsets  []string
}

// Fetcher performs the network side of a load. It should honor ctx, but the
// Loader does not rely on it.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) error
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, req Request) error

func (f FetchFunc) Fetch(ctx context.Context, req Request) error { return f(ctx, req) }

// DefaultTimeout bounds a single load before the family is assumed available.
const DefaultTimeout = 15 * time.Second

// LoaderOptions configure a Loader. Zero values select defaults.
type LoaderOptions struct {
	Timeout time.Duration
	Subsets []string
	Catalog *Catalog
	Logger  *slog.Logger
}

// Loader tracks per-family load status for the session. Each family is
// fetched at most once; concurrent callers share the in-flight load.
type Loader struct {
	fetcher Fetcher
	timeout time.Duration
	subsets []string
	catalog *Catalog
	log     *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	hooks   []func(family string)
}

type entry struct {
	status Status
	done   chan struct{}
}

func NewLoader(f Fetcher, o LoaderOptions) *Loader {
	l := &Loader{
		fetcher: f,
		timeout: o.Timeout,
		subsets: o.Subsets,
		catalog: o.Catalog,
		log:     applog.Or(o.Logger, "fonts"),
		entries: make(map[string]*entry),
	}
	if l.timeout <= 0 {
		l.timeout = DefaultTimeout
	}
	if l.subsets == nil {
		l.subsets = []string{"thai", "latin"}
	}
	if l.catalog == nil {
		l.catalog = DefaultCatalog()
	}
	return l
}

// Catalog returns the catalog the loader preloads from.
func (l *Loader) Catalog() *Catalog { return l.catalog }

// EnsureLoaded returns once family is loaded. If a load for family is in
// flight it waits for that one; otherwise it starts one. The load itself is
// detached from ctx: when ctx ends the caller stops waiting and gets ctx.Err(),
// but the load runs to completion or timeout.
func (l *Loader) EnsureLoaded(ctx context.Context, family string) error {
	family = strings.TrimSpace(family)
	if family == "" {
		return nil
	}
	started := l.claim([]string{family})
	if len(started) > 0 {
		go l.load(context.WithoutCancel(ctx), started)
	}
	l.mu.Lock()
	e := l.entries[family]
	l.mu.Unlock()
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PreloadPopular fetches every popular family not yet known in one request
// and waits for it like EnsureLoaded does.
func (l *Loader) PreloadPopular(ctx context.Context) error {
	started := l.claim(l.catalog.Popular())
	if len(started) == 0 {
		return nil
	}
	done := make(chan struct{})
	go func() {
		l.load(context.WithoutCancel(ctx), started)
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// claim moves every unknown family to Loading and returns those it claimed.
func (l *Loader) claim(families []string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, f := range families {
		if _, ok := l.entries[f]; ok {
			continue
		}
		l.entries[f] = &entry{status: Loading, done: make(chan struct{})}
		out = append(out, f)
	}
	return out
}

func (l *Loader) load(ctx context.Context, families []string) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	req := Request{Families: families, Weights: Weights, Subsets: l.subsets}
	lg := applog.WithOperation(l.log, "load").With(slog.Int("families", len(families)))
	start := time.Now()

	errc := make(chan error, 1)
	go func() { errc <- l.fetcher.Fetch(ctx, req) }()
	select {
	case err := <-errc:
		if err != nil {
			lg.Warn("font fetch failed, assuming available", slog.Any("err", err), slog.String("first", families[0]))
		} else {
			lg.Debug("fonts loaded", slog.Duration("took", time.Since(start)))
		}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			lg.Warn("font load timed out, assuming available", slog.Duration("timeout", l.timeout), slog.String("first", families[0]))
		}
	}
	l.markLoaded(families)
}

func (l *Loader) markLoaded(families []string) {
	l.mu.Lock()
	for _, f := range families {
		if e := l.entries[f]; e != nil && e.status != Loaded {
			e.status = Loaded
			close(e.done)
		}
	}
	hooks := append([]func(string){}, l.hooks...)
	l.mu.Unlock()
	for _, f := range families {
		for _, h := range hooks {
			h(f)
		}
	}
}

// Status returns the load status of family.
func (l *Loader) Status(family string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[family]; ok {
		return e.status
	}
	return Unloaded
}

// Loading reports whether a load of family is in flight.
func (l *Loader) Loading(family string) bool { return l.Status(family) == Loading }

// OnLoaded registers fn to be called, on the loading goroutine, whenever a
// family becomes loaded.
func (l *Loader) OnLoaded(fn func(family string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, fn)
}
