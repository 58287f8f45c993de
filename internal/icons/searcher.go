/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package icons

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	applog "canvasstudio/internal/log"
)

// DefaultDebounce is the quiet period after the last keystroke.
const DefaultDebounce = 300 * time.Millisecond

// SearchFunc is the query side of Client.
type SearchFunc func(ctx context.Context, query string, limit int) ([]string, error)

// Results is one published search outcome.
type Results struct {
	Query string
	Icons []string
	Err   error
}

// Searcher debounces search-box input. Starting a new query cancels the one in
// flight, and results of a superseded query are never published.
type Searcher struct {
	search   SearchFunc
	debounce time.Duration
	limit    int
	log      *slog.Logger

	mu      sync.Mutex
	seq     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	current Results
	hooks   []func(Results)
	closed  bool
}

func NewSearcher(search SearchFunc, debounce time.Duration, limit int, logger *slog.Logger) *Searcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Searcher{search: search, debounce: debounce, limit: limit, log: applog.Or(logger, "icons")}
}

// Type records the search box content. The query runs once no further input
// arrives within the debounce window. An empty query clears the results.
func (s *Searcher) Type(query string) {
	query = strings.TrimSpace(query)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	s.stopLocked()
	if query == "" {
		s.current = Results{}
		hooks := s.hooksLocked()
		s.mu.Unlock()
		notify(hooks, Results{})
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() { s.run(seq, query) })
	s.mu.Unlock()
}

func (s *Searcher) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) hooksLocked() []func(Results) { return append([]func(Results){}, s.hooks...) }

func (s *Searcher) run(seq uint64, query string) {
	s.mu.Lock()
	if seq != s.seq || s.closed {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	lg := applog.WithOperation(s.log, "search").With(slog.String("query", query))
	icons, err := s.search(ctx, query, s.limit)
	cancel()

	s.mu.Lock()
	if seq != s.seq || s.closed {
		s.mu.Unlock()
		lg.Debug("search superseded")
		return
	}
	s.cancel = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		lg.Warn("icon search failed", slog.Any("err", err))
	}
	s.current = Results{Query: query, Icons: icons, Err: err}
	res := s.current
	hooks := s.hooksLocked()
	s.mu.Unlock()
	notify(hooks, res)
}

func notify(hooks []func(Results), r Results) {
	for _, h := range hooks {
		h(r)
	}
}

// Results returns the latest published results.
func (s *Searcher) Results() Results {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnResults registers fn for every published result, called on the search goroutine.
func (s *Searcher) OnResults(fn func(Results)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Close cancels pending work; later input is ignored.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopLocked()
}
