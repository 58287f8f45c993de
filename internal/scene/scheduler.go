/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"sync"
	"time"
)

// DefaultCoalesce is one frame at 60 Hz.
const DefaultCoalesce = 16 * time.Millisecond

// Scheduler collapses bursts of render requests: the first Schedule arms a
// timer, later calls within the window join it, and the callback runs once.
type Scheduler struct {
	window time.Duration
	render func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool
}

func NewScheduler(window time.Duration, render func()) *Scheduler {
	if window <= 0 {
		window = DefaultCoalesce
	}
	return &Scheduler{window: window, render: render}
}

// Schedule requests a render within the coalescing window.
func (s *Scheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.pending {
		return
	}
	s.pending = true
	s.timer = time.AfterFunc(s.window, s.fire)
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if !s.pending || s.stopped {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.mu.Unlock()
	s.render()
}

// Flush runs a pending render now, on the calling goroutine.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if !s.pending || s.stopped {
		s.mu.Unlock()
		return
	}
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.render()
}

// Pending reports whether a render is armed.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Stop drops pending work; Schedule becomes a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
	}
}
