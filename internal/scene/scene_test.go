/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"sync/atomic"
	"testing"
	"time"

	"canvasstudio/internal/vector"
)

func TestSchedulerFlushRunsOnce(t *testing.T) {
	var n atomic.Int32
	s := NewScheduler(time.Hour, func() { n.Add(1) })
	s.Schedule()
	s.Schedule()
	if !s.Pending() {
		t.Fatal("expected pending")
	}
	s.Flush()
	s.Flush()
	if n.Load() != 1 || s.Pending() {
		t.Fatalf("renders = %d", n.Load())
	}
}

func TestSchedulerTimerFires(t *testing.T) {
	done := make(chan struct{}, 4)
	s := NewScheduler(5*time.Millisecond, func() { done <- struct{}{} })
	s.Schedule()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("render never fired")
	}
	s.Schedule()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second render never fired")
	}
}

func TestSchedulerStop(t *testing.T) {
	var n atomic.Int32
	s := NewScheduler(0, func() { n.Add(1) })
	s.Schedule()
	s.Stop()
	s.Schedule()
	s.Flush()
	time.Sleep(40 * time.Millisecond)
	if n.Load() != 0 {
		t.Fatal("stopped scheduler rendered")
	}
}

func TestViewportToLocal(t *testing.T) {
	v := Viewport{OriginX: 100, OriginY: 50, Zoom: 2}
	if got := v.ToLocal(300, 250); got != (vector.Pt{X: 100, Y: 100}) {
		t.Fatalf("got %v", got)
	}
	v.Zoom = 0
	if got := v.ToLocal(110, 60); got != (vector.Pt{X: 10, Y: 10}) {
		t.Fatalf("zero zoom: got %v", got)
	}
}

func TestDocumentCloneIsDeep(t *testing.T) {
	d := NewDocument(10, 10)
	d.Objects = append(d.Objects, &Object{ID: "p", Kind: KindPath, Path: &PathData{Points: []vector.Pt{{X: 1}}}})
	c := d.Clone()
	c.Objects[0].Path.Points[0].X = 5
	if d.Objects[0].Path.Points[0].X != 1 {
		t.Fatal("clone shares path points")
	}
	if o, i := d.Find("p"); o == nil || i != 0 {
		t.Fatal("find failed")
	}
	if o, i := d.Find("q"); o != nil || i != -1 {
		t.Fatal("find of missing id")
	}
}
