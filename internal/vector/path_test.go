/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestPathBounds(t *testing.T) {
	var p Path
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(0, 10)
	p.Close()

	b := p.Bounds()
	if b.X != 0 || b.Y != 0 || b.W != 10 || b.H != 10 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	var empty Path
	if empty.Bounds() != (Rect{}) {
		t.Fatalf("empty path should have zero bounds")
	}
}

func TestPolygonAndPolyline(t *testing.T) {
	pts := []Pt{{0, 0}, {5, 0}, {5, 5}}
	pg := Polygon(pts)
	if len(pg.Cmds) != 4 || pg.Cmds[3].Op != Close {
		t.Fatalf("polygon cmds: %+v", pg.Cmds)
	}
	pl := Polyline(pts)
	if len(pl.Cmds) != 3 || pl.Cmds[0].Op != MoveTo || pl.Cmds[2].Op != LineTo {
		t.Fatalf("polyline cmds: %+v", pl.Cmds)
	}
}
