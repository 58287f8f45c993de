/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"fmt"
	"math"
	"strings"
)

// ShapeKind tags the predefined shapes of the shapes palette.
type ShapeKind string

const (
	Square    ShapeKind = "square"
	Circle    ShapeKind = "circle"
	Triangle  ShapeKind = "triangle"
	Star      ShapeKind = "star"
	Pentagon  ShapeKind = "pentagon"
	Hexagon   ShapeKind = "hexagon"
	Diamond   ShapeKind = "diamond"
	Rectangle ShapeKind = "rectangle"
)

// ShapeKinds lists every kind in palette order.
var ShapeKinds = []ShapeKind{Square, Circle, Triangle, Star, Pentagon, Hexagon, Diamond, Rectangle}

// ParseShapeKind accepts a kind name case-insensitively.
func ParseShapeKind(s string) (ShapeKind, error) {
	k := ShapeKind(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range ShapeKinds {
		if v == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown shape kind %q", s)
}

// StarInnerRatio scales the inner vertices of a star.
const StarInnerRatio = 0.5

// StarPoints is the number of outer points of the palette star.
const StarPoints = 5

// RectangleAspect is the width/height ratio of the palette rectangle.
const RectangleAspect = 1.5

// RegularPolygonVertices returns the vertices of a regular polygon centered at
// the origin, starting at the top and proceeding clockwise in screen space.
// Fewer than three sides yields nil.
func RegularPolygonVertices(sides int, radius float64) []Pt {
	if sides < 3 {
		return nil
	}
	pts := make([]Pt, sides)
	step := 2 * math.Pi / float64(sides)
	for i := range pts {
		a := -math.Pi/2 + float64(i)*step
		pts[i] = Pt{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return pts
}

// StarVertices returns a star with the given number of points: a regular
// 2×points polygon whose odd vertices are pulled in to StarInnerRatio×radius.
func StarVertices(points int, radius float64) []Pt {
	pts := RegularPolygonVertices(2*points, radius)
	for i := 1; i < len(pts); i += 2 {
		pts[i].X *= StarInnerRatio
		pts[i].Y *= StarInnerRatio
	}
	return pts
}

// ShapeVertices returns the outline of a polygonal kind with the given nominal
// size, translated so its bounding box is centered at the origin. Circle,
// square and rectangle return nil; they are drawn as primitives with
// ShapeExtent.
func ShapeVertices(kind ShapeKind, size float64) []Pt {
	r := size / 2
	var pts []Pt
	switch kind {
	case Triangle:
		pts = RegularPolygonVertices(3, r)
	case Pentagon:
		pts = RegularPolygonVertices(5, r)
	case Hexagon:
		pts = RegularPolygonVertices(6, r)
	case Diamond:
		pts = RegularPolygonVertices(4, r)
	case Star:
		pts = StarVertices(StarPoints, r)
	default:
		return nil
	}
	c := BoundsOf(pts).Center()
	for i := range pts {
		pts[i].X -= c.X
		pts[i].Y -= c.Y
	}
	return pts
}

// ShapeExtent returns the untransformed width and height of a shape of the
// given kind and nominal size.
func ShapeExtent(kind ShapeKind, size float64) (w, h float64) {
	switch kind {
	case Rectangle:
		return size * RectangleAspect, size
	case Square, Circle:
		return size, size
	default:
		b := BoundsOf(ShapeVertices(kind, size))
		return b.W, b.H
	}
}
