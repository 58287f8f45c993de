/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import "canvasstudio/internal/vector"

// Viewport maps host (client) coordinates to canvas-local coordinates.
// Origin is where the canvas' top-left corner sits in the host; Zoom is the
// display scale (0 means 1).
type Viewport struct {
	OriginX, OriginY float64
	Zoom             float64
}

// ToLocal converts a host point to canvas coordinates.
func (v Viewport) ToLocal(clientX, clientY float64) vector.Pt {
	z := v.Zoom
	if z == 0 {
		z = 1
	}
	return vector.Pt{X: (clientX - v.OriginX) / z, Y: (clientY - v.OriginY) / z}
}
