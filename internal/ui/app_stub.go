//go:build !fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui is the desktop host. Without the fyne build tag only a stub is
// compiled so headless builds need no display or OpenGL.
package ui

import (
	"fmt"

	"canvasstudio/internal/editor"
)

// Run starts the desktop UI. In non-fyne builds, this is a stub; use the
// serve command for a browser host instead.
func Run(_ *editor.App) error {
	return fmt.Errorf("UI not built in this binary. Rebuild with: go run -tags fyne ./cmd/canvasstudio ui, or use canvasstudio serve for the browser host")
}
