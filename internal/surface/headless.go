/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package surface holds the render surface side of the editor: the events a
// surface reports and a headless surface for the CLI and tests.
package surface

import (
	"slices"
	"sync"

	"gocanvas/internal/snap"
)

// Headless counts render requests and keeps the guides it was asked to draw.
type Headless struct {
	mu      sync.Mutex
	renders int
	guides  []snap.Guide
	style   snap.Style
	drawn   int
}

func NewHeadless() *Headless { return &Headless{} }

func (h *Headless) RequestRender() {
	h.mu.Lock()
	h.renders++
	h.mu.Unlock()
}

func (h *Headless) DrawGuides(style snap.Style, guides []snap.Guide) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.style = style
	h.guides = slices.Clone(guides)
	h.drawn += len(guides)
}

func (h *Headless) ClearGuides() {
	h.mu.Lock()
	h.guides = nil
	h.mu.Unlock()
}

// Renders is the number of render requests so far.
func (h *Headless) Renders() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.renders
}

// Guides returns the guides currently on screen.
func (h *Headless) Guides() []snap.Guide {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.guides)
}

// GuidesDrawn is the total number of guides drawn over the surface's life.
func (h *Headless) GuidesDrawn() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.drawn
}

// Style is the style of the last guides drawn.
func (h *Headless) Style() snap.Style {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.style
}
