/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import (
	"log/slog"
	"slices"
	"sync"

	applog "gocanvas/internal/log"
	"gocanvas/internal/scene"
	"gocanvas/internal/vector"
)

// Mover is the scene access the engine needs during a drag.
type Mover interface {
	Canvas() vector.Size
	Object(id scene.ID) (*scene.Object, bool)
	Objects() []*scene.Object
	MoveBy(id scene.ID, dx, dy float64) bool
}

// GuideLayer draws and clears transient guides on the render surface.
type GuideLayer interface {
	DrawGuides(style Style, guides []Guide)
	ClearGuides()
}

// Engine snaps one dragged object per tick. Guides live from the tick that
// drew them until the next tick or the end of the gesture.
type Engine struct {
	mu     sync.Mutex
	mover  Mover
	layer  GuideLayer
	opts   Options
	guides []Guide
	log    *slog.Logger
}

func New(m Mover, layer GuideLayer, opts Options) *Engine {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Style.Width <= 0 {
		opts.Style = DefaultStyle()
	}
	return &Engine{mover: m, layer: layer, opts: opts, log: applog.WithComponent("snap")}
}

// Options returns the current options.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// SetThreshold changes the snap distance; non-positive values are ignored.
func (e *Engine) SetThreshold(t float64) {
	if t <= 0 {
		return
	}
	e.mu.Lock()
	e.opts.Threshold = t
	e.mu.Unlock()
}

// Tick runs on every pointer move of a drag. It clears the previous tick's
// guides, snaps the object on each axis within the threshold and draws the
// matching guides. It reports whether the object was moved.
func (e *Engine) Tick(id scene.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()

	obj, ok := e.mover.Object(id)
	if !ok {
		e.log.Debug("tick ignored: object gone", slog.String("id", string(id)))
		return false
	}
	targets := CanvasTargets(e.mover.Canvas())
	if e.opts.SnapToObjects {
		targets = append(targets, ObjectTargets(e.mover.Objects(), id)...)
	}
	dx, dy, guides := Compute(obj.Center(), obj.Bounds(), targets, e.opts.Threshold)
	if len(guides) == 0 {
		return false
	}
	moved := false
	if dx != 0 || dy != 0 {
		moved = e.mover.MoveBy(id, dx, dy)
	}
	e.guides = guides
	if e.layer != nil {
		e.layer.DrawGuides(e.opts.Style, slices.Clone(guides))
	}
	return moved
}

// End clears guides when the drag finishes.
func (e *Engine) End() { e.clear() }

// PointerUp clears guides when the pointer is released.
func (e *Engine) PointerUp() { e.clear() }

// Cancel clears guides for a gesture aborted from outside, e.g. lost pointer capture.
func (e *Engine) Cancel() { e.clear() }

// Guides returns the guides drawn by the last tick.
func (e *Engine) Guides() []Guide {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.guides)
}

func (e *Engine) clear() {
	e.mu.Lock()
	e.clearLocked()
	e.mu.Unlock()
}

func (e *Engine) clearLocked() {
	e.guides = nil
	if e.layer != nil {
		e.layer.ClearGuides()
	}
}
