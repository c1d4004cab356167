/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package surface

import "gocanvas/internal/scene"

// Event is something the render surface reports after the user interacted
// with it directly.
type Event interface{ surfaceEvent() }

// ObjectModified is fired when a resize, rotate or other handle gesture has
// finished changing an object.
type ObjectModified struct {
	ID     scene.ID
	Left   float64
	Top    float64
	ScaleX float64
	ScaleY float64
	Angle  float64
}

// SelectionUpdated carries the new selection after a click or lasso.
type SelectionUpdated struct{ IDs []scene.ID }

// SelectionCleared is fired when the user deselects everything.
type SelectionCleared struct{}

// MoveInProgress is one pointer move of a drag.
type MoveInProgress struct {
	ID   scene.ID
	Left float64
	Top  float64
}

// DragEnded closes a drag gesture on an object.
type DragEnded struct{ ID scene.ID }

// PointerReleased is a pointer-up anywhere on the surface.
type PointerReleased struct{}

// DragAborted is fired when the surface loses pointer capture mid-drag.
type DragAborted struct{ ID scene.ID }

func (ObjectModified) surfaceEvent()   {}
func (SelectionUpdated) surfaceEvent() {}
func (SelectionCleared) surfaceEvent() {}
func (MoveInProgress) surfaceEvent()   {}
func (DragEnded) surfaceEvent()        {}
func (PointerReleased) surfaceEvent()  {}
func (DragAborted) surfaceEvent()      {}
