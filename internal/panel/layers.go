/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package panel holds the view models of the layers and properties panels.
// Panels read scene state and turn every user edit into exactly one store call.
package panel

import (
	"log/slog"

	applog "gocanvas/internal/log"
	"gocanvas/internal/scene"
)

// LayerStore is the scene access the layers panel needs.
type LayerStore interface {
	Len() int
	Objects() []*scene.Object
	IsSelected(id scene.ID) bool
	IndexOf(id scene.ID) int
	SetSelection(ids []scene.ID) bool
	Remove(id scene.ID) bool
	Reorder(oldIndex, newIndex int) bool
}

// Row is one line of the layers panel. Rows are keyed by ID; Position is only
// where the row is drawn right now.
type Row struct {
	ID       scene.ID
	Label    string
	Kind     scene.Kind
	Selected bool
	Position int
}

// Layers lists objects top of the z-order first.
type Layers struct {
	store LayerStore
	log   *slog.Logger
}

func NewLayers(s LayerStore) *Layers {
	return &Layers{store: s, log: applog.WithComponent("panel")}
}

// InternalIndex converts a panel position into a scene index for a scene of n
// objects. The conversion is its own inverse.
func InternalIndex(n, position int) int { return n - 1 - position }

// Rows returns the panel rows, topmost object first.
func (l *Layers) Rows() []Row {
	objs := l.store.Objects()
	n := len(objs)
	rows := make([]Row, 0, n)
	for pos := 0; pos < n; pos++ {
		o := objs[InternalIndex(n, pos)]
		rows = append(rows, Row{
			ID:       o.ID,
			Label:    o.Label(),
			Kind:     o.Kind(),
			Selected: l.store.IsSelected(o.ID),
			Position: pos,
		})
	}
	return rows
}

// Select makes id the sole selection.
func (l *Layers) Select(id scene.ID) bool { return l.store.SetSelection([]scene.ID{id}) }

// Delete removes id from the scene.
func (l *Layers) Delete(id scene.ID) bool { return l.store.Remove(id) }

// Move handles a drag from one panel position to another.
func (l *Layers) Move(from, to int) bool {
	n := l.store.Len()
	if from < 0 || from >= n || to < 0 || to >= n {
		l.log.Debug("layer move ignored: position out of range", slog.Int("from", from), slog.Int("to", to), slog.Int("len", n))
		return false
	}
	return l.store.Reorder(InternalIndex(n, from), InternalIndex(n, to))
}

// MoveID drags the row for id to a panel position. The source index is looked
// up by identity so earlier reorders cannot skew it.
func (l *Layers) MoveID(id scene.ID, to int) bool {
	n := l.store.Len()
	idx := l.store.IndexOf(id)
	if idx < 0 || to < 0 || to >= n {
		l.log.Debug("layer move ignored", slog.String("id", string(id)), slog.Int("to", to))
		return false
	}
	return l.store.Reorder(idx, InternalIndex(n, to))
}
