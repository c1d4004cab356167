/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

// EventKind classifies store notifications.
type EventKind uint8

const (
	EventAdded EventKind = iota + 1
	EventRemoved
	EventModified
	EventReordered
	// EventMoving is a transient drag update; it is never committed to history.
	EventMoving
	EventSelection
	// EventRestored follows a full snapshot restore; it is never committed to history.
	EventRestored
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventModified:
		return "modified"
	case EventReordered:
		return "reordered"
	case EventMoving:
		return "moving"
	case EventSelection:
		return "selection"
	case EventRestored:
		return "restored"
	}
	return "unknown"
}

// Event describes one store change. IDs lists the objects involved; for
// EventSelection it is the new selection.
type Event struct {
	Kind EventKind
	IDs  []ID
}

// Committable reports whether the change must be followed by a history commit.
func (e Event) Committable() bool {
	switch e.Kind {
	case EventAdded, EventRemoved, EventModified, EventReordered:
		return true
	}
	return false
}

// Listener observes store changes. Calls happen synchronously after the
// store has released its lock, so listeners may read from the store.
type Listener interface {
	SceneChanged(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) SceneChanged(e Event) { f(e) }
