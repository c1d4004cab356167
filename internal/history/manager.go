/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history keeps snapshot based undo/redo stacks for a scene.
package history

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	applog "gocanvas/internal/log"
)

// Source is the scene the manager snapshots and restores.
type Source interface {
	Snapshot() ([]byte, error)
	Restore(ctx context.Context, blob []byte) error
}

// Mode is the manager's state. Recording and Replaying never overlap.
type Mode uint8

const (
	Idle Mode = iota
	Recording
	Replaying
)

func (m Mode) String() string {
	switch m {
	case Recording:
		return "recording"
	case Replaying:
		return "replaying"
	default:
		return "idle"
	}
}

// Snapshot is one recorded scene state. Blob content is opaque to the manager;
// size is estimated as len(Blob).
type Snapshot struct {
	Blob []byte
	TS   time.Time
}

// Config controls memory and depth caps.
type Config struct {
	// MaxDepth limits the undo stack (0 means unlimited).
	MaxDepth int
	// MaxBytes is a soft cap on the undo stack; oldest entries are pruned when exceeded.
	MaxBytes int
}

// Stats is a diagnostic view of the stacks.
type Stats struct {
	UndoDepth int
	RedoDepth int
	Bytes     int
	Mode      Mode
}

// Manager records committed scene states. The last committed state is kept as
// the present; the undo stack holds the states before it. It is safe for
// concurrent use.
type Manager struct {
	cfg Config
	src Source
	log *slog.Logger
	tr  trace.Tracer

	mu         sync.Mutex
	mode       Mode
	present    *Snapshot
	undo       []Snapshot
	redo       []Snapshot
	totalBytes int
	onCommit   func(Snapshot)
	now        func() time.Time
}

func NewManager(src Source, cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	return &Manager{
		cfg: cfg,
		src: src,
		log: applog.WithComponent("history"),
		tr:  otel.Tracer("gocanvas/internal/history"),
		now: time.Now,
	}
}

// SetOnCommit registers fn to be called after every recorded commit, outside
// the manager's lock.
func (m *Manager) SetOnCommit(fn func(Snapshot)) {
	m.mu.Lock()
	m.onCommit = fn
	m.mu.Unlock()
}

// Mode returns the current state.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Commit snapshots the source. It is a no-op unless Idle, and when the scene
// did not change since the last commit. A recorded commit clears redo.
func (m *Manager) Commit(ctx context.Context) bool {
	m.mu.Lock()
	if mode := m.mode; mode != Idle {
		m.mu.Unlock()
		m.log.Debug("commit ignored", slog.String("mode", mode.String()))
		return false
	}
	m.mode = Recording
	_, span := m.tr.Start(ctx, "history.commit")
	defer span.End()

	blob, err := m.src.Snapshot()
	if err != nil {
		m.mode = Idle
		m.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.log.Error("commit: snapshot failed", slog.Any("err", err))
		return false
	}
	if m.present != nil && bytes.Equal(m.present.Blob, blob) {
		m.mode = Idle
		m.mu.Unlock()
		span.SetAttributes(attribute.Bool("history.duplicate", true))
		return false
	}
	if m.present != nil {
		m.undo = append(m.undo, *m.present)
		m.totalBytes += len(m.present.Blob)
	}
	snap := Snapshot{Blob: blob, TS: m.now()}
	m.present = &snap
	// Any new change invalidates redo
	m.redo = nil
	m.enforceCapsLocked()
	m.mode = Idle
	hook := m.onCommit
	depth := len(m.undo)
	m.mu.Unlock()

	span.SetAttributes(attribute.Int("history.undo_depth", depth), attribute.Int("history.bytes", len(blob)))
	if hook != nil {
		hook(snap)
	}
	return true
}

// Undo restores the state before the present. The live scene goes onto redo.
func (m *Manager) Undo(ctx context.Context) bool {
	return m.replay(ctx, "history.undo", true)
}

// Redo restores the state most recently undone. The live scene goes onto undo.
func (m *Manager) Redo(ctx context.Context) bool {
	return m.replay(ctx, "history.redo", false)
}

func (m *Manager) replay(ctx context.Context, name string, backward bool) bool {
	m.mu.Lock()
	from, to := &m.undo, &m.redo
	if !backward {
		from, to = &m.redo, &m.undo
	}
	if m.mode != Idle || len(*from) == 0 {
		m.mu.Unlock()
		return false
	}
	m.mode = Replaying
	ctx, span := m.tr.Start(ctx, name)
	defer span.End()

	live, err := m.src.Snapshot()
	if err != nil {
		m.mode = Idle
		m.mu.Unlock()
		span.RecordError(err)
		m.log.Error("replay: snapshot failed", slog.String("op", name), slog.Any("err", err))
		return false
	}
	target := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	*to = append(*to, Snapshot{Blob: live, TS: m.now()})
	m.recountLocked()
	m.mu.Unlock()

	// The lock is released while restoring so listeners reacting to the
	// restore see Replaying and leave the stacks alone.
	err = m.src.Restore(ctx, target.Blob)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = Idle
	if err != nil {
		*to = (*to)[:len(*to)-1]
		*from = append(*from, target)
		m.recountLocked()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.log.Error("replay: restore failed", slog.String("op", name), slog.Any("err", err))
		return false
	}
	m.present = &target
	m.enforceCapsLocked()
	span.SetAttributes(attribute.Int("history.undo_depth", len(m.undo)), attribute.Int("history.redo_depth", len(m.redo)))
	return true
}

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode == Idle && len(m.undo) > 0
}

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode == Idle && len(m.redo) > 0
}

// Present returns the last committed or restored state.
func (m *Manager) Present() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.present == nil {
		return Snapshot{}, false
	}
	return *m.present, true
}

// PeekRedo returns the state Redo would restore.
func (m *Manager) PeekRedo() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.redo) == 0 {
		return Snapshot{}, false
	}
	return m.redo[len(m.redo)-1], true
}

// PeekUndo returns the state Undo would restore.
func (m *Manager) PeekUndo() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undo) == 0 {
		return Snapshot{}, false
	}
	return m.undo[len(m.undo)-1], true
}

// Clear drops both stacks and the present to free memory.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo, m.redo, m.present = nil, nil, nil
	m.totalBytes = 0
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{UndoDepth: len(m.undo), RedoDepth: len(m.redo), Bytes: m.totalBytes, Mode: m.mode}
}

func (m *Manager) recountLocked() {
	m.totalBytes = 0
	for _, s := range m.undo {
		m.totalBytes += len(s.Blob)
	}
}

func (m *Manager) enforceCapsLocked() {
	if m.cfg.MaxDepth > 0 && len(m.undo) > m.cfg.MaxDepth {
		// drop the oldest extras
		toDrop := len(m.undo) - m.cfg.MaxDepth
		for i := 0; i < toDrop; i++ {
			m.totalBytes -= len(m.undo[i].Blob)
		}
		m.undo = append([]Snapshot{}, m.undo[toDrop:]...)
	}
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes && len(m.undo) > 0 {
		m.totalBytes -= len(m.undo[0].Blob)
		m.undo = m.undo[1:]
	}
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}
