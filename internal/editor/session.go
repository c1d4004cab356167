/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor wires one editing session: the scene store, its history,
// the snapping engine and the panels, driven by render surface events.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"gocanvas/internal/history"
	applog "gocanvas/internal/log"
	"gocanvas/internal/panel"
	"gocanvas/internal/scene"
	"gocanvas/internal/snap"
	"gocanvas/internal/surface"
	"gocanvas/internal/textlayout"
	"gocanvas/internal/vector"
)

var errNoSaver = errors.New("editor: session has no saver")

// Surface is the render surface a session drives.
type Surface interface {
	scene.Surface
	snap.GuideLayer
}

// Saver persists committed snapshots of a session.
type Saver interface {
	SaveSnapshot(ctx context.Context, sessionID string, blob []byte) error
}

// Options configure a session. Zero values fall back to the editor defaults.
type Options struct {
	ID       string
	Canvas   vector.Size
	Snap     snap.Options
	History  history.Config
	Measurer scene.TextMeasurer
	Saver    Saver
}

// DefaultCanvas is the canvas size of a new document.
var DefaultCanvas = vector.Size{W: 600, H: 350}

// Session is the composition root of one open document.
type Session struct {
	ID         string
	Store      *scene.Store
	History    *history.Manager
	Snap       *snap.Engine
	Layers     *panel.Layers
	Properties *panel.Properties

	surface Surface
	saver   Saver
	log     *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	unsub  []func()
	closed bool
}

// New opens a session on sf and records the empty scene as the first state.
func New(sf Surface, opts Options) *Session {
	if opts.Canvas.W <= 0 || opts.Canvas.H <= 0 {
		opts.Canvas = DefaultCanvas
	}
	if opts.Measurer == nil {
		opts.Measurer = textlayout.NewMeasurer(nil)
	}
	if opts.ID == "" {
		opts.ID = string(scene.NewID())
	}
	lg := applog.WithComponent("editor").With(slog.String("session", opts.ID))
	store := scene.NewStore(opts.Canvas, scene.WithMeasurer(opts.Measurer))
	store.AttachSurface(sf)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:         opts.ID,
		Store:      store,
		History:    history.NewManager(store, opts.History),
		Snap:       snap.New(store, sf, opts.Snap),
		Layers:     panel.NewLayers(store),
		Properties: panel.NewProperties(store),
		surface:    sf,
		saver:      opts.Saver,
		log:        lg,
		ctx:        ctx,
		cancel:     cancel,
	}
	if s.saver != nil {
		s.History.SetOnCommit(s.autosave)
	}
	s.unsub = append(s.unsub,
		store.Subscribe(scene.ListenerFunc(s.commitOn)),
		store.Subscribe(s.Properties),
	)
	s.History.Commit(ctx)
	lg.Info("session opened", slog.Float64("canvas_w", opts.Canvas.W), slog.Float64("canvas_h", opts.Canvas.H))
	return s
}

// Close detaches the surface; afterwards every operation is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	s.Snap.Cancel()
	for _, u := range unsub {
		u()
	}
	s.Store.DetachSurface()
	s.cancel()
	s.log.Info("session closed")
}

// Dispatch feeds one render surface event into the session.
func (s *Session) Dispatch(ev surface.Event) {
	switch e := ev.(type) {
	case surface.ObjectModified:
		s.Store.Place(e.ID, e.Left, e.Top, e.ScaleX, e.ScaleY, e.Angle)
	case surface.SelectionUpdated:
		s.Store.SetSelection(e.IDs)
	case surface.SelectionCleared:
		s.Store.ClearSelection()
	case surface.MoveInProgress:
		if s.Store.DragTo(e.ID, e.Left, e.Top) {
			s.Snap.Tick(e.ID)
		}
	case surface.DragEnded:
		s.Snap.End()
		s.Store.MarkModified(e.ID)
	case surface.PointerReleased:
		s.Snap.PointerUp()
	case surface.DragAborted:
		// the surface already moved the object; keep where it is
		s.Snap.Cancel()
		s.Store.MarkModified(e.ID)
	default:
		s.log.Debug("unknown surface event", slog.Any("event", ev))
	}
}

// Undo steps back one committed state.
func (s *Session) Undo(ctx context.Context) bool {
	return s.History.Undo(ctx)
}

// Redo re-applies the last undone state.
func (s *Session) Redo(ctx context.Context) bool {
	return s.History.Redo(ctx)
}

// Load replaces the document with a stored snapshot and starts a fresh
// history from it. The blob is schema-validated first.
func (s *Session) Load(ctx context.Context, blob []byte) error {
	if err := scene.ValidateSnapshot(blob); err != nil {
		return err
	}
	if err := s.Store.Restore(ctx, blob); err != nil {
		return err
	}
	s.History.Clear()
	s.History.Commit(ctx)
	s.log.Info("snapshot loaded", slog.Int("objects", s.Store.Len()))
	return nil
}

// Checkpoint writes the live scene through the session saver.
func (s *Session) Checkpoint(ctx context.Context) error {
	if s.saver == nil {
		return errNoSaver
	}
	blob, err := s.Store.Snapshot()
	if err != nil {
		return err
	}
	return s.saver.SaveSnapshot(ctx, s.ID, blob)
}

// DeleteSelection removes every selected object.
func (s *Session) DeleteSelection() int {
	n := 0
	for _, id := range s.Store.Selection() {
		if s.Store.Remove(id) {
			n++
		}
	}
	return n
}

func (s *Session) commitOn(ev scene.Event) {
	if !ev.Committable() {
		return
	}
	s.History.Commit(s.ctx)
}

func (s *Session) autosave(sn history.Snapshot) {
	if err := s.saver.SaveSnapshot(s.ctx, s.ID, sn.Blob); err != nil {
		s.log.Warn("autosave failed", slog.Any("err", err))
	}
}
