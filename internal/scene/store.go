/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"gocanvas/internal/imaging"
	applog "gocanvas/internal/log"
	"gocanvas/internal/vector"
)

var (
	errRestoreInFlight = errors.New("restore already in flight")
	errNoSurface       = errors.New("no render surface attached")
)

// Surface is the part of the render surface the store drives.
type Surface interface {
	RequestRender()
}

// TextMeasurer derives the local box of a text object.
type TextMeasurer interface {
	Measure(content, family string, size float64, bold, italic bool) (w, h float64)
}

// DecodeFunc turns encoded image bytes into a bitmap.
type DecodeFunc func([]byte) (image.Image, string, error)

// Option configures a Store.
type Option func(*Store)

func WithMeasurer(m TextMeasurer) Option { return func(s *Store) { s.measurer = m } }
func WithDecoder(d DecodeFunc) Option    { return func(s *Store) { s.decode = d } }
func WithLogger(l *slog.Logger) Option   { return func(s *Store) { s.log = l } }

// Store owns the ordered object list and the selection. Index 0 is the bottom
// of the z-order. Interaction entry points never fail: invalid input, a missing
// surface or an in-flight restore make them no-ops that report false.
type Store struct {
	mu        sync.RWMutex
	surface   Surface
	canvas    vector.Size
	objects   []*Object
	selection []ID
	restoring bool
	listeners []*listenerEntry

	measurer TextMeasurer
	decode   DecodeFunc
	log      *slog.Logger
}

type listenerEntry struct{ l Listener }

// NewStore creates an empty scene for a canvas of the given size.
func NewStore(canvas vector.Size, opts ...Option) *Store {
	s := &Store{canvas: canvas, decode: imaging.Decode}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = applog.WithComponent("scene")
	}
	return s
}

// AttachSurface connects the render surface. Until a surface is attached every
// operation is a no-op.
func (s *Store) AttachSurface(sf Surface) {
	s.mu.Lock()
	s.surface = sf
	s.mu.Unlock()
}

// DetachSurface disconnects the render surface at session end.
func (s *Store) DetachSurface() { s.AttachSurface(nil) }

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	e := &listenerEntry{l: l}
	s.mu.Lock()
	s.listeners = append(s.listeners, e)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(x *listenerEntry) bool { return x == e })
	}
}

// Canvas returns the canvas size objects are laid out on.
func (s *Store) Canvas() vector.Size { return s.canvas }

// Len returns the number of objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Objects returns copies of the objects in z-order, bottom first.
func (s *Store) Objects() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Object, len(s.objects))
	for i, o := range s.objects {
		out[i] = o.Clone()
	}
	return out
}

// Object returns a copy of the object with the given identity.
func (s *Store) Object(id ID) (*Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.objects[i].Clone(), true
	}
	return nil, false
}

// IndexOf returns the z-index of id or -1.
func (s *Store) IndexOf(id ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id)
}

// Selection returns the selected identities; the first one is the primary.
func (s *Store) Selection() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.selection)
}

// Primary returns a copy of the first selected object.
func (s *Store) Primary() (*Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.selection) == 0 {
		return nil, false
	}
	if i := s.indexLocked(s.selection[0]); i >= 0 {
		return s.objects[i].Clone(), true
	}
	return nil, false
}

// IsSelected reports whether id is part of the selection.
func (s *Store) IsSelected(id ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.selection, id)
}

// Add appends obj on top of the z-order and makes it the sole selection.
// The store takes ownership of obj. An empty identity is assigned; a duplicate one is rejected.
func (s *Store) Add(obj *Object) bool {
	if obj == nil || obj.Variant == nil {
		return false
	}
	s.mu.Lock()
	if !s.writableLocked("add") {
		s.mu.Unlock()
		return false
	}
	if obj.ID == "" {
		obj.ID = NewID()
	}
	if s.indexLocked(obj.ID) >= 0 {
		s.mu.Unlock()
		s.log.Debug("add ignored: duplicate id", slog.String("id", string(obj.ID)))
		return false
	}
	s.measureLocked(obj)
	s.objects = append(s.objects, obj)
	s.selection = []ID{obj.ID}
	return s.finish(Event{Kind: EventAdded, IDs: []ID{obj.ID}}, Event{Kind: EventSelection, IDs: []ID{obj.ID}})
}

// Remove deletes the object by identity and drops it from the selection.
func (s *Store) Remove(id ID) bool {
	s.mu.Lock()
	if !s.writableLocked("remove") {
		s.mu.Unlock()
		return false
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.objects = slices.Delete(s.objects, i, i+1)
	events := []Event{{Kind: EventRemoved, IDs: []ID{id}}}
	if slices.Contains(s.selection, id) {
		s.selection = slices.DeleteFunc(s.selection, func(x ID) bool { return x == id })
		events = append(events, Event{Kind: EventSelection, IDs: slices.Clone(s.selection)})
	}
	return s.finish(events...)
}

// Reorder moves the object at oldIndex so it ends up at newIndex, shifting the
// objects in between. Both indices refer to the sequence before the move;
// out-of-range indices are ignored.
func (s *Store) Reorder(oldIndex, newIndex int) bool {
	s.mu.Lock()
	if !s.writableLocked("reorder") {
		s.mu.Unlock()
		return false
	}
	n := len(s.objects)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		s.mu.Unlock()
		s.log.Debug("reorder ignored: index out of range", slog.Int("old", oldIndex), slog.Int("new", newIndex), slog.Int("len", n))
		return false
	}
	if oldIndex == newIndex {
		s.mu.Unlock()
		return false
	}
	obj := s.objects[oldIndex]
	s.objects = slices.Delete(s.objects, oldIndex, oldIndex+1)
	s.objects = slices.Insert(s.objects, newIndex, obj)
	return s.finish(Event{Kind: EventReordered, IDs: []ID{obj.ID}})
}

// SetSelection replaces the selection with ids that are present, keeping the
// given order and dropping duplicates.
func (s *Store) SetSelection(ids []ID) bool {
	s.mu.Lock()
	if !s.writableLocked("select") {
		s.mu.Unlock()
		return false
	}
	next := make([]ID, 0, len(ids))
	for _, id := range ids {
		if s.indexLocked(id) >= 0 && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	s.selection = next
	return s.finish(Event{Kind: EventSelection, IDs: slices.Clone(next)})
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() bool { return s.SetSelection(nil) }

// SetProperty applies key=value to every selected object. Objects that reject
// the value are skipped.
func (s *Store) SetProperty(key string, value any) bool {
	return s.mutateSelection("set_property", func(o *Object) bool {
		if err := o.Set(key, value); err != nil {
			s.log.Debug("property skipped", slog.String("id", string(o.ID)), slog.String("key", key), slog.Any("err", err))
			return false
		}
		if _, ok := o.Text(); ok && affectsTextLayout(key) {
			s.measureLocked(o)
		}
		return true
	})
}

// SetDimensions scales every selected object so its on-canvas size becomes
// width x height. Objects with a zero local dimension are skipped.
func (s *Store) SetDimensions(width, height float64) bool {
	return s.mutateSelection("set_dimensions", func(o *Object) bool {
		if o.Width == 0 || o.Height == 0 {
			s.log.Debug("dimensions skipped: zero local size", slog.String("id", string(o.ID)))
			return false
		}
		o.ScaleX = width / o.Width
		o.ScaleY = height / o.Height
		return true
	})
}

// SetRotation sets the absolute angle in degrees on every selected object.
func (s *Store) SetRotation(angle float64) bool {
	return s.mutateSelection("set_rotation", func(o *Object) bool {
		o.Angle = angle
		return true
	})
}

// ReplaceImage decodes data once and swaps the bitmap of every selected image.
// A decode failure leaves all objects untouched.
func (s *Store) ReplaceImage(data []byte) bool {
	s.mu.RLock()
	decode := s.decode
	s.mu.RUnlock()
	bm, format, err := decode(data)
	if err != nil {
		s.log.Warn("replace image failed", slog.Any("err", err))
		return false
	}
	src := slices.Clone(data)
	sz := bm.Bounds().Size()
	return s.mutateSelection("replace_image", func(o *Object) bool {
		img, ok := o.Image()
		if !ok {
			return false
		}
		img.Src, img.Format, img.Bitmap = src, format, bm
		o.Width, o.Height = float64(sz.X), float64(sz.Y)
		return true
	})
}

// DragTo moves an object during a pointer gesture. The change is transient
// until MarkModified is called at drag end.
func (s *Store) DragTo(id ID, left, top float64) bool {
	return s.mutateOne("drag", id, EventMoving, func(o *Object) {
		o.Left, o.Top = left, top
	})
}

// MoveBy nudges an object during a gesture, as the snapping engine does.
func (s *Store) MoveBy(id ID, dx, dy float64) bool {
	return s.mutateOne("move_by", id, EventMoving, func(o *Object) {
		o.Left += dx
		o.Top += dy
	})
}

// Place sets the transform a resize or rotate handle produced on the surface.
// It is committable.
func (s *Store) Place(id ID, left, top, scaleX, scaleY, angle float64) bool {
	return s.mutateOne("place", id, EventModified, func(o *Object) {
		o.Left, o.Top = left, top
		o.ScaleX, o.ScaleY = scaleX, scaleY
		o.Angle = angle
	})
}

// MarkModified records that the surface finished changing an object at drag
// end. It is committable.
func (s *Store) MarkModified(id ID) bool {
	return s.mutateOne("modified", id, EventModified, func(*Object) {})
}

// Snapshot serializes the whole scene.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Encode(s.objects)
}

// Restore replaces every object with the content of blob and clears the
// selection. Bitmaps are decoded before anything is published; while the
// restore is in flight all mutations are rejected.
func (s *Store) Restore(ctx context.Context, blob []byte) error {
	objs, err := Decode(blob)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.surface == nil {
		s.mu.Unlock()
		return errNoSurface
	}
	if s.restoring {
		s.mu.Unlock()
		return errRestoreInFlight
	}
	s.restoring = true
	decode := s.decode
	s.mu.Unlock()

	err = decodeBitmaps(ctx, objs, decode, s.log)

	s.mu.Lock()
	s.restoring = false
	if err == nil && s.surface == nil {
		err = errNoSurface
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.objects = objs
	s.selection = nil
	ids := make([]ID, len(objs))
	for i, o := range objs {
		ids[i] = o.ID
	}
	s.finish(Event{Kind: EventRestored, IDs: ids}, Event{Kind: EventSelection})
	return nil
}

// Restoring reports whether a restore is in flight.
func (s *Store) Restoring() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restoring
}

func (s *Store) mutateSelection(op string, fn func(*Object) bool) bool {
	s.mu.Lock()
	if !s.writableLocked(op) {
		s.mu.Unlock()
		return false
	}
	if len(s.selection) == 0 {
		s.mu.Unlock()
		s.log.Debug("ignored: empty selection", slog.String("op", op))
		return false
	}
	var changed []ID
	for _, id := range s.selection {
		if i := s.indexLocked(id); i >= 0 && fn(s.objects[i]) {
			changed = append(changed, id)
		}
	}
	if len(changed) == 0 {
		s.mu.Unlock()
		return false
	}
	return s.finish(Event{Kind: EventModified, IDs: changed})
}

func (s *Store) mutateOne(op string, id ID, kind EventKind, fn func(*Object)) bool {
	s.mu.Lock()
	if !s.writableLocked(op) {
		s.mu.Unlock()
		return false
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	fn(s.objects[i])
	return s.finish(Event{Kind: kind, IDs: []ID{id}})
}

// finish must be called with s.mu held; it unlocks, requests a render and
// notifies listeners. It always reports true.
func (s *Store) finish(events ...Event) bool {
	sf := s.surface
	ls := slices.Clone(s.listeners)
	s.mu.Unlock()
	if sf != nil {
		sf.RequestRender()
	}
	for _, ev := range events {
		for _, e := range ls {
			e.l.SceneChanged(ev)
		}
	}
	return true
}

func (s *Store) writableLocked(op string) bool {
	if s.surface == nil {
		s.log.Debug("ignored: no render surface", slog.String("op", op))
		return false
	}
	if s.restoring {
		s.log.Debug("ignored: restore in flight", slog.String("op", op))
		return false
	}
	return true
}

func (s *Store) indexLocked(id ID) int {
	return slices.IndexFunc(s.objects, func(o *Object) bool { return o.ID == id })
}

func (s *Store) measureLocked(o *Object) {
	t, ok := o.Text()
	if !ok || s.measurer == nil {
		return
	}
	bold := t.FontWeight == "bold" || t.FontWeight == "700" || t.FontWeight == "800" || t.FontWeight == "900"
	o.Width, o.Height = s.measurer.Measure(t.Content, t.FontFamily, t.FontSize, bold, t.FontStyle == "italic")
}

// decodeBitmaps rebuilds image bitmaps, including those nested in groups, in
// parallel. A bitmap that fails to decode stays nil and keeps its source bytes.
func decodeBitmaps(ctx context.Context, objs []*Object, decode DecodeFunc, l *slog.Logger) error {
	var imgs []*Image
	var walk func([]*Object)
	walk = func(list []*Object) {
		for _, o := range list {
			switch v := o.Variant.(type) {
			case *Image:
				imgs = append(imgs, v)
			case *Group:
				walk(v.Children)
			}
		}
	}
	walk(objs)
	if len(imgs) == 0 {
		return ctx.Err()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, img := range imgs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bm, _, err := decode(img.Src)
			if err != nil {
				l.Warn("restore: bitmap decode failed", slog.Any("err", err))
				return nil
			}
			img.Bitmap = bm
			return nil
		})
	}
	return g.Wait()
}
