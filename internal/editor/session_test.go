/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocanvas/internal/scene"
	"gocanvas/internal/surface"
	"gocanvas/internal/vector"
)

func newSession(t *testing.T, opts Options) (*Session, *surface.Headless) {
	t.Helper()
	sf := surface.NewHeadless()
	s := New(sf, opts)
	t.Cleanup(s.Close)
	return s, sf
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type memSaver struct {
	mu    sync.Mutex
	blobs [][]byte
	fail  bool
}

func (m *memSaver) SaveSnapshot(_ context.Context, _ string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.blobs = append(m.blobs, blob)
	return nil
}

func TestSetDimensionsScenario(t *testing.T) {
	s, sf := newSession(t, Options{})
	id, ok := s.AddRect()
	require.True(t, ok)
	require.True(t, s.Store.SetDimensions(200, 50))

	o, _ := s.Store.Object(id)
	assert.Equal(t, vector.Size{W: 200, H: 50}, o.EffectiveSize())
	assert.Equal(t, 2.0, o.ScaleX)
	assert.Equal(t, 0.5, o.ScaleY)
	assert.Equal(t, 150.0, o.Left)
	assert.Positive(t, sf.Renders())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, Options{})
	id, _ := s.AddRect()
	s1, err := s.Store.Snapshot()
	require.NoError(t, err)

	require.True(t, s.Store.SetRotation(45))
	s2, err := s.Store.Snapshot()
	require.NoError(t, err)

	require.True(t, s.Undo(ctx))
	got, _ := s.Store.Snapshot()
	assert.Equal(t, string(s1), string(got))
	assert.Empty(t, s.Store.Selection(), "restore clears the selection")
	top, ok := s.History.PeekRedo()
	require.True(t, ok)
	assert.Equal(t, string(s2), string(top.Blob))

	require.True(t, s.Redo(ctx))
	got, _ = s.Store.Snapshot()
	assert.Equal(t, string(s2), string(got))
	o, _ := s.Store.Object(id)
	assert.Equal(t, 45.0, o.Angle)
}

func TestMutationAfterUndoClearsRedo(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, Options{})
	s.AddRect()
	s.AddCircle()
	require.True(t, s.Undo(ctx))
	assert.Equal(t, 1, s.Store.Len())
	s.AddText("")
	assert.False(t, s.Redo(ctx))
	assert.Equal(t, 2, s.Store.Len())
}

func TestUndoBackToEmptyScene(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, Options{})
	s.AddRect()
	require.True(t, s.Undo(ctx))
	assert.Zero(t, s.Store.Len())
	assert.False(t, s.Undo(ctx))
}

func TestReorderScenario(t *testing.T) {
	s, _ := newSession(t, Options{})
	a, _ := s.AddRect()
	b, _ := s.AddCircle()
	c, _ := s.AddText("C")
	require.True(t, s.Store.Reorder(0, 2))
	var ids []scene.ID
	for _, o := range s.Store.Objects() {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []scene.ID{b, c, a}, ids)
	assert.Equal(t, 4, s.History.Stats().UndoDepth)
}

func TestDragSnapsAndCommitsOnlyAtEnd(t *testing.T) {
	s, sf := newSession(t, Options{})
	id, _ := s.AddRect()
	depth := s.History.Stats().UndoDepth

	s.Dispatch(surface.MoveInProgress{ID: id, Left: 120, Top: 20})
	s.Dispatch(surface.MoveInProgress{ID: id, Left: 246, Top: 20})
	require.Len(t, sf.Guides(), 1)
	o, _ := s.Store.Object(id)
	assert.Equal(t, 300.0, o.Center().X)
	assert.Equal(t, depth, s.History.Stats().UndoDepth, "drag ticks are not committed")

	s.Dispatch(surface.DragEnded{ID: id})
	assert.Empty(t, sf.Guides())
	assert.Equal(t, depth+1, s.History.Stats().UndoDepth)

	s.Dispatch(surface.MoveInProgress{ID: id, Left: 251, Top: 20})
	require.NotEmpty(t, sf.Guides())
	s.Dispatch(surface.DragAborted{ID: id})
	assert.Empty(t, sf.Guides())
	s.Dispatch(surface.PointerReleased{})
	assert.Empty(t, sf.Guides())
}

func TestSurfaceSelectionAndHandles(t *testing.T) {
	s, _ := newSession(t, Options{})
	a, _ := s.AddRect()
	b, _ := s.AddCircle()

	s.Dispatch(surface.SelectionUpdated{IDs: []scene.ID{a, "ghost", a}})
	assert.Equal(t, []scene.ID{a}, s.Store.Selection())
	f, ok := s.Properties.Fields()
	require.True(t, ok)
	assert.Equal(t, a, f.ID)

	s.Dispatch(surface.ObjectModified{ID: b, Left: 10, Top: 20, ScaleX: 2, ScaleY: 3, Angle: 30})
	o, _ := s.Store.Object(b)
	assert.Equal(t, vector.Size{W: 200, H: 300}, o.EffectiveSize())
	assert.Equal(t, 30.0, o.Angle)

	s.Dispatch(surface.SelectionCleared{})
	assert.Empty(t, s.Store.Selection())
	_, ok = s.Properties.Fields()
	assert.False(t, ok)
}

func TestToolbarDefaults(t *testing.T) {
	s, _ := newSession(t, Options{})
	id, _ := s.AddCircle()
	o, _ := s.Store.Object(id)
	assert.Equal(t, vector.Size{W: 100, H: 100}, o.EffectiveSize())
	assert.Equal(t, "#ff0000", o.Fill.String())

	id, _ = s.AddText("")
	o, _ = s.Store.Object(id)
	txt, ok := o.Text()
	require.True(t, ok)
	assert.Equal(t, DefaultText, txt.Content)
	assert.Equal(t, 24.0, txt.FontSize)
	assert.Positive(t, o.Width, "text is measured on add")
	assert.Equal(t, []scene.ID{id}, s.Store.Selection())

	id, ok = s.AddImage(pngBytes(t, 400, 100))
	require.True(t, ok)
	o, _ = s.Store.Object(id)
	assert.Equal(t, vector.Size{W: 200, H: 50}, o.EffectiveSize())
	assert.Equal(t, vector.Pt{X: 300, Y: 175}, o.Center())

	_, ok = s.AddImage([]byte("nope"))
	assert.False(t, ok)

	r := scene.NewShape(scene.FormRect, 50, 50)
	c := scene.NewCircle(25)
	c.Left = 150
	id, ok = s.AddGroup(r, c)
	require.True(t, ok)
	o, _ = s.Store.Object(id)
	assert.InDelta(t, 100.0, o.EffectiveSize().W, 1e-9)
	g, _ := o.Group()
	assert.Len(t, g.Children, 2)
}

func TestReplaceImageFailureKeepsBitmap(t *testing.T) {
	s, _ := newSession(t, Options{})
	id, _ := s.AddImage(pngBytes(t, 20, 10))
	before, _ := s.Store.Object(id)

	assert.False(t, s.Properties.ReplaceImage([]byte("garbage")))
	after, _ := s.Store.Object(id)
	bi, _ := before.Image()
	ai, _ := after.Image()
	assert.Equal(t, bi.Src, ai.Src)
	assert.NotNil(t, ai.Bitmap)

	require.True(t, s.Properties.ReplaceImage(pngBytes(t, 40, 40)))
	after, _ = s.Store.Object(id)
	assert.Equal(t, 40.0, after.Width)
}

func TestAutosaveOnCommit(t *testing.T) {
	saver := &memSaver{}
	s, _ := newSession(t, Options{Saver: saver})
	s.AddRect()
	s.Store.SetProperty(scene.KeyOpacity, 0.5)
	// baseline, add, opacity
	assert.Len(t, saver.blobs, 3)

	saver.fail = true
	assert.True(t, s.Store.SetRotation(10), "a failing save never breaks the edit")
}

func TestCloseMakesOperationsNoops(t *testing.T) {
	s, _ := newSession(t, Options{})
	s.AddRect()
	s.AddCircle()
	s.Undo(context.Background())
	s.Close()
	assert.False(t, s.Undo(context.Background()))
	assert.False(t, s.Redo(context.Background()))
	assert.Equal(t, 1, s.Store.Len(), "history cannot replace the scene once closed")
	st := s.History.Stats()
	assert.Equal(t, 1, st.UndoDepth)
	assert.Equal(t, 1, st.RedoDepth)

	_, ok := s.AddRect()
	assert.False(t, ok)
	assert.False(t, s.Store.SetRotation(5))
	assert.Equal(t, 1, s.Store.Len())
	assert.Zero(t, s.DeleteSelection())
}

func TestUnencodablePropertyKeepsHistoryWorking(t *testing.T) {
	s, _ := newSession(t, Options{})
	id, _ := s.AddRect()
	assert.False(t, s.Store.SetProperty("customRatio", math.NaN()))
	require.True(t, s.Store.SetRotation(45))
	require.True(t, s.Undo(context.Background()))
	o, _ := s.Store.Object(id)
	assert.Zero(t, o.Angle)
}

func TestLoadStartsFreshHistory(t *testing.T) {
	src, _ := newSession(t, Options{})
	src.AddRect()
	src.AddCircle()
	blob, err := src.Store.Snapshot()
	require.NoError(t, err)

	s, _ := newSession(t, Options{})
	s.AddText("")
	require.NoError(t, s.Load(context.Background(), blob))
	assert.Equal(t, 2, s.Store.Len())
	assert.False(t, s.History.CanUndo(), "a loaded snapshot is the new baseline")
	present, ok := s.History.Present()
	require.True(t, ok)
	live, _ := s.Store.Snapshot()
	assert.Equal(t, live, present.Blob)

	assert.Error(t, s.Load(context.Background(), []byte(`{"objects":"nope"}`)))
	assert.Equal(t, 2, s.Store.Len())
}

func TestCheckpoint(t *testing.T) {
	s, _ := newSession(t, Options{})
	assert.Error(t, s.Checkpoint(context.Background()))

	saver := &memSaver{}
	s2, _ := newSession(t, Options{Saver: saver})
	s2.AddRect()
	n := len(saver.blobs)
	require.NoError(t, s2.Checkpoint(context.Background()))
	require.Len(t, saver.blobs, n+1)
	live, _ := s2.Store.Snapshot()
	assert.Equal(t, live, saver.blobs[n])
}
