/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocanvas/internal/editor"
	"gocanvas/internal/scene"
	"gocanvas/internal/surface"
	"gocanvas/internal/vector"
)

func newSession(t *testing.T) *editor.Session {
	t.Helper()
	s := editor.New(surface.NewHeadless(), editor.Options{})
	t.Cleanup(s.Close)
	return s
}

func parse(t *testing.T, src string) Script {
	t.Helper()
	sc, errs := Parse([]byte(src))
	require.Empty(t, errs)
	return sc
}

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func TestRunEditingSession(t *testing.T) {
	s := newSession(t)
	r := NewRunner(s, t.TempDir())
	res, err := r.Run(context.Background(), parse(t, `
- add: rect
  as: r1
- add: circle
  as: c1
- drag: {target: r1, path: [[120, 20], [246, 20]]}
- select: r1
- set: {key: opacity, value: 0.5}
- dims: {width: 200, height: 50}
- undo: 2
- redo
`))
	require.NoError(t, err)
	require.Len(t, res, 8)
	for _, x := range res {
		assert.True(t, x.Applied, x.Step.String())
	}

	r1, ok := r.Alias("r1")
	require.True(t, ok)
	o, _ := s.Store.Object(r1)
	assert.Equal(t, 250.0, o.Left, "snapped to the canvas center")
	assert.Equal(t, 0.5, o.Opacity)
	assert.Equal(t, vector.Size{W: 100, H: 100}, o.EffectiveSize(), "dims was undone")

	st := s.History.Stats()
	assert.Equal(t, 4, st.UndoDepth)
	assert.Equal(t, 1, st.RedoDepth)
}

func TestRunNoopsAreNotErrors(t *testing.T) {
	s := newSession(t)
	res, err := NewRunner(s, "").Run(context.Background(), parse(t, `
- undo
- select: []
- rotate: 30
- reorder: {from: 0, to: 5}
- delete
`))
	require.NoError(t, err)
	for _, x := range res[2:] {
		assert.False(t, x.Applied, x.Step.String())
	}
}

func TestRunLayerMoveAndDelete(t *testing.T) {
	s := newSession(t)
	r := NewRunner(s, "")
	_, err := r.Run(context.Background(), parse(t, `
- add: rect
  as: a
- add: circle
  as: b
- layer_move: {from: 0, to: 1}
- select: [a]
- delete
`))
	require.NoError(t, err)
	b, _ := r.Alias("b")
	assert.Equal(t, 1, s.Store.Len())
	assert.Equal(t, 0, s.Store.IndexOf(b))
}

func TestRunImagesAndGroups(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "wide.png", 400, 100)
	writePNG(t, dir, "tall.png", 10, 20)

	s := newSession(t)
	r := NewRunner(s, dir)
	res, err := r.Run(context.Background(), parse(t, `
- add: image
  file: wide.png
  as: img
- replace_image: tall.png
- add: group
  as: g
`))
	require.NoError(t, err)
	assert.True(t, res[1].Applied)

	img, _ := r.Alias("img")
	o, _ := s.Store.Object(img)
	im, ok := o.Image()
	require.True(t, ok)
	assert.Equal(t, image.Pt(10, 20), im.Bitmap.Bounds().Size())

	g, _ := r.Alias("g")
	o, _ = s.Store.Object(g)
	assert.Equal(t, scene.KindGroup, o.Kind())
	assert.InDelta(t, float64(editor.GroupWidth), o.EffectiveSize().W, 1e-9)
}

func TestRunLoadSnapshot(t *testing.T) {
	src := newSession(t)
	src.AddRect()
	src.AddCircle()
	blob, err := src.Store.Snapshot()
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snap.json"), blob, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"version": "x"}`), 0o644))

	s := newSession(t)
	r := NewRunner(s, dir)
	_, err = r.Run(context.Background(), parse(t, "- load: snap.json\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Store.Len())
	assert.False(t, s.History.CanUndo())

	_, err = r.Run(context.Background(), parse(t, "- load: bad.json\n"))
	assert.ErrorIs(t, err, scene.ErrInvalidSnapshot)
	assert.Equal(t, 2, s.Store.Len())
}

func TestRunErrors(t *testing.T) {
	s := newSession(t)
	r := NewRunner(s, t.TempDir())

	_, err := r.Run(context.Background(), parse(t, "- select: [ghost]\n"))
	assert.ErrorContains(t, err, `unknown object "ghost"`)

	_, err = r.Run(context.Background(), parse(t, "- add: image\n  file: missing.png\n"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := r.Run(ctx, parse(t, "- add: rect\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res)
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "pic.png", 20, 20)
	path := filepath.Join(dir, "edit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - add: image\n    file: pic.png\n"), 0o644))

	s := newSession(t)
	res, err := RunFile(context.Background(), s, path)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 1, s.Store.Len())

	require.NoError(t, os.WriteFile(path, []byte("- add: hexagon\n"), 0o644))
	_, err = RunFile(context.Background(), s, path)
	assert.ErrorContains(t, err, "unknown kind")
}
