/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gocanvas/internal/editor"
	applog "gocanvas/internal/log"
	"gocanvas/internal/scene"
	"gocanvas/internal/surface"
)

// Result records whether a step changed the session.
// A step that is a no-op for the editor (nothing selected, index out of
// range, nothing to undo) is not an error.
type Result struct {
	Step    Step
	Applied bool
}

// Runner replays scripts against one session.
type Runner struct {
	sess    *editor.Session
	dir     string
	aliases map[string]scene.ID
	log     *slog.Logger
}

// NewRunner returns a runner resolving relative file paths against dir.
func NewRunner(sess *editor.Session, dir string) *Runner {
	return &Runner{
		sess:    sess,
		dir:     dir,
		aliases: map[string]scene.ID{},
		log:     applog.WithComponent("script"),
	}
}

// Alias returns the object id bound to name by an "add ... as" step.
func (r *Runner) Alias(name string) (scene.ID, bool) {
	id, ok := r.aliases[name]
	return id, ok
}

// Run executes every step in order and stops at the first failing one.
func (r *Runner) Run(ctx context.Context, sc Script) ([]Result, error) {
	results := make([]Result, 0, len(sc.Steps))
	for _, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		applied, err := r.exec(ctx, st)
		if err != nil {
			return results, fmt.Errorf("%s: %w", st, err)
		}
		r.log.Debug("step", slog.String("op", string(st.Op)), slog.Int("line", st.Line), slog.Bool("applied", applied))
		results = append(results, Result{Step: st, Applied: applied})
	}
	return results, nil
}

// RunFile parses the script at path and runs it with file paths resolved
// against the script's directory.
func RunFile(ctx context.Context, sess *editor.Session, path string) ([]Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, perrs := Parse(data)
	if len(perrs) > 0 {
		errs := make([]error, len(perrs))
		for i, e := range perrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("parse %s: %w", path, errors.Join(errs...))
	}
	return NewRunner(sess, filepath.Dir(path)).Run(ctx, sc)
}

func (r *Runner) exec(ctx context.Context, st Step) (bool, error) {
	s := r.sess
	switch st.Op {
	case OpAdd:
		id, ok, err := r.add(st)
		if err != nil || !ok {
			return false, err
		}
		if st.As != "" {
			r.aliases[st.As] = id
		}
		return true, nil
	case OpSelect:
		if len(st.IDs) == 0 {
			s.Dispatch(surface.SelectionCleared{})
			return true, nil
		}
		ids := make([]scene.ID, 0, len(st.IDs))
		for _, name := range st.IDs {
			id, err := r.resolve(name)
			if err != nil {
				return false, err
			}
			ids = append(ids, id)
		}
		s.Dispatch(surface.SelectionUpdated{IDs: ids})
		return len(s.Store.Selection()) > 0, nil
	case OpSet:
		return s.Properties.Edit(st.Key, st.Value), nil
	case OpDims:
		return s.Store.SetDimensions(st.Width, st.Height), nil
	case OpRotate:
		return s.Store.SetRotation(st.Angle), nil
	case OpReorder:
		return s.Store.Reorder(st.From, st.To), nil
	case OpLayerMove:
		return s.Layers.Move(st.From, st.To), nil
	case OpDrag:
		id, err := r.resolve(st.Target)
		if err != nil {
			return false, err
		}
		if len(st.Path) == 0 {
			return false, nil
		}
		for _, p := range st.Path {
			s.Dispatch(surface.MoveInProgress{ID: id, Left: p[0], Top: p[1]})
		}
		if st.Abort {
			s.Dispatch(surface.DragAborted{ID: id})
		} else {
			s.Dispatch(surface.DragEnded{ID: id})
		}
		s.Dispatch(surface.PointerReleased{})
		return true, nil
	case OpDelete:
		return s.DeleteSelection() > 0, nil
	case OpUndo, OpRedo:
		step := s.Undo
		if st.Op == OpRedo {
			step = s.Redo
		}
		did := false
		for i := 0; i < st.Count; i++ {
			if !step(ctx) {
				break
			}
			did = true
		}
		return did, nil
	case OpReplaceImage:
		data, err := r.read(st.File)
		if err != nil {
			return false, err
		}
		return s.Properties.ReplaceImage(data), nil
	case OpLoad:
		data, err := r.read(st.File)
		if err != nil {
			return false, err
		}
		if err := s.Load(ctx, data); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, fmt.Errorf("unsupported operation %q", st.Op)
}

func (r *Runner) add(st Step) (scene.ID, bool, error) {
	s := r.sess
	switch st.Kind {
	case "rect":
		id, ok := s.AddRect()
		return id, ok, nil
	case "circle":
		id, ok := s.AddCircle()
		return id, ok, nil
	case "text":
		id, ok := s.AddText(st.Text)
		return id, ok, nil
	case "image":
		data, err := r.read(st.File)
		if err != nil {
			return "", false, err
		}
		id, ok := s.AddImage(data)
		return id, ok, nil
	case "group":
		kinds := st.Children
		if len(kinds) == 0 {
			kinds = []string{"rect", "circle"}
		}
		children := make([]*scene.Object, 0, len(kinds))
		for i, k := range kinds {
			children = append(children, groupChild(k, float64(i)*110))
		}
		id, ok := s.AddGroup(children...)
		return id, ok, nil
	}
	return "", false, fmt.Errorf("unknown kind %q", st.Kind)
}

func groupChild(kind string, left float64) *scene.Object {
	var o *scene.Object
	if kind == "circle" {
		o = scene.NewCircle(50)
	} else {
		o = scene.NewShape(scene.FormRect, 100, 100)
	}
	o.Left = left
	return o
}

func (r *Runner) resolve(name string) (scene.ID, error) {
	if id, ok := r.aliases[name]; ok {
		return id, nil
	}
	if _, ok := r.sess.Store.Object(scene.ID(name)); ok {
		return scene.ID(name), nil
	}
	return "", fmt.Errorf("unknown object %q", name)
}

func (r *Runner) read(name string) ([]byte, error) {
	if !filepath.IsAbs(name) {
		name = filepath.Join(r.dir, name)
	}
	return os.ReadFile(name)
}
