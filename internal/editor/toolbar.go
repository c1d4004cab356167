/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"

	"gocanvas/internal/imaging"
	"gocanvas/internal/scene"
	"gocanvas/internal/vector"
)

// Toolbar defaults for new objects.
const (
	DefaultText      = "Hello World"
	DefaultFontSize  = 24
	ImageWidth       = 200
	GroupWidth       = 100
	defaultRectSize  = 100
	defaultCircleRad = 50
)

// AddRect adds a 100x100 green rectangle at (150,150).
func (s *Session) AddRect() (scene.ID, bool) {
	o := scene.NewShape(scene.FormRect, defaultRectSize, defaultRectSize)
	o.Left, o.Top = 150, 150
	o.Fill = vector.Solid(vector.MustColor("#00ff00"))
	return s.add(o)
}

// AddCircle adds a red circle of radius 50 at (100,100).
func (s *Session) AddCircle() (scene.ID, bool) {
	o := scene.NewCircle(defaultCircleRad)
	o.Left, o.Top = 100, 100
	o.Fill = vector.Solid(vector.MustColor("#ff0000"))
	return s.add(o)
}

// AddText adds a text object at (200,200); empty content uses the default text.
func (s *Session) AddText(content string) (scene.ID, bool) {
	if content == "" {
		content = DefaultText
	}
	o := scene.NewText(content, DefaultFontSize)
	o.Left, o.Top = 200, 200
	return s.add(o)
}

// AddImage decodes data and adds it scaled to the image width and centered.
// Data that does not decode adds nothing.
func (s *Session) AddImage(data []byte) (scene.ID, bool) {
	bm, format, err := imaging.Decode(data)
	if err != nil {
		s.log.Warn("add image failed", slog.Any("err", err))
		return "", false
	}
	o := scene.NewImage(data, format, bm)
	s.fitWidth(o, ImageWidth)
	return s.add(o)
}

// AddGroup groups children, scales the group to the icon width and centers it.
func (s *Session) AddGroup(children ...*scene.Object) (scene.ID, bool) {
	if len(children) == 0 {
		return "", false
	}
	o := scene.NewGroup(children...)
	s.fitWidth(o, GroupWidth)
	return s.add(o)
}

func (s *Session) fitWidth(o *scene.Object, width float64) {
	if o.Width <= 0 {
		return
	}
	k := width / o.Width
	o.ScaleX, o.ScaleY = k, k
	c := s.Store.Canvas()
	eff := o.EffectiveSize()
	o.Left = (c.W - eff.W) / 2
	o.Top = (c.H - eff.H) / 2
}

func (s *Session) add(o *scene.Object) (scene.ID, bool) {
	if !s.Store.Add(o) {
		return "", false
	}
	return o.ID, true
}
