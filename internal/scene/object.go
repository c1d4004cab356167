/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"image"
	"maps"

	"github.com/google/uuid"

	"gocanvas/internal/vector"
)

// ID is the opaque identity of an object. It is assigned once and never reused.
type ID string

// NewID returns a fresh random identity.
func NewID() ID { return ID(uuid.NewString()) }

// Kind names the variant carried by an Object.
type Kind string

const (
	KindShape Kind = "shape"
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindGroup Kind = "group"
)

// Base is the transform/style envelope shared by every object.
// Width/Height are local (unscaled) dimensions; Left/Top is the position of the
// top-left origin before rotation. Angle is in degrees, clockwise.
type Base struct {
	ID          ID             `json:"id"`
	Name        string         `json:"name,omitempty"`
	Width       float64        `json:"width"`
	Height      float64        `json:"height"`
	Left        float64        `json:"left"`
	Top         float64        `json:"top"`
	ScaleX      float64        `json:"scaleX"`
	ScaleY      float64        `json:"scaleY"`
	Angle       float64        `json:"angle"`
	Fill        vector.Paint   `json:"fill"`
	Stroke      *vector.Color  `json:"stroke,omitempty"`
	StrokeWidth float64        `json:"strokeWidth"`
	Opacity     float64        `json:"opacity"`
	Attrs       map[string]any `json:"attrs,omitempty"`
}

// Variant is implemented by Shape, Text, Image and Group only.
type Variant interface {
	Kind() Kind
	cloneVariant() Variant
}

// Object is one placeable entity on the canvas.
type Object struct {
	Base
	Variant Variant
}

// ShapeForm selects the outline drawn for a Shape.
type ShapeForm string

const (
	FormRect    ShapeForm = "rect"
	FormEllipse ShapeForm = "ellipse"
	FormCircle  ShapeForm = "circle"
)

type Shape struct {
	Form ShapeForm `json:"form"`
	// Radius is the circle radius or the rect corner radius.
	Radius float64 `json:"radius,omitempty"`
}

type Text struct {
	Content    string  `json:"content"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	FontWeight string  `json:"fontWeight,omitempty"`
	FontStyle  string  `json:"fontStyle,omitempty"`
	TextAlign  string  `json:"textAlign,omitempty"`
}

// Image keeps the encoded source so snapshots can rebuild the bitmap.
type Image struct {
	Src    []byte      `json:"src"`
	Format string      `json:"format,omitempty"`
	Bitmap image.Image `json:"-"`
}

type Group struct {
	Children []*Object `json:"children"`
}

func (*Shape) Kind() Kind { return KindShape }
func (*Text) Kind() Kind  { return KindText }
func (*Image) Kind() Kind { return KindImage }
func (*Group) Kind() Kind { return KindGroup }

func (s *Shape) cloneVariant() Variant { c := *s; return &c }
func (t *Text) cloneVariant() Variant  { c := *t; return &c }

// Src bytes are never mutated in place, so the clone shares them.
func (i *Image) cloneVariant() Variant { c := *i; return &c }

func (g *Group) cloneVariant() Variant {
	c := &Group{Children: make([]*Object, len(g.Children))}
	for i, ch := range g.Children {
		c.Children[i] = ch.Clone()
	}
	return c
}

func defaultBase() Base {
	return Base{ID: NewID(), ScaleX: 1, ScaleY: 1, Opacity: 1}
}

// NewShape creates a rect or ellipse with the given local size.
func NewShape(form ShapeForm, w, h float64) *Object {
	b := defaultBase()
	b.Width, b.Height = w, h
	return &Object{Base: b, Variant: &Shape{Form: form}}
}

// NewCircle creates a circle; its local box is 2r x 2r.
func NewCircle(r float64) *Object {
	b := defaultBase()
	b.Width, b.Height = 2*r, 2*r
	return &Object{Base: b, Variant: &Shape{Form: FormCircle, Radius: r}}
}

// NewText creates a text object. Local size is derived by the store's measurer on add.
func NewText(content string, fontSize float64) *Object {
	b := defaultBase()
	b.Fill = vector.Solid(vector.Black)
	return &Object{Base: b, Variant: &Text{Content: content, FontFamily: "Times New Roman", FontSize: fontSize, FontWeight: "normal", FontStyle: "normal", TextAlign: "left"}}
}

// NewImage wraps an already decoded bitmap. Local size is the bitmap size.
func NewImage(src []byte, format string, bm image.Image) *Object {
	b := defaultBase()
	if bm != nil {
		sz := bm.Bounds().Size()
		b.Width, b.Height = float64(sz.X), float64(sz.Y)
	}
	return &Object{Base: b, Variant: &Image{Src: src, Format: format, Bitmap: bm}}
}

// NewGroup groups children. The group origin is the children's bounding box
// corner and children are re-expressed relative to it.
func NewGroup(children ...*Object) *Object {
	b := defaultBase()
	g := &Group{}
	if len(children) > 0 {
		box := children[0].Bounds()
		for _, c := range children[1:] {
			box = box.Union(c.Bounds())
		}
		b.Left, b.Top, b.Width, b.Height = box.X, box.Y, box.W, box.H
		for _, c := range children {
			cc := c.Clone()
			cc.Left -= box.X
			cc.Top -= box.Y
			g.Children = append(g.Children, cc)
		}
	}
	return &Object{Base: b, Variant: g}
}

// Kind reports the variant kind, or "" for an object without a variant.
func (o *Object) Kind() Kind {
	if o == nil || o.Variant == nil {
		return ""
	}
	return o.Variant.Kind()
}

func (o *Object) Shape() (*Shape, bool) { v, ok := o.Variant.(*Shape); return v, ok }
func (o *Object) Text() (*Text, bool)   { v, ok := o.Variant.(*Text); return v, ok }
func (o *Object) Image() (*Image, bool) { v, ok := o.Variant.(*Image); return v, ok }
func (o *Object) Group() (*Group, bool) { v, ok := o.Variant.(*Group); return v, ok }

// Clone returns a deep copy that keeps the same identity.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := &Object{Base: o.Base}
	if o.Stroke != nil {
		s := *o.Stroke
		c.Stroke = &s
	}
	if o.Fill.Color != nil {
		f := *o.Fill.Color
		c.Fill.Color = &f
	}
	if o.Attrs != nil {
		c.Attrs = maps.Clone(o.Attrs)
	}
	if o.Variant != nil {
		c.Variant = o.Variant.cloneVariant()
	}
	return c
}

// EffectiveSize is the on-canvas size: local size times scale.
func (o *Object) EffectiveSize() vector.Size {
	return vector.Size{W: o.Width * o.ScaleX, H: o.Height * o.ScaleY}
}

// Transform maps local coordinates into canvas coordinates.
func (o *Object) Transform() vector.Affine2D {
	return vector.Translate(o.Left, o.Top).Mul(vector.RotateDeg(o.Angle)).Mul(vector.Scale(o.ScaleX, o.ScaleY))
}

// Center returns the on-canvas center point, accounting for rotation about the origin.
func (o *Object) Center() vector.Pt {
	return o.Transform().Apply(vector.Pt{X: o.Width / 2, Y: o.Height / 2})
}

// Bounds returns the axis-aligned on-canvas box of the transformed object.
func (o *Object) Bounds() vector.Rect {
	m := o.Transform()
	return vector.BoundsOf(
		m.Apply(vector.Pt{}),
		m.Apply(vector.Pt{X: o.Width}),
		m.Apply(vector.Pt{Y: o.Height}),
		m.Apply(vector.Pt{X: o.Width, Y: o.Height}),
	)
}

// Label is the display name used by the layer list.
func (o *Object) Label() string {
	if o.Name != "" {
		return o.Name
	}
	if s, ok := o.Shape(); ok {
		return string(s.Form)
	}
	return string(o.Kind())
}
