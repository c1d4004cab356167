/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package panel

import (
	"log/slog"
	"math"
	"sync"

	applog "gocanvas/internal/log"
	"gocanvas/internal/scene"
)

// PropertyStore is the scene access the properties panel needs.
type PropertyStore interface {
	Primary() (*scene.Object, bool)
	SetProperty(key string, value any) bool
	SetDimensions(width, height float64) bool
	SetRotation(angle float64) bool
	ReplaceImage(data []byte) bool
}

// Fields are the panel's editable values. Width and Height are the on-canvas
// size; Left, Top, Width and Height are rounded for display.
type Fields struct {
	ID          scene.ID
	Kind        scene.Kind
	Name        string
	Fill        string
	Stroke      string
	StrokeWidth float64
	Opacity     float64
	Left        float64
	Top         float64
	Width       float64
	Height      float64
	Angle       float64

	// text only
	IsText     bool
	Text       string
	FontSize   float64
	FontFamily string
	FontWeight string
	FontStyle  string
	TextAlign  string

	IsImage bool
}

// Properties mirrors the primary selected object. Fields are pulled from the
// store when the primary object changes or on an explicit Resync; other
// changes to the object are not observed.
type Properties struct {
	store PropertyStore
	log   *slog.Logger

	mu      sync.Mutex
	primary scene.ID
	fields  Fields
	present bool
}

func NewProperties(s PropertyStore) *Properties {
	p := &Properties{store: s, log: applog.WithComponent("panel")}
	p.Resync()
	return p
}

// Fields returns the current field values; ok is false when nothing is selected.
func (p *Properties) Fields() (Fields, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fields, p.present
}

// Resync reloads every field from the primary object.
func (p *Properties) Resync() {
	o, ok := p.store.Primary()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !ok {
		p.primary, p.fields, p.present = "", Fields{}, false
		return
	}
	p.primary, p.fields, p.present = o.ID, fieldsOf(o), true
}

// SceneChanged resyncs when the primary object differs from the one shown.
func (p *Properties) SceneChanged(ev scene.Event) {
	if ev.Kind != scene.EventSelection && ev.Kind != scene.EventRestored {
		return
	}
	var next scene.ID
	if o, ok := p.store.Primary(); ok {
		next = o.ID
	}
	p.mu.Lock()
	same := next == p.primary && (ev.Kind != scene.EventRestored)
	p.mu.Unlock()
	if !same {
		p.Resync()
	}
}

// Edit applies one field edit through a single store call. Width and height
// edits keep the other on-canvas dimension as shown; angle sets the absolute
// rotation; everything else is a property write.
func (p *Properties) Edit(key string, value any) bool {
	p.mu.Lock()
	if !p.present {
		p.mu.Unlock()
		p.log.Debug("edit ignored: nothing selected", slog.String("key", key))
		return false
	}
	f := p.fields
	p.mu.Unlock()

	var ok bool
	switch key {
	case scene.KeyWidth, scene.KeyHeight:
		v, isNum := number(value)
		if !isNum {
			p.log.Debug("edit ignored: not a number", slog.String("key", key))
			return false
		}
		w, h := f.Width, f.Height
		if key == scene.KeyWidth {
			w = v
		} else {
			h = v
		}
		if ok = p.store.SetDimensions(w, h); ok {
			f.Width, f.Height = w, h
		}
	case scene.KeyAngle:
		v, isNum := number(value)
		if !isNum {
			return false
		}
		if ok = p.store.SetRotation(v); ok {
			f.Angle = v
		}
	default:
		ok = p.store.SetProperty(key, value)
		if ok {
			p.refreshField(&f, key)
		}
	}
	if ok {
		p.mu.Lock()
		p.fields = f
		p.mu.Unlock()
	}
	return ok
}

// ReplaceImage swaps the bitmap of the selected image objects.
func (p *Properties) ReplaceImage(data []byte) bool {
	p.mu.Lock()
	isImage := p.present && p.fields.IsImage
	p.mu.Unlock()
	if !isImage {
		return false
	}
	return p.store.ReplaceImage(data)
}

// refreshField reads back the one edited key so normalized values (clamped
// opacity, parsed colors) show as stored.
func (p *Properties) refreshField(f *Fields, key string) {
	o, ok := p.store.Primary()
	if !ok || o.ID != f.ID {
		return
	}
	fresh := fieldsOf(o)
	switch key {
	case scene.KeyName:
		f.Name = fresh.Name
	case scene.KeyFill:
		f.Fill = fresh.Fill
	case scene.KeyStroke:
		f.Stroke = fresh.Stroke
	case scene.KeyStrokeWidth:
		f.StrokeWidth = fresh.StrokeWidth
	case scene.KeyOpacity:
		f.Opacity = fresh.Opacity
	case scene.KeyLeft:
		f.Left = fresh.Left
	case scene.KeyTop:
		f.Top = fresh.Top
	case scene.KeyText, scene.KeyFontSize, scene.KeyFontFamily, scene.KeyFontWeight, scene.KeyFontStyle, scene.KeyTextAlign:
		f.Text, f.FontSize, f.FontFamily = fresh.Text, fresh.FontSize, fresh.FontFamily
		f.FontWeight, f.FontStyle, f.TextAlign = fresh.FontWeight, fresh.FontStyle, fresh.TextAlign
		f.Width, f.Height = fresh.Width, fresh.Height
	}
}

func fieldsOf(o *scene.Object) Fields {
	eff := o.EffectiveSize()
	f := Fields{
		ID:          o.ID,
		Kind:        o.Kind(),
		Name:        o.Name,
		Fill:        o.Fill.String(),
		StrokeWidth: o.StrokeWidth,
		Opacity:     o.Opacity,
		Left:        math.Round(o.Left),
		Top:         math.Round(o.Top),
		Width:       math.Round(eff.W),
		Height:      math.Round(eff.H),
		Angle:       o.Angle,
	}
	if o.Stroke != nil {
		f.Stroke = o.Stroke.String()
	}
	if t, ok := o.Text(); ok {
		f.IsText = true
		f.Text, f.FontSize, f.FontFamily = t.Content, t.FontSize, t.FontFamily
		f.FontWeight, f.FontStyle, f.TextAlign = t.FontWeight, t.FontStyle, t.TextAlign
	}
	_, f.IsImage = o.Image()
	return f
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
