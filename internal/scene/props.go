/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"gocanvas/internal/vector"
)

// Property keys understood by every object, plus the text-only keys.
const (
	KeyName        = "name"
	KeyFill        = "fill"
	KeyStroke      = "stroke"
	KeyStrokeWidth = "strokeWidth"
	KeyOpacity     = "opacity"
	KeyLeft        = "left"
	KeyTop         = "top"
	KeyWidth       = "width"
	KeyHeight      = "height"
	KeyScaleX      = "scaleX"
	KeyScaleY      = "scaleY"
	KeyAngle       = "angle"

	KeyText       = "text"
	KeyFontSize   = "fontSize"
	KeyFontFamily = "fontFamily"
	KeyFontWeight = "fontWeight"
	KeyFontStyle  = "fontStyle"
	KeyTextAlign  = "textAlign"
)

// ErrBadValue is returned by Set when a known key receives a value of the wrong type.
var ErrBadValue = errors.New("bad property value")

// Set applies one attribute. Keys the object's variant does not know are kept
// in Attrs so newer panels can round-trip them. A nil value on such a key deletes it.
func (o *Object) Set(key string, value any) error {
	switch key {
	case KeyName:
		s, err := toString(key, value)
		if err != nil {
			return err
		}
		o.Name = s
		return nil
	case KeyFill:
		p, err := toPaint(key, value)
		if err != nil {
			return err
		}
		o.Fill = p
		return nil
	case KeyStroke:
		c, err := toColorPtr(key, value)
		if err != nil {
			return err
		}
		o.Stroke = c
		return nil
	case KeyStrokeWidth:
		return setFloat(&o.StrokeWidth, key, value, nonNegative)
	case KeyOpacity:
		return setFloat(&o.Opacity, key, value, clampUnit)
	case KeyLeft:
		return setFloat(&o.Left, key, value, nil)
	case KeyTop:
		return setFloat(&o.Top, key, value, nil)
	case KeyWidth:
		return setFloat(&o.Width, key, value, nonNegative)
	case KeyHeight:
		return setFloat(&o.Height, key, value, nonNegative)
	case KeyScaleX:
		return setFloat(&o.ScaleX, key, value, nil)
	case KeyScaleY:
		return setFloat(&o.ScaleY, key, value, nil)
	case KeyAngle:
		return setFloat(&o.Angle, key, value, nil)
	}
	if t, ok := o.Text(); ok {
		if handled, err := t.set(key, value); handled {
			return err
		}
	}
	if value == nil {
		delete(o.Attrs, key)
		return nil
	}
	if err := checkPassThrough(key, value); err != nil {
		return err
	}
	if o.Attrs == nil {
		o.Attrs = make(map[string]any)
	}
	o.Attrs[key] = value
	return nil
}

// checkPassThrough rejects values a snapshot could not encode.
func checkPassThrough(key string, value any) error {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrBadValue, key, v)
		}
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: %s=%v", ErrBadValue, key, v)
		}
	}
	if _, err := json.Marshal(value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadValue, key, err)
	}
	return nil
}

// Get reads an attribute by key; ok is false when the object has no such key.
func (o *Object) Get(key string) (any, bool) {
	switch key {
	case KeyName:
		return o.Name, true
	case KeyFill:
		return o.Fill.String(), true
	case KeyStroke:
		if o.Stroke == nil {
			return "", true
		}
		return o.Stroke.String(), true
	case KeyStrokeWidth:
		return o.StrokeWidth, true
	case KeyOpacity:
		return o.Opacity, true
	case KeyLeft:
		return o.Left, true
	case KeyTop:
		return o.Top, true
	case KeyWidth:
		return o.Width, true
	case KeyHeight:
		return o.Height, true
	case KeyScaleX:
		return o.ScaleX, true
	case KeyScaleY:
		return o.ScaleY, true
	case KeyAngle:
		return o.Angle, true
	}
	if t, ok := o.Text(); ok {
		switch key {
		case KeyText:
			return t.Content, true
		case KeyFontSize:
			return t.FontSize, true
		case KeyFontFamily:
			return t.FontFamily, true
		case KeyFontWeight:
			return t.FontWeight, true
		case KeyFontStyle:
			return t.FontStyle, true
		case KeyTextAlign:
			return t.TextAlign, true
		}
	}
	v, ok := o.Attrs[key]
	return v, ok
}

// affectsTextLayout reports keys after which a text object's local size must be re-measured.
func affectsTextLayout(key string) bool {
	switch key {
	case KeyText, KeyFontSize, KeyFontFamily, KeyFontWeight, KeyFontStyle:
		return true
	}
	return false
}

func (t *Text) set(key string, value any) (bool, error) {
	var err error
	switch key {
	case KeyText:
		t.Content, err = toString(key, value)
	case KeyFontSize:
		err = setFloat(&t.FontSize, key, value, positive)
	case KeyFontFamily:
		t.FontFamily, err = toString(key, value)
	case KeyFontWeight:
		// weights arrive as "bold" or as 700
		if f, ferr := toFloat(key, value); ferr == nil {
			t.FontWeight = strconv.FormatFloat(f, 'f', -1, 64)
		} else {
			t.FontWeight, err = toString(key, value)
		}
	case KeyFontStyle:
		t.FontStyle, err = toString(key, value)
	case KeyTextAlign:
		t.TextAlign, err = toString(key, value)
	default:
		return false, nil
	}
	return true, err
}

type constraint func(float64) (float64, bool)

func nonNegative(v float64) (float64, bool) { return v, v >= 0 }
func positive(v float64) (float64, bool)    { return v, v > 0 }
func clampUnit(v float64) (float64, bool)   { return math.Min(1, math.Max(0, v)), true }

func setFloat(dst *float64, key string, value any, c constraint) error {
	f, err := toFloat(key, value)
	if err != nil {
		return err
	}
	if c != nil {
		var ok bool
		if f, ok = c(f); !ok {
			return fmt.Errorf("%w: %s=%v out of range", ErrBadValue, key, value)
		}
	}
	*dst = f
	return nil
}

func toFloat(key string, value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case json.Number:
		var err error
		if f, err = v.Float64(); err != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrBadValue, key, v)
		}
	default:
		return 0, fmt.Errorf("%w: %s expects a number, got %T", ErrBadValue, key, value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s=%v", ErrBadValue, key, f)
	}
	return f, nil
}

func toString(key string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return "", fmt.Errorf("%w: %s expects a string, got %T", ErrBadValue, key, value)
}

func toPaint(key string, value any) (vector.Paint, error) {
	switch v := value.(type) {
	case nil:
		return vector.Paint{}, nil
	case vector.Paint:
		return v, nil
	case vector.Color:
		return vector.Solid(v), nil
	case string:
		p, err := vector.ParsePaint(v)
		if err != nil {
			return vector.Paint{}, fmt.Errorf("%w: %s: %v", ErrBadValue, key, err)
		}
		return p, nil
	}
	return vector.Paint{}, fmt.Errorf("%w: %s expects a color, got %T", ErrBadValue, key, value)
}

func toColorPtr(key string, value any) (*vector.Color, error) {
	p, err := toPaint(key, value)
	if err != nil {
		return nil, err
	}
	if p.Pattern != "" {
		return nil, fmt.Errorf("%w: %s does not accept patterns", ErrBadValue, key)
	}
	return p.Color, nil
}
