/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Colors and paint definitions.

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{0, 0, 0, 0}
)

var errBadColor = errors.New("invalid color")

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa", "rgb(r,g,b)" and "rgba(r,g,b,a)"
// with a in [0,1].
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[len("rgba("):len(s)-1], true)
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[len("rgb("):len(s)-1], false)
	case s == "transparent":
		return Transparent, nil
	}
	return Color{}, fmt.Errorf("%w: %q", errBadColor, s)
}

// MustColor is ParseColor for literals known to be valid.
func MustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(h string) (Color, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return Color{}, fmt.Errorf("%w: #%s", errBadColor, h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: #%s", errBadColor, h)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func parseFunc(body string, alpha bool) (Color, error) {
	parts := strings.Split(body, ",")
	want := 3
	if alpha {
		want = 4
	}
	if len(parts) != want {
		return Color{}, fmt.Errorf("%w: %q", errBadColor, body)
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return Color{}, fmt.Errorf("%w: %q", errBadColor, body)
		}
		ch[i] = uint8(n)
	}
	a := uint8(255)
	if alpha {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || f < 0 || f > 1 {
			return Color{}, fmt.Errorf("%w: %q", errBadColor, body)
		}
		a = uint8(math.Round(f * 255))
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: a}, nil
}

// String formats opaque colors as #rrggbb and translucent ones as rgba().
func (c Color) String() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	a := strconv.FormatFloat(FloatRound(float64(c.A)/255, 3), 'f', -1, 64)
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, a)
}

// MarshalText lets colors travel as strings in JSON and YAML.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Paint is either a solid color or a reference to a named pattern.
// A zero Paint means "none".
type Paint struct {
	Color   *Color `json:"color,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

func Solid(c Color) Paint { return Paint{Color: &c} }

func PatternRef(name string) Paint { return Paint{Pattern: name} }

func (p Paint) IsNone() bool { return p.Color == nil && p.Pattern == "" }

func (p Paint) Equal(o Paint) bool {
	if p.Pattern != o.Pattern {
		return false
	}
	if p.Color == nil || o.Color == nil {
		return p.Color == o.Color
	}
	return *p.Color == *o.Color
}

// String renders the value the properties panel shows for the paint.
func (p Paint) String() string {
	switch {
	case p.Pattern != "":
		return "pattern:" + p.Pattern
	case p.Color != nil:
		return p.Color.String()
	}
	return ""
}

// ParsePaint turns a panel/script value into a Paint. Empty string or "none"
// clears the paint; "pattern:<name>" references a pattern.
func ParsePaint(s string) (Paint, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return Paint{}, nil
	}
	if name, ok := strings.CutPrefix(s, "pattern:"); ok {
		if name == "" {
			return Paint{}, fmt.Errorf("%w: empty pattern", errBadColor)
		}
		return PatternRef(name), nil
	}
	c, err := ParseColor(s)
	if err != nil {
		return Paint{}, err
	}
	return Solid(c), nil
}
