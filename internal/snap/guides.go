/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package snap aligns a dragged object to the canvas center (and optionally to
// other objects) and reports the guide lines to draw while the drag lasts.
package snap

import (
	"math"

	"gocanvas/internal/scene"
	"gocanvas/internal/vector"
)

// DefaultThreshold is the snap distance in canvas units.
const DefaultThreshold = 10

type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Feature is what a guide aligned: a center or an edge.
type Feature string

const (
	Center Feature = "center"
	Edge   Feature = "edge"
)

// Guide is a transient line drawn during a drag. Position is the x of a
// vertical guide or the y of a horizontal one; From and To are its extents.
type Guide struct {
	Orientation Orientation
	Kind        Feature
	Position    float64
	From        vector.Pt
	To          vector.Pt
}

// Style is how guides are stroked.
type Style struct {
	Color vector.Color
	Width float64
	Dash  []float64
}

func DefaultStyle() Style {
	return Style{Color: vector.MustColor("rgba(255,0,0,0.5)"), Width: 1, Dash: []float64{4, 4}}
}

// Options configure an Engine.
type Options struct {
	// Threshold is the exclusive distance below which snapping occurs.
	Threshold float64
	Style     Style
	// SnapToObjects adds other objects' edges and centers as targets after
	// the canvas center.
	SnapToObjects bool
}

func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, Style: DefaultStyle()}
}

// Target is a line a moving object can align to. Span is the extent of the
// thing the line belongs to; the drawn guide also covers the moving object
// unless Full is set.
type Target struct {
	Orientation Orientation
	Kind        Feature
	Position    float64
	Span        vector.Rect
	Full        bool
}

// CanvasTargets are the canvas's center lines: a vertical line at W/2 spanning
// the height and a horizontal line at H/2 spanning the width.
func CanvasTargets(canvas vector.Size) []Target {
	full := vector.R(0, 0, canvas.W, canvas.H)
	return []Target{
		{Orientation: Vertical, Kind: Center, Position: canvas.W / 2, Span: full, Full: true},
		{Orientation: Horizontal, Kind: Center, Position: canvas.H / 2, Span: full, Full: true},
	}
}

// ObjectTargets lists edge and center lines of objs, topmost object first,
// leaving out skip.
func ObjectTargets(objs []*scene.Object, skip scene.ID) []Target {
	var out []Target
	for i := len(objs) - 1; i >= 0; i-- {
		o := objs[i]
		if o.ID == skip {
			continue
		}
		b := o.Bounds()
		c := b.Center()
		out = append(out,
			Target{Orientation: Vertical, Kind: Center, Position: c.X, Span: b},
			Target{Orientation: Vertical, Kind: Edge, Position: b.X, Span: b},
			Target{Orientation: Vertical, Kind: Edge, Position: b.X + b.W, Span: b},
			Target{Orientation: Horizontal, Kind: Center, Position: c.Y, Span: b},
			Target{Orientation: Horizontal, Kind: Edge, Position: b.Y, Span: b},
			Target{Orientation: Horizontal, Kind: Edge, Position: b.Y + b.H, Span: b},
		)
	}
	return out
}

// Compute evaluates targets against an object with the given center and
// bounds. Each axis independently takes the first target in order whose
// distance is strictly below threshold. Center targets compare the center;
// edge targets compare the near and far edges. It returns the offset that
// aligns the object and the guides to draw.
func Compute(center vector.Pt, bounds vector.Rect, targets []Target, threshold float64) (dx, dy float64, guides []Guide) {
	var haveX, haveY bool
	for _, t := range targets {
		switch t.Orientation {
		case Vertical:
			if haveX {
				continue
			}
			if d, ok := match(t, center.X, bounds.X, bounds.X+bounds.W, threshold); ok {
				dx, haveX = d, true
				guides = append(guides, guideFor(t, bounds))
			}
		case Horizontal:
			if haveY {
				continue
			}
			if d, ok := match(t, center.Y, bounds.Y, bounds.Y+bounds.H, threshold); ok {
				dy, haveY = d, true
				guides = append(guides, guideFor(t, bounds))
			}
		}
		if haveX && haveY {
			break
		}
	}
	return dx, dy, guides
}

func match(t Target, mid, lo, hi, threshold float64) (float64, bool) {
	feats := []float64{mid}
	if t.Kind == Edge {
		feats = []float64{lo, hi}
	}
	for _, f := range feats {
		if d := t.Position - f; math.Abs(d) < threshold {
			return d, true
		}
	}
	return 0, false
}

func guideFor(t Target, moving vector.Rect) Guide {
	span := t.Span
	if !t.Full {
		// cover both the target and the moving object
		span = span.Union(moving)
	}
	g := Guide{Orientation: t.Orientation, Kind: t.Kind, Position: t.Position}
	if t.Orientation == Vertical {
		g.From = vector.Pt{X: t.Position, Y: span.Y}
		g.To = vector.Pt{X: t.Position, Y: span.Y + span.H}
	} else {
		g.From = vector.Pt{X: span.X, Y: t.Position}
		g.To = vector.Pt{X: span.X + span.W, Y: t.Position}
	}
	return g
}
