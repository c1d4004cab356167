/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures text so text objects get a local box that
// follows their content and font.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
)

// DefaultLineHeight is the line box as a multiple of the font size.
const DefaultLineHeight = 1.16

// Measurer computes the local width/height of a block of text. Lines are split
// on '\n' only; there is no wrapping.
type Measurer struct {
	Provider   Provider
	LineHeight float64
}

// NewMeasurer returns a Measurer over provider (BasicProvider when nil).
func NewMeasurer(provider Provider) *Measurer {
	if provider == nil {
		provider = BasicProvider{}
	}
	return &Measurer{Provider: provider, LineHeight: DefaultLineHeight}
}

// Measure returns the widest line's advance and the stacked line heights.
func (m *Measurer) Measure(content, family string, size float64, bold, italic bool) (w, h float64) {
	if size <= 0 {
		return 0, 0
	}
	p := m.Provider
	if p == nil {
		p = BasicProvider{}
	}
	lh := m.LineHeight
	if lh <= 0 {
		lh = DefaultLineHeight
	}
	face, scale := p.Resolve(FontSpec{Family: family, Size: size, Bold: bold, Italic: italic})
	d := &font.Drawer{Face: face}
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		adv := float64(d.MeasureString(line)) / 64 * scale
		if adv > w {
			w = adv
		}
	}
	h = float64(len(lines)) * size * lh
	return w, h
}
