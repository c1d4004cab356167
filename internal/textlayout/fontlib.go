/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	Size   float64
	Bold   bool
	Italic bool
}

// Provider maps a FontSpec to a concrete face. Scale is the factor to apply to
// measurements taken with the face (1 when the face was built at Size).
type Provider interface {
	Resolve(FontSpec) (face font.Face, scale float64)
}

// BasicProvider uses x/image/basicfont Face7x13 scaled to the requested size.
// It is deterministic and needs no font files.
type BasicProvider struct{}

func (BasicProvider) Resolve(fs FontSpec) (font.Face, float64) {
	f := basicfont.Face7x13
	if fs.Size <= 0 {
		return f, 1
	}
	return f, fs.Size / float64(f.Height)
}

// FontLibrary stores loaded OpenType fonts mapped by family/bold/italic.
type FontLibrary struct {
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	bold   bool
	italic bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// LoadTTF loads a font file into the library under the given family/bold/italic.
func (fl *FontLibrary) LoadTTF(family string, bold, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.Add(family, bold, italic, data)
}

// Add parses font bytes into the library.
func (fl *FontLibrary) Add(family string, bold, italic bool, data []byte) error {
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.fonts[fontKey{family: family, bold: bold, italic: italic}] = f
	return nil
}

func (fl *FontLibrary) find(fs FontSpec) *opentype.Font {
	if fl == nil || fl.fonts == nil {
		return nil
	}
	if f, ok := fl.fonts[fontKey{family: fs.Family, bold: fs.Bold, italic: fs.Italic}]; ok {
		return f
	}
	// same family, any style
	for k, f := range fl.fonts {
		if k.family == fs.Family {
			return f
		}
	}
	return nil
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider
}

func (p OTProvider) Resolve(fs FontSpec) (font.Face, float64) {
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if p.Lib != nil && fs.Size > 0 {
		if f := p.Lib.find(fs); f != nil {
			face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: fs.Size, DPI: dpi, Hinting: font.HintingNone})
			if err == nil {
				return face, 1
			}
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(fs)
}
