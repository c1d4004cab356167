/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestParseColorForms(t *testing.T) {
	cases := map[string]Color{
		"#ff0000":             {255, 0, 0, 255},
		"#0f0":                {0, 255, 0, 255},
		"#00000080":           {0, 0, 0, 128},
		"rgb(1, 2, 3)":        {1, 2, 3, 255},
		"rgba(255, 0, 0, 0.5)": {255, 0, 0, 128},
		"transparent":         Transparent,
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseColor(%q) = %+v, want %+v", in, got, want)
		}
	}
	for _, bad := range []string{"", "red", "#12", "rgb(1,2)", "rgba(1,2,3,4)", "rgb(300,0,0)"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestColorString(t *testing.T) {
	if s := (Color{0, 255, 0, 255}).String(); s != "#00ff00" {
		t.Fatalf("unexpected %q", s)
	}
	if s := MustColor("rgba(255,0,0,0.5)").String(); s != "rgba(255, 0, 0, 0.502)" {
		t.Fatalf("unexpected %q", s)
	}
}

func TestParsePaint(t *testing.T) {
	p, err := ParsePaint("#ff0000")
	if err != nil || p.Color == nil || *p.Color != (Color{255, 0, 0, 255}) {
		t.Fatalf("solid paint: %+v err=%v", p, err)
	}
	p, err = ParsePaint("pattern:dots")
	if err != nil || p.Pattern != "dots" || p.Color != nil {
		t.Fatalf("pattern paint: %+v err=%v", p, err)
	}
	p, err = ParsePaint("none")
	if err != nil || !p.IsNone() {
		t.Fatalf("none paint: %+v err=%v", p, err)
	}
	if !Solid(White).Equal(Solid(White)) || Solid(White).Equal(Solid(Black)) || Solid(White).Equal(Paint{}) {
		t.Fatalf("Equal mismatch")
	}
	if _, err := ParsePaint("pattern:"); err == nil {
		t.Fatalf("expected error for empty pattern")
	}
}
