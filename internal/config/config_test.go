/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Canvas.Width != 600 || cfg.Canvas.Height != 350 {
		t.Fatalf("unexpected canvas %vx%v", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Snap.Threshold != 10 || len(cfg.Snap.GuideDash) != 2 {
		t.Fatalf("unexpected snap defaults %+v", cfg.Snap)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.KeepLast != 50 {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
}

func TestFileKeepsDefaultsForAbsentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "snap:\n  threshold: 6\n  snap_to_objects: true\nstorage:\n  driver: Postgres\n  dsn: postgres://x\nlogging:\n  level: DEBUG\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Snap.Threshold != 6 || !cfg.Snap.SnapToObjects {
		t.Fatalf("snap not read from file: %+v", cfg.Snap)
	}
	if cfg.Snap.GuideWidth != 1 || cfg.Canvas.Width != 600 {
		t.Fatalf("absent keys lost their defaults: %+v %+v", cfg.Snap, cfg.Canvas)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Logging.Level != "debug" {
		t.Fatalf("values were not normalized: %q %q", cfg.Storage.Driver, cfg.Logging.Level)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvCanvasWidth, "800")
	t.Setenv(EnvSnapThreshold, "4.5")
	t.Setenv(EnvAutosave, "yes")
	t.Setenv(EnvLogFormat, "JSON")
	t.Setenv(EnvStorageDSN, "/tmp/x.sqlite")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Canvas.Width != 800 || cfg.Snap.Threshold != 4.5 {
		t.Fatalf("numeric overrides not applied: %+v %+v", cfg.Canvas, cfg.Snap)
	}
	if !cfg.Storage.Autosave || cfg.Storage.DSN != "/tmp/x.sqlite" {
		t.Fatalf("storage overrides not applied: %+v", cfg.Storage)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
	if env, ok := EnvOverrideFor("snap.threshold"); !ok || env != EnvSnapThreshold {
		t.Fatalf("EnvOverrideFor(snap.threshold) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("canvas.height"); ok {
		t.Fatalf("canvas.height is not overridden")
	}
	if _, ok := EnvOverrideFor("nope"); ok {
		t.Fatalf("unknown key must not report an override")
	}
}

func TestValidateAndBadYAML(t *testing.T) {
	t.Setenv(EnvSnapThreshold, "0")
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil || !strings.Contains(err.Error(), "threshold") {
		t.Fatalf("expected threshold validation error, got %v", err)
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("canvas: [1, 2"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
	cfg := Defaults()
	cfg.Storage.Driver = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected driver validation error")
	}
}

func TestTextFonts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "text:\n  fonts:\n    - family: Go\n      path: ' /fonts/Go-Regular.ttf '\n    - family: Go\n      bold: true\n      path: /fonts/Go-Bold.ttf\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Text.DPI != 72 || len(cfg.Text.Fonts) != 2 {
		t.Fatalf("unexpected text config %+v", cfg.Text)
	}
	if f := cfg.Text.Fonts[0]; f.Family != "Go" || f.Bold || f.Path != "/fonts/Go-Regular.ttf" {
		t.Fatalf("font entry not normalized: %+v", f)
	}
	if !cfg.Text.Fonts[1].Bold {
		t.Fatalf("bold flag lost: %+v", cfg.Text.Fonts[1])
	}

	cfg.Text.Fonts = append(cfg.Text.Fonts, FontConfig{Family: "NoPath"})
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "text.fonts[2]") {
		t.Fatalf("expected font validation error, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Defaults()
	cfg.Canvas.Background = "#101010"
	cfg.History.MaxDepth = 7
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Canvas.Background != "#101010" || got.History.MaxDepth != 7 {
		t.Fatalf("round trip lost values: %+v", got)
	}
	keys := Keys()
	if len(keys) == 0 || keys[0] != "canvas.height" {
		t.Fatalf("expected sorted keys, got %v", keys)
	}
}
