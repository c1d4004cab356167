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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type CanvasConfig struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Background string  `yaml:"background"`
}

type SnapConfig struct {
	Threshold     float64   `yaml:"threshold"`
	GuideColor    string    `yaml:"guide_color"`
	GuideWidth    float64   `yaml:"guide_width"`
	GuideDash     []float64 `yaml:"guide_dash"`
	SnapToObjects bool      `yaml:"snap_to_objects"`
}

type HistoryConfig struct {
	MaxDepth int `yaml:"max_depth"`
	MaxBytes int `yaml:"max_bytes"`
}

type StorageConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" | "postgres"
	DSN      string `yaml:"dsn"`
	Autosave bool   `yaml:"autosave"`
	KeepLast int    `yaml:"keep_last"`
}

// FontConfig registers an OpenType/TrueType file for one family and style.
type FontConfig struct {
	Family string `yaml:"family"`
	Bold   bool   `yaml:"bold"`
	Italic bool   `yaml:"italic"`
	Path   string `yaml:"path"`
}

// TextConfig selects the fonts text objects are measured with. Families that
// are not listed use the built-in bitmap face.
type TextConfig struct {
	DPI   float64      `yaml:"dpi"`
	Fonts []FontConfig `yaml:"fonts"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	Canvas        CanvasConfig    `yaml:"canvas"`
	Snap          SnapConfig      `yaml:"snap"`
	History       HistoryConfig   `yaml:"history"`
	Storage       StorageConfig   `yaml:"storage"`
	Text          TextConfig      `yaml:"text"`
	Logging       LoggingConfig   `yaml:"logging"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Canvas:        CanvasConfig{Width: 600, Height: 350, Background: "#ffffff"},
		Snap:          SnapConfig{Threshold: 10, GuideColor: "rgba(255,0,0,0.5)", GuideWidth: 1, GuideDash: []float64{4, 4}},
		History:       HistoryConfig{MaxDepth: 100, MaxBytes: 16 * 1024 * 1024},
		Storage:       StorageConfig{Driver: "sqlite", KeepLast: 50},
		Text:          TextConfig{DPI: 72},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Telemetry:     TelemetryConfig{ServiceName: "gocanvas"},
	}
}

// Env var names used as overrides.
const (
	EnvCanvasWidth     = "GCE_CANVAS_WIDTH"
	EnvCanvasHeight    = "GCE_CANVAS_HEIGHT"
	EnvSnapThreshold   = "GCE_SNAP_THRESHOLD"
	EnvSnapToObjects   = "GCE_SNAP_TO_OBJECTS"
	EnvHistoryMaxDepth = "GCE_HISTORY_MAX_DEPTH"
	EnvStorageDriver   = "GCE_STORAGE_DRIVER"
	EnvStorageDSN      = "GCE_STORAGE_DSN"
	EnvAutosave        = "GCE_AUTOSAVE"
	EnvTelemetry       = "GCE_TELEMETRY_ENABLED"
	EnvOTLPEndpoint    = "GCE_OTLP_ENDPOINT"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GCE_LOG_LEVEL"
	EnvLogFormat = "GCE_LOG_FORMAT"
	EnvLogSource = "GCE_LOG_SOURCE"
	EnvLogFile   = "GCE_LOG_FILE"
)

// envKeys maps dotted config keys to the env var overriding them.
var envKeys = map[string]string{
	"canvas.width":            EnvCanvasWidth,
	"canvas.height":           EnvCanvasHeight,
	"snap.threshold":          EnvSnapThreshold,
	"snap.snap_to_objects":    EnvSnapToObjects,
	"history.max_depth":       EnvHistoryMaxDepth,
	"storage.driver":          EnvStorageDriver,
	"storage.dsn":             EnvStorageDSN,
	"storage.autosave":        EnvAutosave,
	"telemetry.enabled":       EnvTelemetry,
	"telemetry.otlp_endpoint": EnvOTLPEndpoint,
	"logging.level":           EnvLogLevel,
	"logging.format":          EnvLogFormat,
	"logging.source":          EnvLogSource,
	"logging.file":            EnvLogFile,
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoCanvas")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoCanvas")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "gocanvas")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the config file at path (ConfigPath when empty) over the
// defaults and applies environment overrides. A missing file is not an error.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		// absent keys keep their defaults
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	normalize(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

// Save writes the config YAML to path (ConfigPath when empty).
func Save(path string, cfg AppConfig) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate rejects values the editor cannot run with.
func (c AppConfig) Validate() error {
	var errs []error
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size must be positive, got %vx%v", c.Canvas.Width, c.Canvas.Height))
	}
	if c.Snap.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("snap.threshold must be positive, got %v", c.Snap.Threshold))
	}
	if c.History.MaxDepth < 0 || c.History.MaxBytes < 0 {
		errs = append(errs, errors.New("history caps must not be negative"))
	}
	if c.Text.DPI < 0 {
		errs = append(errs, fmt.Errorf("text.dpi must not be negative, got %v", c.Text.DPI))
	}
	for i, f := range c.Text.Fonts {
		if f.Family == "" || f.Path == "" {
			errs = append(errs, fmt.Errorf("text.fonts[%d] needs family and path", i))
		}
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

func normalize(cfg *AppConfig) {
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	for i := range cfg.Text.Fonts {
		cfg.Text.Fonts[i].Family = strings.TrimSpace(cfg.Text.Fonts[i].Family)
		cfg.Text.Fonts[i].Path = strings.TrimSpace(cfg.Text.Fonts[i].Path)
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
	if strings.TrimSpace(cfg.Telemetry.ServiceName) == "" {
		cfg.Telemetry.ServiceName = "gocanvas"
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v, ok := envFloat(EnvCanvasWidth); ok {
		cfg.Canvas.Width = v
	}
	if v, ok := envFloat(EnvCanvasHeight); ok {
		cfg.Canvas.Height = v
	}
	if v, ok := envFloat(EnvSnapThreshold); ok {
		cfg.Snap.Threshold = v
	}
	if v, ok := envBool(EnvSnapToObjects); ok {
		cfg.Snap.SnapToObjects = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryMaxDepth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.History.MaxDepth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDriver)); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	if v, ok := envBool(EnvAutosave); ok {
		cfg.Storage.Autosave = v
	}
	if v, ok := envBool(EnvTelemetry); ok {
		cfg.Telemetry.Enabled = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOTLPEndpoint)); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := envBool(EnvLogSource); ok {
		cfg.Logging.Source = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func envBool(key string) (bool, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, false
	}
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes", true
}

func envFloat(key string) (float64, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// Keys lists, sorted, the dotted keys that can be overridden from the environment.
func Keys() []string {
	out := make([]string, 0, len(envKeys))
	for k := range envKeys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
