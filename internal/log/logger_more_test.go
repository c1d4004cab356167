/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("GCE_LOG_LEVEL", "warn")
	t.Setenv("GCE_LOG_FORMAT", "json")
	t.Setenv("GCE_LOG_SOURCE", "true")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if err := os.Unsetenv("GCE_UNSET_FOR_TEST"); err != nil {
		t.Fatalf("Unsetenv error: %v", err)
	}
	if v := getenv("GCE_UNSET_FOR_TEST", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, " WARN ": slog.LevelWarn, "warning": slog.LevelWarn,
		"error": slog.LevelError, "": slog.LevelInfo, "loud": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	h := newConsoleHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}
}

func TestConsoleHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, nil).
		WithAttrs([]slog.Attr{slog.String("k", "v")}).
		WithGroup("grp")

	at := time.Date(2025, 3, 1, 9, 30, 15, 250_000_000, time.UTC)
	r := slog.NewRecord(at, slog.LevelError, "boom", 0)
	r.AddAttrs(
		slog.Int("n", 42),
		slog.Float64("pi", 3.14),
		slog.Float64("canvas_w", 600),
		slog.Float64("zoom", 0.5),
		slog.String("name", "two words"),
		slog.Duration("took", 1500*time.Millisecond),
		slog.Group("size", slog.Int("w", 10), slog.Int("h", 20)),
	)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "09:30:15.250 ERR boom ") {
		t.Fatalf("record time and level not used: %q", out)
	}
	for _, want := range []string{
		" k=v ", "grp.n=42", "grp.pi=3.14", "grp.canvas_w=600 ", "grp.zoom=0.5",
		`grp.name="two words"`, "grp.took=1.5s", "grp.size.w=10", "grp.size.h=20",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "grp.k=") {
		t.Fatalf("attr added before the group must not be prefixed: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("line not terminated: %q", out)
	}
}

func TestConsoleHandlerSource(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", AddSource: true, Writer: &buf})
	t.Cleanup(func() { Init(Options{Writer: io.Discard}) })

	L().Info("where")
	if !strings.Contains(buf.String(), "src=logger_more_test.go:") {
		t.Fatalf("source location missing: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "app=gocanvas") {
		t.Fatalf("static attrs missing: %q", buf.String())
	}
}

func TestFanoutSkipsDisabledHandlers(t *testing.T) {
	var info, errs bytes.Buffer
	f := fanout{
		newConsoleHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		newConsoleHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	}
	l := slog.New(f)
	l.Info("saved")
	l.Error("failed")

	if c := strings.Count(info.String(), "\n"); c != 2 {
		t.Fatalf("info handler lines = %d: %q", c, info.String())
	}
	if strings.Contains(errs.String(), "saved") || !strings.Contains(errs.String(), "failed") {
		t.Fatalf("error handler got %q", errs.String())
	}
}
