/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides centralized slog-based logging for the editor.
// Records go to a console handler (pretty text or JSON) and, optionally, a
// rotating JSON file. Every record carries app and ver; records logged with
// a session context also carry session.
package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gocanvas/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits of the log file.
const (
	fileMaxMB      = 10
	fileMaxBackups = 3
	fileMaxAgeDays = 28
)

// Options controls logger initialization.
//
// FromEnv reads GCE_LOG_LEVEL (debug|info|warn|error), GCE_LOG_FORMAT
// (console|json), GCE_LOG_SOURCE (true|false) and GCE_LOG_FILE.
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string    // rotated JSON log; none when empty
	Writer    io.Writer // console destination; os.Stderr when nil
}

var (
	mu     sync.RWMutex
	logger *slog.Logger
	file   *lj.Logger
)

// L returns the process logger, initializing it from the environment on first use.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init replaces the process logger and slog.Default. A previously opened log
// file is closed.
func Init(opts Options) {
	hopts := &slog.HandlerOptions{Level: parseLevel(opts.Level), AddSource: opts.AddSource}
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(out, hopts)
	} else {
		console = newConsoleHandler(out, hopts)
	}
	hs := []slog.Handler{console}

	var fw *lj.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		fw = &lj.Logger{Filename: path, MaxSize: fileMaxMB, MaxBackups: fileMaxBackups, MaxAge: fileMaxAgeDays, Compress: true}
		hs = append(hs, slog.NewJSONHandler(fw, hopts))
	}

	var h slog.Handler = fanout(hs)
	if len(hs) == 1 {
		h = hs[0]
	}
	l := slog.New(sessionHandler{next: h}).With(
		slog.String("app", "gocanvas"),
		slog.String("ver", version.String()),
	)

	mu.Lock()
	prev := file
	logger, file = l, fw
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	slog.SetDefault(l)
}

// Close closes the rotating log file, if any.
func Close() error {
	mu.Lock()
	fw := file
	file = nil
	mu.Unlock()
	if fw == nil {
		return nil
	}
	return fw.Close()
}

// FromEnv builds Options from environment variables.
func FromEnv() Options {
	return Options{
		Level:     getenv("GCE_LOG_LEVEL", "info"),
		Format:    getenv("GCE_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(getenv("GCE_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("GCE_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type sessionKey struct{}

// ContextWithSession tags ctx so that records logged with it carry a session attribute.
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// parseLevel accepts slog level names (case-insensitive, "warning" too);
// anything else is info.
func parseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// sessionHandler adds the session id carried by the record's context.
type sessionHandler struct{ next slog.Handler }

func (h sessionHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h sessionHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id, _ := ctx.Value(sessionKey{}).(string); id != "" {
			r = r.Clone()
			r.AddAttrs(slog.String("session", id))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h sessionHandler) WithAttrs(as []slog.Attr) slog.Handler {
	return sessionHandler{next: h.next.WithAttrs(as)}
}

func (h sessionHandler) WithGroup(name string) slog.Handler {
	return sessionHandler{next: h.next.WithGroup(name)}
}

// fanout sends each record to every handler enabled for its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(as []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(as) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}
