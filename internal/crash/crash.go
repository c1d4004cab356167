/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and a last-chance autosave.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"gocanvas/internal/editor"
	applog "gocanvas/internal/log"
	"gocanvas/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// autosaveTimeout bounds the crash-time checkpoint.
const autosaveTimeout = 5 * time.Second

// Recover captures a panic, logs an error with stacktrace, writes an error
// report into dir (the temp dir when empty) and checkpoints the live scene
// of sess through its saver, if it has one.
//
// Usage: defer crash.Recover(sess, dir)
func Recover(sess *editor.Session, dir string) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, err := writeReport(dir, sess, r, stack)
		if err != nil {
			l.Error("crash report failed", slog.Any("err", err))
		}
		if sess != nil {
			ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
			if err := sess.Checkpoint(ctx); err != nil {
				l.Error("crash autosave failed", slog.Any("err", err))
			} else {
				l.Info("crash autosave written", slog.String("session", sess.ID))
			}
			cancel()
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

func writeReport(dir string, sess *editor.Session, panicVal any, stack []byte) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return path, err
	}

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "gocanvas Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if sess != nil {
		st := sess.History.Stats()
		_, _ = fmt.Fprintf(&buf, "Session: %s\n", sess.ID)
		_, _ = fmt.Fprintf(&buf, "Objects: %d\n", sess.Store.Len())
		_, _ = fmt.Fprintf(&buf, "History: undo=%d redo=%d bytes=%d mode=%s\n", st.UndoDepth, st.RedoDepth, st.Bytes, st.Mode)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}
