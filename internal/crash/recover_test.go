/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gocanvas/internal/editor"
	"gocanvas/internal/surface"
)

type memSaver struct {
	mu    sync.Mutex
	blobs [][]byte
}

func (m *memSaver) SaveSnapshot(_ context.Context, _ string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs = append(m.blobs, blob)
	return nil
}

// TestRecover_Panicking ensures Recover handles a panic, writes a report,
// autosaves the live scene, and does not terminate the test process due to injected exitFn.
func TestRecover_Panicking(t *testing.T) {
	// Capture stderr temporarily to avoid noisy test logs
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r) // drain pipe
	}()

	// Override exitFn to avoid os.Exit during test and to assert it was called
	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	saver := &memSaver{}
	sess := editor.New(surface.NewHeadless(), editor.Options{Saver: saver})
	t.Cleanup(sess.Close)
	sess.AddRect()
	before := len(saver.blobs)

	// Trigger a panic that Recover will catch
	func() {
		defer Recover(sess, dir)
		panic("boom")
	}()

	var found string
	files, _ := os.ReadDir(dir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log") {
			found = filepath.Join(dir, f.Name())
			break
		}
	}
	if found == "" {
		t.Fatalf("expected crash report file in %s", dir)
	}
	b, err := os.ReadFile(found)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", string(b))
	}
	if len(saver.blobs) != before+1 {
		t.Fatalf("expected one crash autosave, got %d", len(saver.blobs)-before)
	}

	// Ensure exit was attempted with code 2 (but intercepted)
	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
}

func TestRecover_NoPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(nil, t.TempDir())
	}()
	if called {
		t.Fatalf("exit must not be called without a panic")
	}
}
