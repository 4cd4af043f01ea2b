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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sidebarlayout/internal/telemetry"
)

func useTempReportDir(t *testing.T) string {
	dir := t.TempDir()
	old := reportDir
	reportDir = func() string { return dir }
	t.Cleanup(func() { reportDir = old })
	return dir
}

func TestWriteReportCreatesFile(t *testing.T) {
	dir := useTempReportDir(t)
	path, err := writeReport(buildReport("boom", []byte("stacktrace"), "left=open"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("report written to %s, want dir %s", path, dir)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	for _, want := range []string{"Sidebar Layout Crash Report", "Panic: boom", "State: left=open", "stacktrace"} {
		if !strings.Contains(s, want) {
			t.Fatalf("report missing %q:\n%s", want, s)
		}
	}
}

func TestSafeState(t *testing.T) {
	if s := safeState(nil); s != "" {
		t.Fatalf("nil state = %q", s)
	}
	if s := safeState(func() string { panic("again") }); !strings.Contains(s, "again") {
		t.Fatalf("nested panic not captured: %q", s)
	}
}

// TestRecover_WritesReportAndExits ensures Recover handles a panic without
// terminating the test process thanks to the injected exitFn.
func TestRecover_WritesReportAndExits(t *testing.T) {
	dir := useTempReportDir(t)
	telemetry.SetDefault(telemetry.New(telemetry.Config{}))
	t.Cleanup(func() { telemetry.SetDefault(nil) })

	var out bytes.Buffer
	oldStderr := stderr
	stderr = &out
	defer func() { stderr = oldStderr }()

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(func() string { return "active=right" })
		panic("boom")
	}()

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
	files, _ := os.ReadDir(dir)
	if len(files) != 1 {
		t.Fatalf("expected one crash report, got %d", len(files))
	}
	b, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) || !bytes.Contains(b, []byte("active=right")) {
		t.Fatalf("report content unexpected: %s", b)
	}
	if !strings.Contains(out.String(), files[0].Name()) {
		t.Fatalf("stderr does not name the report: %q", out.String())
	}
}

func TestRecover_NoPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()
	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("exit must not be called without a panic")
	}
}
