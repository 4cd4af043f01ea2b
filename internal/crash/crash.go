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
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "sidebarlayout/internal/log"
	"sidebarlayout/internal/telemetry"
	"sidebarlayout/internal/version"
)

// Hooks replaced in tests.
var (
	exitFn             = os.Exit
	stderr   io.Writer = os.Stderr
	reportDir          = os.TempDir
)

// uploadWait bounds how long Recover waits for the crash upload before exiting.
const uploadWait = 2 * time.Second

// Recover captures a panic, logs it with its stack, writes a report file
// that includes the output of state (typically the drawer layout dump),
// optionally uploads it and exits with code 2. state may be nil.
//
// Usage: defer crash.Recover(layout.String)
func Recover(state func() string) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	report := buildReport(r, stack, safeState(state))
	path, err := writeReport(report)
	if err != nil {
		l.Error("crash report not written", slog.Any("err", err), slog.String("path", path))
	}
	select {
	case <-telemetry.Default().UploadCrash(report):
	case <-time.After(uploadWait):
	}

	_, _ = fmt.Fprintf(stderr, "A fatal error occurred. A crash report was saved to: %s\n", path)
	_, _ = fmt.Fprintf(stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// safeState evaluates state, tolerating a second panic inside it.
func safeState(state func() string) (s string) {
	if state == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("<state unavailable: %v>", r)
		}
	}()
	return state()
}

func buildReport(panicVal any, stack []byte, state string) []byte {
	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Sidebar Layout Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if state != "" {
		_, _ = fmt.Fprintf(&buf, "State: %s\n", state)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))
	return buf.Bytes()
}

func writeReport(report []byte) (string, error) {
	dir := reportDir()
	stamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(dir, fmt.Sprintf("sidebarlayout-crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	if _, err := f.Write(report); err != nil {
		_ = f.Close()
		return path, err
	}
	_ = f.Sync()
	return path, f.Close()
}
