/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Output formats understood by Write.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Write renders res in the given format.
func Write(w io.Writer, res *Result, format string) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return WriteTable(w, res)
	case FormatJSON:
		return WriteJSON(w, res)
	default:
		return fmt.Errorf("unknown format %q (want %s or %s)", format, FormatTable, FormatJSON)
	}
}

// WriteTable prints one row per step followed by a status line.
func WriteTable(w io.Writer, res *Result) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if res.Script != "" {
		t.SetTitle(res.Script)
	}
	t.AppendHeader(table.Row{"#", "Action", "Active", "Left X", "Right X", "Opacity", "Backdrop", "Prevented", "Result"})
	for _, s := range res.Steps {
		status := "ok"
		if len(s.Failures) > 0 {
			status = "FAIL: " + strings.Join(s.Failures, "; ")
		}
		backdrop := "inert"
		if s.Interactive {
			backdrop = "interactive"
		}
		t.AppendRow(table.Row{s.Index, s.Action, s.Active, formatX(s.LeftX), formatX(s.RightX),
			strconv.FormatFloat(float64(s.Opacity), 'f', 2, 32), backdrop, s.Prevented, status})
	}
	t.Render()

	if n := res.FailureCount(); n > 0 {
		_, err := fmt.Fprintf(w, "%d expectation(s) failed, %d step(s)\n", n, len(res.Steps))
		return err
	}
	_, err := fmt.Fprintf(w, "all expectations met, %d step(s)\n", len(res.Steps))
	return err
}

// WriteJSON prints the full result including transitions.
func WriteJSON(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func formatX(x *float32) string {
	if x == nil {
		return "-"
	}
	return strconv.FormatFloat(float64(*x), 'f', -1, 32)
}
