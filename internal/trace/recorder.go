/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package trace keeps a bounded in-memory history of drawer transitions.
package trace

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"sidebarlayout/internal/drawer"
)

// Config controls history depth and coalescing behavior.
type Config struct {
	// MaxEntries is a soft cap across both sides; the oldest entries are pruned when exceeded.
	MaxEntries int
	// MaxPerSide limits the number of entries kept per side (0 means unlimited).
	MaxPerSide int
	// MinInterval coalesces drag_moved samples recorded within the interval for the same side,
	// replacing the previous sample instead of appending a new entry.
	MinInterval time.Duration
}

// Recorder is a drawer.Observer that remembers recent transitions per side.
// It is safe for concurrent use.
type Recorder struct {
	cfg     Config
	mu      sync.Mutex
	entries map[drawer.Side][]drawer.Transition
	total   int
	dropped int
}

func NewRecorder(cfg Config) *Recorder {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 512
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Recorder{cfg: cfg, entries: make(map[drawer.Side][]drawer.Transition)}
}

// OnTransition records t. A drag_moved sample following another drag_moved
// sample of the same side within MinInterval replaces it.
func (r *Recorder) OnTransition(t drawer.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.entries[t.Side]
	if n := len(list); n > 0 && t.Kind == drawer.DragMoved {
		last := list[n-1]
		if last.Kind == drawer.DragMoved && t.At.Sub(last.At) < r.cfg.MinInterval {
			list[n-1] = t
			return
		}
	}
	r.entries[t.Side] = append(list, t)
	r.total++
	r.enforceCapsLocked(t.Side)
}

// Samples returns a copy of the recorded transitions for one side, oldest first.
func (r *Recorder) Samples(s drawer.Side) []drawer.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]drawer.Transition(nil), r.entries[s]...)
}

// All returns the transitions of both sides merged by time.
func (r *Recorder) All() []drawer.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, b := r.entries[drawer.Left], r.entries[drawer.Right]
	out := make([]drawer.Transition, 0, len(a)+len(b))
	for len(a) > 0 || len(b) > 0 {
		if len(b) == 0 || (len(a) > 0 && !b[0].At.Before(a[0].At)) {
			out = append(out, a[0])
			a = a[1:]
			continue
		}
		out = append(out, b[0])
		b = b[1:]
	}
	return out
}

// Last returns the most recent transition of a side.
func (r *Recorder) Last(s drawer.Side) (drawer.Transition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.entries[s]
	if len(list) == 0 {
		return drawer.Transition{}, false
	}
	return list[len(list)-1], true
}

// Clear forgets everything recorded for a side.
func (r *Recorder) Clear(s drawer.Side) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total -= len(r.entries[s])
	delete(r.entries, s)
	if r.total < 0 {
		r.total = 0
	}
}

// Stats returns current sizes for diagnostics.
func (r *Recorder) Stats() (total int, sides int, dropped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, len(r.entries), r.dropped
}

// Summary renders a one-line digest of the latest transition per side,
// e.g. "left=opened(toggle) right=-".
func (r *Recorder) Summary() string {
	var b strings.Builder
	for i, s := range []drawer.Side{drawer.Left, drawer.Right} {
		if i > 0 {
			b.WriteByte(' ')
		}
		if t, ok := r.Last(s); ok {
			fmt.Fprintf(&b, "%s=%s(%s)", s, t.Kind, t.Cause)
		} else {
			fmt.Fprintf(&b, "%s=-", s)
		}
	}
	return b.String()
}

func (r *Recorder) enforceCapsLocked(s drawer.Side) {
	if r.cfg.MaxPerSide > 0 {
		list := r.entries[s]
		if extra := len(list) - r.cfg.MaxPerSide; extra > 0 {
			r.total -= extra
			r.dropped += extra
			r.entries[s] = append([]drawer.Transition(nil), list[extra:]...)
		}
	}
	// Global cap: prune the oldest entry across both sides.
	for r.cfg.MaxEntries > 0 && r.total > r.cfg.MaxEntries {
		oldest := drawer.Side(-1)
		var oldestAt time.Time
		for side, list := range r.entries {
			if len(list) == 0 {
				continue
			}
			if oldest < 0 || list[0].At.Before(oldestAt) {
				oldest = side
				oldestAt = list[0].At
			}
		}
		if oldest < 0 {
			break
		}
		r.entries[oldest] = r.entries[oldest][1:]
		if len(r.entries[oldest]) == 0 {
			delete(r.entries, oldest)
		}
		r.total--
		r.dropped++
	}
}
