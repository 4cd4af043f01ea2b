/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package trace

import (
	"testing"
	"time"

	"sidebarlayout/internal/drawer"
)

func tr(k drawer.TransitionKind, s drawer.Side, at time.Time) drawer.Transition {
	return drawer.Transition{Kind: k, Side: s, Cause: drawer.ByGesture, At: at}
}

func TestRecordAndLast(t *testing.T) {
	r := NewRecorder(Config{MaxPerSide: 10, MinInterval: 10 * time.Millisecond})
	t0 := time.Now()
	r.OnTransition(tr(drawer.DragStarted, drawer.Left, t0))
	r.OnTransition(tr(drawer.Opened, drawer.Left, t0.Add(20*time.Millisecond)))
	if total, sides, _ := r.Stats(); sides != 1 || total != 2 {
		t.Fatalf("expected 1 side and 2 entries, got sides=%d total=%d", sides, total)
	}
	last, ok := r.Last(drawer.Left)
	if !ok || last.Kind != drawer.Opened {
		t.Fatalf("expected last to be opened, got ok=%v kind=%v", ok, last.Kind)
	}
	if _, ok := r.Last(drawer.Right); ok {
		t.Fatalf("expected no right entries")
	}
}

func TestCoalesceDragSamples(t *testing.T) {
	r := NewRecorder(Config{MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	first := tr(drawer.DragMoved, drawer.Right, t0)
	first.Offset = 200
	second := tr(drawer.DragMoved, drawer.Right, t0.Add(10*time.Millisecond))
	second.Offset = 150
	r.OnTransition(first)
	r.OnTransition(second)
	got := r.Samples(drawer.Right)
	if len(got) != 1 {
		t.Fatalf("expected coalesced to 1 sample, got %d", len(got))
	}
	if got[0].Offset != 150 {
		t.Fatalf("expected latest sample to win, got offset %v", got[0].Offset)
	}
	// A different kind is never coalesced.
	r.OnTransition(tr(drawer.Closed, drawer.Right, t0.Add(11*time.Millisecond)))
	if n := len(r.Samples(drawer.Right)); n != 2 {
		t.Fatalf("expected 2 samples, got %d", n)
	}
}

func TestPerSideCap(t *testing.T) {
	r := NewRecorder(Config{MaxPerSide: 2})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		r.OnTransition(tr(drawer.Opened, drawer.Left, t0.Add(time.Duration(i)*time.Millisecond)))
	}
	total, _, dropped := r.Stats()
	if total != 2 || dropped != 8 {
		t.Fatalf("expected per-side cap to keep 2 and drop 8, got total=%d dropped=%d", total, dropped)
	}
}

func TestGlobalPruneAcrossSides(t *testing.T) {
	r := NewRecorder(Config{MaxEntries: 2})
	t0 := time.Now()
	r.OnTransition(tr(drawer.Opened, drawer.Left, t0))
	r.OnTransition(tr(drawer.Opened, drawer.Right, t0.Add(time.Second)))
	r.OnTransition(tr(drawer.Closed, drawer.Right, t0.Add(2*time.Second)))

	if n := len(r.Samples(drawer.Left)); n != 0 {
		t.Fatalf("expected oldest left entry to be pruned, have %d", n)
	}
	if n := len(r.Samples(drawer.Right)); n != 2 {
		t.Fatalf("expected right entries to remain, have %d", n)
	}
}

func TestClearAndAll(t *testing.T) {
	r := NewRecorder(Config{})
	t0 := time.Now()
	r.OnTransition(tr(drawer.Opened, drawer.Left, t0))
	r.OnTransition(tr(drawer.Opened, drawer.Right, t0.Add(time.Millisecond)))
	r.OnTransition(tr(drawer.Closed, drawer.Left, t0.Add(2*time.Millisecond)))

	all := r.All()
	if len(all) != 3 || all[1].Side != drawer.Right {
		t.Fatalf("expected merged order left,right,left, got %+v", all)
	}
	if s := r.Summary(); s != "left=closed(gesture) right=opened(gesture)" {
		t.Fatalf("unexpected summary %q", s)
	}
	r.Clear(drawer.Left)
	total, sides, _ := r.Stats()
	if total != 1 || sides != 1 {
		t.Fatalf("expected only right to remain, got total=%d sides=%d", total, sides)
	}
}

func TestRecorderAsLayoutObserver(t *testing.T) {
	r := NewRecorder(Config{})
	l := drawer.New(drawer.ViewportFunc(func() float32 { return 800 }), nil, drawer.Options{})
	l.SetObserver(r)
	l.ToggleRight(drawer.Open)
	l.TapBackdrop()
	got := r.Samples(drawer.Right)
	if len(got) != 2 || got[0].Kind != drawer.Opened || got[1].Cause != drawer.ByBackdrop {
		t.Fatalf("unexpected right samples %+v", got)
	}
}
