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
	"context"
	"fmt"
	"log/slog"
	"time"

	"sidebarlayout/internal/drawer"
	"sidebarlayout/internal/drawer/drawertest"
	applog "sidebarlayout/internal/log"
	"sidebarlayout/internal/touch"
	"sidebarlayout/internal/trace"
)

// tolerance for float expectations.
const tolerance = 1e-3

// StepResult is the observable state after one step.
type StepResult struct {
	Index       int      `json:"index"`
	Action      string   `json:"action"`
	Note        string   `json:"note,omitempty"`
	Active      string   `json:"active"`
	LeftX       *float32 `json:"left_x,omitempty"`
	RightX      *float32 `json:"right_x,omitempty"`
	Opacity     float32  `json:"opacity"`
	Interactive bool     `json:"interactive"`
	Prevented   bool     `json:"prevented"`
	Failures    []string `json:"failures,omitempty"`
}

// TransitionRecord is a drawer transition without its timestamp.
type TransitionRecord struct {
	Step    int     `json:"step"`
	Kind    string  `json:"kind"`
	Side    string  `json:"side"`
	Cause   string  `json:"cause"`
	Offset  float32 `json:"offset"`
	Opacity float32 `json:"opacity"`
}

// Result is the outcome of a replay.
type Result struct {
	Script      string             `json:"script"`
	Steps       []StepResult       `json:"steps"`
	Transitions []TransitionRecord `json:"transitions"`
	Final       string             `json:"final"`
}

// Failed reports whether any expectation did not hold.
func (r *Result) Failed() bool {
	return r.FailureCount() > 0
}

// FailureCount returns the number of unmet expectations.
func (r *Result) FailureCount() int {
	n := 0
	for _, s := range r.Steps {
		n += len(s.Failures)
	}
	return n
}

type runner struct {
	rig   *drawertest.Rig
	bus   *touch.Bus
	rec   *trace.Recorder
	clock time.Time
	step  int
	steps map[time.Time]int
	log   *slog.Logger
}

// Run executes s headlessly. Unmet expectations are reported in the result,
// not as an error; errors mean the script could not be executed.
func Run(ctx context.Context, s *Script) (*Result, error) {
	r := &runner{
		bus:   touch.NewBus(),
		rec:   trace.NewRecorder(trace.Config{MaxEntries: 4096}),
		clock: time.Unix(0, 0).UTC(),
		steps: make(map[time.Time]int),
		log:   applog.WithOperation(applog.WithComponent("replay"), "run"),
	}
	opts := drawer.Options{
		EdgeThreshold: s.EdgeThreshold,
		SnapThreshold: s.SnapThreshold,
		Logger:        applog.WithComponent("drawer"),
		Now:           r.now,
	}
	r.rig = drawertest.NewRig(s.Viewport, s.LeftWidth, s.RightWidth, opts)
	r.rig.Layout.SetObserver(r.rec)
	if err := r.rig.Layout.Start(r.bus); err != nil {
		return nil, err
	}
	defer r.rig.Layout.Stop()

	ctx = applog.ContextWith(ctx, slog.String("script", s.Name))
	res := &Result{Script: s.Name}
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("replay interrupted at step %d: %w", i+1, err)
		}
		r.step = i + 1
		prevented, err := r.apply(st)
		if err != nil {
			return res, fmt.Errorf("step %d (%s): %w", i+1, st.Action(), err)
		}
		sr := r.snapshot(i+1, st, prevented)
		if st.Expect != nil {
			sr.Failures = check(*st.Expect, sr)
		}
		lvl := slog.LevelDebug
		if len(sr.Failures) > 0 {
			lvl = slog.LevelWarn
		}
		r.log.Log(applog.ContextWith(ctx, slog.Int("step", sr.Index)), lvl, "step applied",
			slog.String("action", sr.Action), slog.String("active", sr.Active), slog.Int("failures", len(sr.Failures)))
		res.Steps = append(res.Steps, sr)
	}
	for _, t := range r.rec.All() {
		res.Transitions = append(res.Transitions, TransitionRecord{
			Step:    r.steps[t.At],
			Kind:    t.Kind.String(),
			Side:    t.Side.String(),
			Cause:   t.Cause.String(),
			Offset:  t.Offset,
			Opacity: t.Opacity,
		})
	}
	res.Final = r.rig.Layout.String()
	return res, nil
}

// now is a deterministic clock; every reading is one millisecond after the
// previous and remembers the step it was taken in.
func (r *runner) now() time.Time {
	r.clock = r.clock.Add(time.Millisecond)
	r.steps[r.clock] = r.step
	return r.clock
}

func (r *runner) apply(st Step) (prevented bool, err error) {
	l := r.rig.Layout
	switch {
	case st.Toggle != nil:
		side, ok := drawer.ParseSide(st.Toggle.Side)
		if !ok {
			return false, fmt.Errorf("unknown side %q", st.Toggle.Side)
		}
		l.Toggle(side, toggleValue(st.Toggle.Value))
	case st.Touch != nil:
		kind, ok := drawer.ParseTouchKind(st.Touch.Kind)
		if !ok {
			return false, fmt.Errorf("unknown touch kind %q", st.Touch.Kind)
		}
		var ev *drawer.TouchEvent
		switch kind {
		case drawer.TouchStart:
			ev = r.bus.Press(st.Touch.ID, st.Touch.X, st.Touch.Y)
		case drawer.TouchMove:
			ev = r.bus.Drag(st.Touch.ID, st.Touch.X, st.Touch.Y)
		case drawer.TouchEnd:
			ev = r.bus.Release(st.Touch.ID, st.Touch.X, st.Touch.Y)
		default:
			ev = r.bus.Cancel()
		}
		return ev.DefaultPrevented(), nil
	case st.TapBackdrop:
		// A non-interactive backdrop lets the tap through to the content.
		if r.rig.Backdrop.Interactive {
			l.TapBackdrop()
		}
	case st.Resize != nil:
		if st.Resize.Viewport > 0 {
			r.rig.Viewport.W = st.Resize.Viewport
		}
		if st.Resize.LeftWidth > 0 && r.rig.Left != nil {
			r.rig.Left.W = st.Resize.LeftWidth
		}
		if st.Resize.RightWidth > 0 && r.rig.Right != nil {
			r.rig.Right.W = st.Resize.RightWidth
		}
		l.Relayout()
	case st.Mount != nil:
		side, ok := drawer.ParseSide(st.Mount.Side)
		if !ok {
			return false, fmt.Errorf("unknown side %q", st.Mount.Side)
		}
		surf := drawertest.NewSurface(st.Mount.Width)
		if side == drawer.Left {
			r.rig.Left = surf
		} else {
			r.rig.Right = surf
		}
		l.Mount(side, surf)
	case st.Unmount != "":
		side, ok := drawer.ParseSide(st.Unmount)
		if !ok {
			return false, fmt.Errorf("unknown side %q", st.Unmount)
		}
		l.Unmount(side)
		if side == drawer.Left {
			r.rig.Left = nil
		} else {
			r.rig.Right = nil
		}
	}
	return false, nil
}

func (r *runner) snapshot(index int, st Step, prevented bool) StepResult {
	sr := StepResult{
		Index:       index,
		Action:      st.Action(),
		Note:        st.Note,
		Active:      "none",
		Opacity:     r.rig.Backdrop.Opacity,
		Interactive: r.rig.Backdrop.Interactive,
		Prevented:   prevented,
	}
	if side, ok := r.rig.Layout.Active(); ok {
		sr.Active = side.String()
	}
	if r.rig.Left != nil {
		x := r.rig.Left.X()
		sr.LeftX = &x
	}
	if r.rig.Right != nil {
		x := r.rig.Right.X()
		sr.RightX = &x
	}
	return sr
}

func check(e Expect, sr StepResult) []string {
	var out []string
	if e.Active != nil && *e.Active != sr.Active {
		out = append(out, fmt.Sprintf("active = %s, want %s", sr.Active, *e.Active))
	}
	checkX := func(name string, want *float32, got *float32) {
		switch {
		case want == nil:
		case got == nil:
			out = append(out, fmt.Sprintf("%s: panel not mounted, want %g", name, *want))
		case !near(*got, *want):
			out = append(out, fmt.Sprintf("%s = %g, want %g", name, *got, *want))
		}
	}
	checkX("left_x", e.LeftX, sr.LeftX)
	checkX("right_x", e.RightX, sr.RightX)
	if e.Opacity != nil && !near(sr.Opacity, *e.Opacity) {
		out = append(out, fmt.Sprintf("opacity = %g, want %g", sr.Opacity, *e.Opacity))
	}
	if e.Interactive != nil && *e.Interactive != sr.Interactive {
		out = append(out, fmt.Sprintf("interactive = %t, want %t", sr.Interactive, *e.Interactive))
	}
	if e.Prevented != nil && *e.Prevented != sr.Prevented {
		out = append(out, fmt.Sprintf("prevented = %t, want %t", sr.Prevented, *e.Prevented))
	}
	return out
}

func near(a, b float32) bool {
	d := a - b
	return d <= tolerance && d >= -tolerance
}
