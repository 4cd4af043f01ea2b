/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package drawer implements the state machine behind a two-panel drawer
// layout: a Left and a Right panel that slide in from their screen edge,
// opened either programmatically or by an edge-originated horizontal drag,
// and a shared backdrop that dims content while a panel is open.
//
// The package owns no rendering. Hosts supply a Surface per panel, a
// Backdrop and a Viewport, and feed touch events either directly through
// HandleTouch or by attaching a Source with Start. Everything runs on the
// caller's goroutine; a Layout is not safe for concurrent use.
package drawer

import (
	"errors"
	"fmt"
	"log/slog"

	applog "sidebarlayout/internal/log"
)

var (
	ErrAlreadyStarted = errors.New("drawer: already subscribed to a touch source")
	ErrNilSource      = errors.New("drawer: nil touch source")
)

// Layout is the drawer state record of one widget instance.
type Layout struct {
	opts     Options
	log      *slog.Logger
	viewport Viewport
	backdrop Backdrop
	panels   [2]Surface
	observer Observer

	active  coef
	gesture *gesture
	sub     Subscription
}

// New creates a layout with both panels closed and no panel mounted.
func New(viewport Viewport, backdrop Backdrop, opts Options) *Layout {
	opts = opts.withDefaults()
	l := &Layout{opts: opts, viewport: viewport, backdrop: backdrop}
	l.log = opts.Logger
	if l.log == nil {
		l.log = applog.WithComponent("drawer")
	}
	return l
}

// SetOptions replaces the classifier thresholds. Logger and clock are kept
// when the new options leave them unset.
func (l *Layout) SetOptions(o Options) {
	if o.Logger == nil {
		o.Logger = l.opts.Logger
	}
	if o.Now == nil {
		o.Now = l.opts.Now
	}
	l.opts = o.withDefaults()
	if o.Logger != nil {
		l.log = o.Logger
	}
}

// Options returns the effective options.
func (l *Layout) Options() Options { return l.opts }

// SetObserver installs the transition observer (nil removes it).
func (l *Layout) SetObserver(o Observer) { l.observer = o }

// Mount attaches the surface of a panel. Only mounted panels accept edge drags.
// The surface is moved to the rest position matching the current state.
func (l *Layout) Mount(s Side, surf Surface) {
	l.panels[s] = surf
	l.setRest(s, l.active == coefOf(s))
}

// Unmount detaches a panel surface. If that panel was open or being dragged,
// the layout falls back to the all-closed state.
func (l *Layout) Unmount(s Side) {
	l.panels[s] = nil
	if l.active != coefOf(s) {
		return
	}
	l.gesture = nil
	l.active = coefNone
	l.setBackdrop(0, false)
}

// Mounted reports whether a surface is attached for the panel.
func (l *Layout) Mounted(s Side) bool { return l.panels[s] != nil }

// ToggleLeft opens or closes the left panel. See Toggle.
func (l *Layout) ToggleLeft(v Value) { l.toggle(Left, v, ByToggle) }

// ToggleRight opens or closes the right panel. See Toggle.
func (l *Layout) ToggleRight(v Value) { l.toggle(Right, v, ByToggle) }

// Toggle sets a panel open or closed. With Flip the panel's current
// open state is negated. Opening a panel always hides the other one. Calls
// with the same explicit value are idempotent. A gesture in progress is
// abandoned.
func (l *Layout) Toggle(s Side, v Value) { l.toggle(s, v, ByToggle) }

// TapBackdrop closes whichever panel is active.
func (l *Layout) TapBackdrop() {
	s, ok := l.active.side()
	if !ok {
		return
	}
	l.toggle(s, Close, ByBackdrop)
}

// IsOpen reports whether a panel is open or being dragged open.
func (l *Layout) IsOpen() bool { return l.active != coefNone }

// Active returns the open (or opening) panel.
func (l *Layout) Active() (Side, bool) { return l.active.side() }

// Relayout re-applies the rest offsets with the panels' current widths.
// Hosts call it after a resize; it does nothing while a gesture is tracked.
func (l *Layout) Relayout() {
	if l.gesture != nil {
		return
	}
	l.setRest(Left, l.active == coefLeft)
	l.setRest(Right, l.active == coefRight)
}

// Start subscribes the layout to a touch source. It must be paired with Stop.
func (l *Layout) Start(src Source) error {
	if src == nil {
		return ErrNilSource
	}
	if l.sub != nil {
		return fmt.Errorf("start: %w", ErrAlreadyStarted)
	}
	l.sub = src.Subscribe(l.HandleTouch)
	l.log.Debug("subscribed to touch source")
	return nil
}

// Stop unsubscribes from the touch source and drops any tracked gesture.
// Calling it again is a no-op.
func (l *Layout) Stop() {
	if l.sub == nil {
		return
	}
	l.sub.Remove()
	l.sub = nil
	if l.gesture != nil {
		l.abortGesture()
	}
	l.log.Debug("unsubscribed from touch source")
}

// Started reports whether the layout is subscribed to a source.
func (l *Layout) Started() bool { return l.sub != nil }

// String dumps the state for diagnostics and crash reports.
func (l *Layout) String() string {
	active := "none"
	if s, ok := l.active.side(); ok {
		active = s.String()
	}
	g := "none"
	if l.gesture != nil {
		g = fmt.Sprintf("{id=%d confirmed=%t dx=%g corr=%g}", l.gesture.id, l.gesture.confirmed, l.gesture.displacement, l.gesture.corr)
	}
	return fmt.Sprintf("active=%s left_mounted=%t right_mounted=%t gesture=%s", active, l.panels[Left] != nil, l.panels[Right] != nil, g)
}

func (l *Layout) toggle(s Side, v Value, cause Cause) {
	if l.gesture != nil {
		l.abortGesture()
	}
	open := v.resolve(l.active == coefOf(s))
	if open {
		l.setRest(s, true)
		l.setRest(s.Other(), false)
		l.setBackdrop(1, true)
		l.active = coefOf(s)
		l.notify(Opened, s, cause, 0, 1)
		return
	}
	l.setRest(s, false)
	l.setBackdrop(0, false)
	if l.active == coefOf(s) {
		l.active = coefNone
	}
	l.notify(Closed, s, cause, l.restX(s, false), 0)
}

// setRest moves a mounted panel to its open or hidden rest offset.
func (l *Layout) setRest(s Side, open bool) {
	surf := l.panels[s]
	if surf == nil {
		return
	}
	surf.SetOffset(Offset{X: l.restX(s, open), Settle: true})
}

func (l *Layout) restX(s Side, open bool) float32 {
	surf := l.panels[s]
	if open || surf == nil {
		return 0
	}
	return hiddenOffset(s, surf.Width())
}

func (l *Layout) setBackdrop(opacity float32, interactive bool) {
	if l.backdrop == nil {
		return
	}
	l.backdrop.SetOpacity(opacity)
	l.backdrop.SetInteractive(interactive)
}

func (l *Layout) viewportWidth() float32 {
	if l.viewport == nil {
		return 0
	}
	return l.viewport.Width()
}

func (l *Layout) notify(k TransitionKind, s Side, cause Cause, offset, opacity float32) {
	if l.observer == nil {
		return
	}
	l.observer.OnTransition(Transition{Kind: k, Side: s, Cause: cause, Offset: offset, Opacity: opacity, At: l.opts.Now()})
}
