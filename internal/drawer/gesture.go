/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package drawer

import "log/slog"

// gesture is the single tracked touch sequence.
type gesture struct {
	id             int64
	startX, startY float32
	lastX, lastY   float32
	// displacement is the horizontal movement since start.
	displacement float32
	confirmed    bool
	// corr keeps the panel edge aligned with the finger; it only shrinks.
	corr float32
	// prior is the drawer state before an edge touch claimed a panel.
	prior coef
}

// GestureInfo is a read-only view of the tracked gesture.
type GestureInfo struct {
	ID           int64
	Side         Side
	Confirmed    bool
	Displacement float32
	StartOffset  float32
	LastX, LastY float32
}

// Gesture returns the tracked gesture, if any.
func (l *Layout) Gesture() (GestureInfo, bool) {
	g := l.gesture
	if g == nil {
		return GestureInfo{}, false
	}
	s, _ := l.active.side()
	return GestureInfo{
		ID:           g.id,
		Side:         s,
		Confirmed:    g.confirmed,
		Displacement: g.displacement,
		StartOffset:  g.corr,
		LastX:        g.lastX,
		LastY:        g.lastY,
	}, true
}

// HandleTouch feeds one event of the touch stream into the classifier.
func (l *Layout) HandleTouch(ev *TouchEvent) {
	if ev == nil {
		return
	}
	switch ev.Kind {
	case TouchStart:
		l.touchStart(ev)
	case TouchMove:
		l.touchMove(ev)
	case TouchEnd:
		l.touchEnd(ev)
	case TouchCancel:
		l.touchCancel()
	}
}

func (l *Layout) touchStart(ev *TouchEvent) {
	if l.gesture != nil {
		l.log.Debug("touch start ignored, gesture in progress", slog.Int64("tracked", l.gesture.id))
		return
	}
	c, ok := ev.first()
	if !ok {
		return
	}
	prior := l.active
	vw := l.viewportWidth()
	var corr float32
	if s, ok := l.active.side(); ok {
		if surf := l.panels[s]; surf != nil {
			corr = startOffset(s, c.X, surf.Width(), vw)
		}
	} else {
		switch {
		case l.panels[Left] != nil && c.X <= l.opts.EdgeThreshold:
			l.active = coefLeft
		case l.panels[Right] != nil && c.X >= vw-l.opts.EdgeThreshold:
			l.active = coefRight
		default:
			return
		}
	}
	l.gesture = &gesture{
		id:     c.ID,
		startX: c.X, startY: c.Y,
		lastX: c.X, lastY: c.Y,
		corr:  corr,
		prior: prior,
	}
	s, _ := l.active.side()
	l.log.Debug("tracking touch", slog.Int64("id", c.ID), slog.String("side", s.String()), slog.Float64("start_offset", float64(corr)))
}

func (l *Layout) touchMove(ev *TouchEvent) {
	g := l.gesture
	if g == nil {
		return
	}
	c, ok := ev.find(g.id)
	if !ok {
		return
	}
	s, ok := l.active.side()
	if !ok {
		l.gesture = nil
		return
	}
	if !g.confirmed {
		if !isHorizontal(c.X-g.startX, c.Y-g.startY) {
			l.gesture = nil
			l.active = g.prior
			l.log.Debug("touch rejected as scroll", slog.Int64("id", g.id))
			l.notify(DragRejected, s, ByGesture, 0, 0)
			return
		}
		g.confirmed = true
		l.notify(DragStarted, s, ByGesture, 0, 0)
	}
	ev.PreventDefault()

	g.lastX, g.lastY = c.X, c.Y
	g.displacement = c.X - g.startX

	var pos, width float32
	if surf := l.panels[s]; surf != nil {
		width = surf.Width()
		vw := l.viewportWidth()
		g.corr = tightenStartOffset(s, g.corr, c.X, width, vw)
		pos = dragPosition(s, c.X, width, vw, g.corr)
		surf.SetOffset(Offset{X: pos})
	}
	opacity := backdropOpacity(s, pos, width)
	// Interactive for the whole drag, so a release over the backdrop is caught.
	l.setBackdrop(opacity, true)
	l.notify(DragMoved, s, ByGesture, pos, opacity)
}

func (l *Layout) touchEnd(ev *TouchEvent) {
	g := l.gesture
	if g == nil || !ev.concerns(g.id) {
		return
	}
	l.gesture = nil
	s, ok := l.active.side()
	if !ok {
		return
	}
	open := false
	if surf := l.panels[s]; surf != nil {
		open = resolveRelease(s, g.displacement, g.lastX, surf.Width(), l.viewportWidth(), l.opts.SnapThreshold)
	}
	l.setRest(s, open)
	if open {
		l.setBackdrop(1, true)
		l.log.Debug("release resolved open", slog.String("side", s.String()), slog.Float64("dx", float64(g.displacement)))
		l.notify(Opened, s, ByGesture, 0, 1)
		return
	}
	l.setBackdrop(0, false)
	l.active = coefNone
	l.log.Debug("release resolved closed", slog.String("side", s.String()), slog.Float64("dx", float64(g.displacement)))
	l.notify(Closed, s, ByGesture, l.restX(s, false), 0)
}

// touchCancel drops tracking and leaves the panel where the last move put it.
func (l *Layout) touchCancel() {
	g := l.gesture
	if g == nil {
		return
	}
	l.gesture = nil
	s, _ := l.active.side()
	if !g.confirmed {
		// nothing moved yet: give back the edge claim
		l.active = g.prior
	}
	l.log.Debug("touch cancelled", slog.Int64("id", g.id), slog.Bool("confirmed", g.confirmed))
	l.notify(DragCancelled, s, ByGesture, 0, 0)
}

// abortGesture drops a tracked touch when a toggle takes over or the source
// is detached. An unconfirmed edge claim is given back.
func (l *Layout) abortGesture() {
	g := l.gesture
	l.gesture = nil
	if !g.confirmed {
		l.active = g.prior
	}
	l.log.Debug("gesture abandoned", slog.Int64("id", g.id))
}
