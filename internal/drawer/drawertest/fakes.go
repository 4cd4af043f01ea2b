/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package drawertest provides recording surfaces for driving a drawer.Layout
// without a rendering layer.
package drawertest

import (
	"sidebarlayout/internal/drawer"
)

// Surface records the offsets written to a panel.
type Surface struct {
	W       float32
	Offset  drawer.Offset
	History []drawer.Offset
}

// NewSurface returns a surface of the given width.
func NewSurface(w float32) *Surface { return &Surface{W: w} }

func (s *Surface) Width() float32 { return s.W }

func (s *Surface) SetOffset(o drawer.Offset) {
	s.Offset = o
	s.History = append(s.History, o)
}

// X returns the last offset written.
func (s *Surface) X() float32 { return s.Offset.X }

// Backdrop records opacity and interactivity.
type Backdrop struct {
	Opacity     float32
	Interactive bool
	Writes      int
}

func (b *Backdrop) SetOpacity(v float32)   { b.Opacity = v; b.Writes++ }
func (b *Backdrop) SetInteractive(on bool) { b.Interactive = on }

// Viewport is a fixed-width viewport whose width can be changed by tests.
type Viewport struct{ W float32 }

func (v *Viewport) Width() float32 { return v.W }

// Rig bundles a layout with its recording surfaces.
type Rig struct {
	Layout   *drawer.Layout
	Left     *Surface
	Right    *Surface
	Backdrop *Backdrop
	Viewport *Viewport
}

// NewRig creates a layout with both panels mounted. A zero width leaves that
// panel unmounted.
func NewRig(viewport, leftW, rightW float32, opts drawer.Options) *Rig {
	r := &Rig{Backdrop: &Backdrop{}, Viewport: &Viewport{W: viewport}}
	r.Layout = drawer.New(r.Viewport, r.Backdrop, opts)
	if leftW > 0 {
		r.Left = NewSurface(leftW)
		r.Layout.Mount(drawer.Left, r.Left)
	}
	if rightW > 0 {
		r.Right = NewSurface(rightW)
		r.Layout.Mount(drawer.Right, r.Right)
	}
	return r
}

// Start sends a touch start for one new contact and returns the event.
func (r *Rig) Start(id int64, x, y float32) *drawer.TouchEvent {
	c := drawer.Contact{ID: id, X: x, Y: y}
	return r.send(&drawer.TouchEvent{Kind: drawer.TouchStart, Contacts: []drawer.Contact{c}, Changed: []drawer.Contact{c}})
}

// Move sends a move of one contact.
func (r *Rig) Move(id int64, x, y float32) *drawer.TouchEvent {
	c := drawer.Contact{ID: id, X: x, Y: y}
	return r.send(&drawer.TouchEvent{Kind: drawer.TouchMove, Contacts: []drawer.Contact{c}, Changed: []drawer.Contact{c}})
}

// End sends the lift of one contact.
func (r *Rig) End(id int64, x, y float32) *drawer.TouchEvent {
	c := drawer.Contact{ID: id, X: x, Y: y}
	return r.send(&drawer.TouchEvent{Kind: drawer.TouchEnd, Changed: []drawer.Contact{c}})
}

// Cancel sends a touch cancel.
func (r *Rig) Cancel() *drawer.TouchEvent {
	return r.send(&drawer.TouchEvent{Kind: drawer.TouchCancel})
}

func (r *Rig) send(ev *drawer.TouchEvent) *drawer.TouchEvent {
	r.Layout.HandleTouch(ev)
	return ev
}
