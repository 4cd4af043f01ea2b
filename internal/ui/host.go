//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	"sidebarlayout/internal/drawer"
	applog "sidebarlayout/internal/log"
	"sidebarlayout/internal/touch"
)

// settleDuration is the length of the snap animation after a release or toggle.
const settleDuration = 180 * time.Millisecond

// maxDim is the backdrop alpha at full opacity.
const maxDim = 0.5

// pointerID is the contact id used for mouse and single-finger input,
// fyne does not report per-finger ids to widgets.
const pointerID int64 = 1

// DrawerHost lays a content object under two sliding side panels and a
// dimming backdrop. Pointer and touch input on the host is published to a
// touch bus the drawer layout subscribes to.
type DrawerHost struct {
	widget.BaseWidget

	content  fyne.CanvasObject
	panels   [2]*panel
	backdrop *backdrop
	bus      *touch.Bus
	layout   *drawer.Layout

	animate bool
	pressed bool
	last    fyne.Position
}

// NewDrawerHost creates a host around content. Panels are added with SetPanel.
func NewDrawerHost(content fyne.CanvasObject, opts drawer.Options) *DrawerHost {
	h := &DrawerHost{content: content, bus: touch.NewBus(), animate: true}
	h.backdrop = newBackdrop()
	h.layout = drawer.New(h, h.backdrop, opts)
	h.backdrop.onTap = h.layout.TapBackdrop
	if err := h.layout.Start(h.bus); err != nil {
		applog.WithComponent("ui").Error("drawer host not attached to touch bus", slog.Any("err", err))
	}
	h.ExtendBaseWidget(h)
	return h
}

// Layout returns the drawer state machine driving the host.
func (h *DrawerHost) Layout() *drawer.Layout { return h.layout }

// Bus returns the touch bus the host publishes to.
func (h *DrawerHost) Bus() *touch.Bus { return h.bus }

// Width implements drawer.Viewport.
func (h *DrawerHost) Width() float32 { return h.Size().Width }

// SetAnimated turns the settle animation on or off.
func (h *DrawerHost) SetAnimated(on bool) { h.animate = on }

// SetPanel mounts obj as the panel on side s with the given width. A nil
// obj unmounts the side.
func (h *DrawerHost) SetPanel(s drawer.Side, obj fyne.CanvasObject, width float32) {
	if old := h.panels[s]; old != nil {
		old.stop()
	}
	if obj == nil {
		h.panels[s] = nil
		h.layout.Unmount(s)
		h.Refresh()
		return
	}
	p := &panel{host: h, side: s, obj: obj, width: width}
	h.panels[s] = p
	h.layout.Mount(s, p)
	h.Refresh()
}

// SetPanelWidth changes the width of a mounted panel and re-applies its rest offset.
func (h *DrawerHost) SetPanelWidth(s drawer.Side, width float32) {
	p := h.panels[s]
	if p == nil || p.width == width {
		return
	}
	p.width = width
	h.withoutAnimation(h.layout.Relayout)
	p.place()
}

// Panel returns the object mounted on side s, or nil.
func (h *DrawerHost) Panel(s drawer.Side) fyne.CanvasObject {
	if p := h.panels[s]; p != nil {
		return p.obj
	}
	return nil
}

func (h *DrawerHost) withoutAnimation(fn func()) {
	prev := h.animate
	h.animate = false
	fn()
	h.animate = prev
}

func (h *DrawerHost) CreateRenderer() fyne.WidgetRenderer {
	return &drawerHostRenderer{h: h}
}

// MouseDown starts tracking a mouse press.
func (h *DrawerHost) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	h.press(e.Position)
}

// MouseUp ends the press if no drag already ended it.
func (h *DrawerHost) MouseUp(e *desktop.MouseEvent) { h.release(e.Position) }

// TouchDown, TouchUp and TouchCancel implement mobile.Touchable.
func (h *DrawerHost) TouchDown(e *mobile.TouchEvent)   { h.press(e.Position) }
func (h *DrawerHost) TouchUp(e *mobile.TouchEvent)     { h.release(e.Position) }
func (h *DrawerHost) TouchCancel(_ *mobile.TouchEvent) { h.cancel() }

// Dragged publishes a move. A drag without a preceding press starts one
// at the position the drag began.
func (h *DrawerHost) Dragged(e *fyne.DragEvent) {
	if !h.pressed {
		h.press(fyne.NewPos(e.Position.X-e.Dragged.DX, e.Position.Y-e.Dragged.DY))
	}
	h.last = e.Position
	h.bus.Drag(pointerID, e.Position.X, e.Position.Y)
}

// DragEnd publishes the release at the last drag position.
func (h *DrawerHost) DragEnd() { h.release(h.last) }

func (h *DrawerHost) press(pos fyne.Position) {
	if h.pressed {
		return
	}
	h.pressed = true
	h.last = pos
	h.bus.Press(pointerID, pos.X, pos.Y)
}

func (h *DrawerHost) release(pos fyne.Position) {
	if !h.pressed {
		return
	}
	h.pressed = false
	h.bus.Release(pointerID, pos.X, pos.Y)
}

func (h *DrawerHost) cancel() {
	if !h.pressed {
		return
	}
	h.pressed = false
	h.bus.Cancel()
}

type drawerHostRenderer struct {
	h *DrawerHost
}

func (r *drawerHostRenderer) Destroy() {}

func (r *drawerHostRenderer) Objects() []fyne.CanvasObject {
	objs := []fyne.CanvasObject{r.h.content, r.h.backdrop}
	for _, p := range r.h.panels {
		if p != nil {
			objs = append(objs, p.obj)
		}
	}
	return objs
}

func (r *drawerHostRenderer) MinSize() fyne.Size { return r.h.content.MinSize() }

func (r *drawerHostRenderer) Layout(size fyne.Size) {
	r.h.content.Resize(size)
	r.h.content.Move(fyne.NewPos(0, 0))
	r.h.backdrop.Resize(size)
	r.h.backdrop.Move(fyne.NewPos(0, 0))
	for _, p := range r.h.panels {
		if p != nil {
			p.place()
		}
	}
}

func (r *drawerHostRenderer) Refresh() {
	r.Layout(r.h.Size())
	canvas.Refresh(r.h)
}

// panel adapts a canvas object to drawer.Surface. x is the translation
// relative to the panel's open position.
type panel struct {
	host  *DrawerHost
	side  drawer.Side
	obj   fyne.CanvasObject
	width float32
	x     float32
	anim  *fyne.Animation
}

func (p *panel) Width() float32 { return p.width }

func (p *panel) SetOffset(o drawer.Offset) {
	p.stop()
	if !o.Settle || !p.host.animate || p.x == o.X {
		p.x = o.X
		p.place()
		return
	}
	from, to := p.x, o.X
	p.anim = fyne.NewAnimation(settleDuration, func(f float32) {
		p.x = from + (to-from)*f
		p.place()
	})
	p.anim.Curve = fyne.AnimationEaseOut
	p.anim.Start()
}

func (p *panel) stop() {
	if p.anim != nil {
		p.anim.Stop()
		p.anim = nil
	}
}

func (p *panel) place() {
	size := p.host.Size()
	var base float32
	if p.side == drawer.Right {
		base = size.Width - p.width
	}
	p.obj.Resize(fyne.NewSize(p.width, size.Height))
	p.obj.Move(fyne.NewPos(base+p.x, 0))
}

// backdrop dims the content and closes the open panel when tapped. It is
// hidden while inert so taps reach the content below.
type backdrop struct {
	widget.BaseWidget
	rect        *canvas.Rectangle
	opacity     float32
	interactive bool
	onTap       func()
}

func newBackdrop() *backdrop {
	b := &backdrop{rect: canvas.NewRectangle(color.NRGBA{})}
	b.ExtendBaseWidget(b)
	b.Hide()
	return b
}

func (b *backdrop) CreateRenderer() fyne.WidgetRenderer { return widget.NewSimpleRenderer(b.rect) }

func (b *backdrop) SetOpacity(v float32) {
	b.opacity = v
	b.rect.FillColor = color.NRGBA{A: uint8(v * maxDim * 255)}
	b.rect.Refresh()
	b.sync()
}

func (b *backdrop) SetInteractive(on bool) {
	b.interactive = on
	b.sync()
}

func (b *backdrop) sync() {
	if b.interactive || b.opacity > 0 {
		b.Show()
	} else {
		b.Hide()
	}
}

func (b *backdrop) Tapped(_ *fyne.PointEvent) {
	if b.interactive && b.onTap != nil {
		b.onTap()
	}
}
