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

// These tests drive the Fyne host with synthetic pointer events. They are
// gated behind the "fyne" build tag so headless CI does not need a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"sidebarlayout/internal/config"
	"sidebarlayout/internal/drawer"
)

func newTestHost(t *testing.T) *DrawerHost {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	h := NewDrawerHost(canvas.NewRectangle(nil), drawer.Options{})
	h.SetAnimated(false)
	h.Resize(fyne.NewSize(800, 600))
	h.SetPanel(drawer.Left, canvas.NewRectangle(nil), 300)
	h.SetPanel(drawer.Right, canvas.NewRectangle(nil), 300)
	return h
}

func press(h *DrawerHost, x, y float32) {
	h.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}, Button: desktop.MouseButtonPrimary})
}

func drag(h *DrawerHost, x, y, dx, dy float32) {
	h.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}, Dragged: fyne.NewDelta(dx, dy)})
}

func TestDrawerHost_PanelsStartHidden(t *testing.T) {
	h := newTestHost(t)
	if !h.Layout().Started() {
		t.Fatalf("host layout must be attached to its touch bus")
	}
	if x := h.Panel(drawer.Left).Position().X; x != -300 {
		t.Fatalf("left panel x = %v, want -300", x)
	}
	if x := h.Panel(drawer.Right).Position().X; x != 800 {
		t.Fatalf("right panel x = %v, want 800", x)
	}
	if h.backdrop.Visible() {
		t.Fatalf("backdrop must be hidden while closed")
	}
}

func TestDrawerHost_EdgeDragOpensLeft(t *testing.T) {
	h := newTestHost(t)
	press(h, 5, 100)
	drag(h, 250, 105, 245, 5)
	if x := h.Panel(drawer.Left).Position().X; x != -50 {
		t.Fatalf("left panel x during drag = %v, want -50", x)
	}
	if !h.backdrop.Visible() || !h.backdrop.interactive {
		t.Fatalf("backdrop must be visible and interactive during the drag")
	}
	h.DragEnd()
	// a late MouseUp must not publish a second release
	h.MouseUp(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(250, 105)}})

	if !h.Layout().IsOpen() {
		t.Fatalf("expected left panel open")
	}
	if x := h.Panel(drawer.Left).Position().X; x != 0 {
		t.Fatalf("left panel x = %v, want 0", x)
	}
}

func TestDrawerHost_BackdropTapCloses(t *testing.T) {
	h := newTestHost(t)
	h.Layout().ToggleRight(drawer.Open)
	if x := h.Panel(drawer.Right).Position().X; x != 500 {
		t.Fatalf("right panel x = %v, want 500", x)
	}
	test.Tap(h.backdrop)
	if h.Layout().IsOpen() {
		t.Fatalf("backdrop tap must close the panel")
	}
	if x := h.Panel(drawer.Right).Position().X; x != 800 {
		t.Fatalf("right panel x = %v, want 800", x)
	}
	if h.backdrop.Visible() {
		t.Fatalf("backdrop must hide once closed")
	}
}

func TestDrawerHost_DragWithoutPress(t *testing.T) {
	h := newTestHost(t)
	// touch drivers may report the drag before any press
	drag(h, 700, 300, -96, 0)
	h.DragEnd()
	side, ok := h.Layout().Active()
	if !ok || side != drawer.Right {
		t.Fatalf("expected right panel open, got %v %v", side, ok)
	}
}

func TestApplyPanels_FollowsConfig(t *testing.T) {
	h := newTestHost(t)
	cfg := config.Defaults()
	cfg.Drawer.RightEnabled = false
	cfg.Drawer.LeftWidth = 320
	applyPanels(h, cfg)

	if h.Panel(drawer.Right) != nil || h.Layout().Mounted(drawer.Right) {
		t.Fatalf("right panel should be unmounted")
	}
	if x := h.Panel(drawer.Left).Position().X; x != -320 {
		t.Fatalf("left panel x = %v, want -320 after width change", x)
	}
}
