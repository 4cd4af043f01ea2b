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
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"sidebarlayout/internal/config"
	"sidebarlayout/internal/crash"
	"sidebarlayout/internal/drawer"
	applog "sidebarlayout/internal/log"
	"sidebarlayout/internal/telemetry"
	"sidebarlayout/internal/trace"
	"sidebarlayout/internal/version"
)

// Run opens a window with the drawer host and blocks until it is closed.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.Version))
	cfg := opts.Config

	fyneApp := app.NewWithID("io.sidebarlayout.demo")
	w := fyneApp.NewWindow("Sidebar Layout")
	w.Resize(fyne.NewSize(cfg.Window.Width, cfg.Window.Height))

	status := widget.NewLabel("Ready")
	rec := trace.NewRecorder(trace.Config{MaxPerSide: 64, MinInterval: 50 * time.Millisecond})

	host := NewDrawerHost(demoContent(), cfg.DrawerOptions())
	defer crash.Recover(host.Layout().String)
	applyPanels(host, cfg)

	host.Layout().SetObserver(drawer.Observers{
		rec,
		telemetry.NewDrawerObserver(telemetry.Default()),
		drawer.ObserverFunc(func(t drawer.Transition) {
			if t.Kind == drawer.DragMoved {
				return
			}
			status.SetText(rec.Summary())
		}),
	})

	if opts.ConfigPath != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		err := config.Watch(ctx, opts.ConfigPath, func(c config.AppConfig) {
			fyne.Do(func() {
				applog.SetLevel(c.Logging.Level)
				host.Layout().SetOptions(c.DrawerOptions())
				applyPanels(host, c)
				status.SetText("Configuration reloaded")
			})
		})
		if err != nil {
			l.Warn("config watch disabled", slog.Any("err", err))
		}
	}

	toolbar := container.NewHBox(
		widget.NewButton("☰ Left", func() { host.Layout().ToggleLeft(drawer.Flip) }),
		layout.NewSpacer(),
		widget.NewButton("Right ☰", func() { host.Layout().ToggleRight(drawer.Flip) }),
	)
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, host))
	w.SetOnClosed(func() {
		host.Layout().Stop()
		telemetry.Default().Flush(context.Background())
	})
	w.ShowAndRun()
	return nil
}

// applyPanels mounts, unmounts and resizes the side panels to match cfg.
func applyPanels(host *DrawerHost, cfg config.AppConfig) {
	for _, s := range []drawer.Side{drawer.Left, drawer.Right} {
		enabled, width := cfg.Drawer.LeftEnabled, cfg.Drawer.LeftWidth
		if s == drawer.Right {
			enabled, width = cfg.Drawer.RightEnabled, cfg.Drawer.RightWidth
		}
		switch {
		case !enabled:
			if host.Panel(s) != nil {
				host.SetPanel(s, nil, 0)
			}
		case host.Panel(s) == nil:
			host.SetPanel(s, demoPanel(s), width)
		default:
			host.SetPanelWidth(s, width)
		}
	}
}

func demoContent() fyne.CanvasObject {
	rows := container.NewVBox()
	for i := 1; i <= 12; i++ {
		rows.Add(widget.NewLabel(fmt.Sprintf("Item %d", i)))
	}
	hint := widget.NewLabel("Swipe from a screen edge or use the toolbar buttons to open a panel.")
	hint.Wrapping = fyne.TextWrapWord
	bg := canvas.NewRectangle(color.NRGBA{R: 250, G: 250, B: 252, A: 255})
	return container.NewStack(bg, container.NewBorder(hint, nil, nil, nil, rows))
}

func demoPanel(s drawer.Side) fyne.CanvasObject {
	bg := canvas.NewRectangle(color.NRGBA{R: 38, G: 42, B: 52, A: 255})
	title := canvas.NewText(fmt.Sprintf("%s panel", s), color.White)
	title.TextStyle = fyne.TextStyle{Bold: true}
	items := container.NewVBox(title)
	for _, name := range []string{"Home", "Settings", "About"} {
		items.Add(canvas.NewText(name, color.NRGBA{R: 200, G: 204, B: 214, A: 255}))
	}
	return container.NewStack(bg, container.NewPadded(items))
}
