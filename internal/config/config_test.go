/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnvOverridesThresholds(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(EnvEdgeThreshold, "24")
	t.Setenv(EnvSnapThreshold, "bogus")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Drawer.EdgeThreshold, float32(24); got != want {
		t.Fatalf("Drawer.EdgeThreshold = %v, want %v", got, want)
	}
	if got, want := cfg.Drawer.SnapThreshold, Defaults().Drawer.SnapThreshold; got != want {
		t.Fatalf("unparsable override must be ignored, got %v", got)
	}
	if env, ok := EnvOverrideFor("drawer.edge_threshold"); !ok || env != EnvEdgeThreshold {
		t.Fatalf("EnvOverrideFor = %q,%v", env, ok)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(EnvTelemetryOptIn, "true")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestLoadFrom_FileMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "config_version: 1\ndrawer:\n  left_width: 320\n  right_enabled: false\nwindow:\n  height: 700\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.Drawer.LeftWidth != 320 || cfg.Drawer.RightWidth != Defaults().Drawer.RightWidth {
		t.Fatalf("widths not merged: %#v", cfg.Drawer)
	}
	if !cfg.Drawer.LeftEnabled || cfg.Drawer.RightEnabled {
		t.Fatalf("omitted enable flag must keep its default, explicit one must apply: %#v", cfg.Drawer)
	}
	if cfg.Window.Height != 700 || cfg.Window.Width != Defaults().Window.Width {
		t.Fatalf("window not merged: %#v", cfg.Window)
	}
	opts := cfg.DrawerOptions()
	if opts.EdgeThreshold != 16 || opts.SnapThreshold != 10 {
		t.Fatalf("unexpected drawer options %+v", opts)
	}
}

func TestLoadFrom_MalformedKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("drawer: [1, 2"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Drawer != Defaults().Drawer {
		t.Fatalf("defaults not returned on error: %#v", cfg.Drawer)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Drawer.LeftEnabled = false
	cfg.Drawer.SnapThreshold = 4
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if got.Drawer != cfg.Drawer {
		t.Fatalf("drawer section = %#v, want %#v", got.Drawer, cfg.Drawer)
	}
}

func TestValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	cfg := Defaults()
	cfg.Drawer.EdgeThreshold = -1
	cfg.Window.Width = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/sbl.log"
	mergeInto(&dst, &src, nil)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/sbl.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/tmp/sbl.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/tmp/sbl.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestActiveOverrides(t *testing.T) {
	for _, env := range []string{EnvEdgeThreshold, EnvSnapThreshold, EnvTelemetryOptIn, EnvLogLevel, EnvLogFormat, EnvLogSource, EnvLogFile} {
		t.Setenv(env, "")
	}
	if got := ActiveOverrides(); len(got) != 0 {
		t.Fatalf("expected no overrides, got %v", got)
	}
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvSnapThreshold, "12")
	got := ActiveOverrides()
	want := []EnvOverride{{Key: "drawer.snap_threshold", Env: EnvSnapThreshold}, {Key: "logging.format", Env: EnvLogFormat}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("ActiveOverrides = %v, want %v", got, want)
	}
	if _, ok := EnvOverrideFor("logging.level"); ok {
		t.Fatalf("unset variable reported as override")
	}
	if _, ok := EnvOverrideFor("window.width"); ok {
		t.Fatalf("window.width has no override")
	}
}
