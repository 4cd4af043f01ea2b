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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"sidebarlayout/internal/drawer"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type DrawerConfig struct {
	EdgeThreshold float32 `yaml:"edge_threshold"`
	SnapThreshold float32 `yaml:"snap_threshold"`
	LeftWidth     float32 `yaml:"left_width"`
	RightWidth    float32 `yaml:"right_width"`
	LeftEnabled   bool    `yaml:"left_enabled"`
	RightEnabled  bool    `yaml:"right_enabled"`
}

type WindowConfig struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Drawer        DrawerConfig  `yaml:"drawer"`
	Window        WindowConfig  `yaml:"window"`
	General       GeneralConfig `yaml:"general"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Drawer: DrawerConfig{
			EdgeThreshold: drawer.DefaultEdgeThreshold,
			SnapThreshold: drawer.DefaultSnapThreshold,
			LeftWidth:     280,
			RightWidth:    280,
			LeftEnabled:   true,
			RightEnabled:  true,
		},
		Window:  WindowConfig{Width: 900, Height: 640},
		General: GeneralConfig{TelemetryOptIn: false},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "SBL_CONFIG"
	EnvEdgeThreshold  = "SBL_EDGE_THRESHOLD"
	EnvSnapThreshold  = "SBL_SNAP_THRESHOLD"
	EnvTelemetryOptIn = "SBL_TELEMETRY_OPT_IN"
	EnvLogLevel       = "SBL_LOG_LEVEL"
	EnvLogFormat      = "SBL_LOG_FORMAT"
	EnvLogSource      = "SBL_LOG_SOURCE"
	EnvLogFile        = "SBL_LOG_FILE"
)

// ConfigPath returns the per-user config file path. SBL_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "SidebarLayout")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "SidebarLayout")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "sidebarlayout")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "sidebarlayout")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	cfg, err := LoadFrom(path)
	return cfg, path, err
}

// LoadFrom is Load for an explicit path. A missing file yields the defaults;
// a malformed one is reported but the defaults are still returned.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg, presentKeys(data))
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg to path, creating parent directories.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// DrawerOptions maps the drawer section onto layout options.
func (c AppConfig) DrawerOptions() drawer.Options {
	return drawer.Options{EdgeThreshold: c.Drawer.EdgeThreshold, SnapThreshold: c.Drawer.SnapThreshold}
}

// Validate reports values the layout cannot work with.
func (c AppConfig) Validate() error {
	var errs []error
	if c.Drawer.EdgeThreshold < 0 {
		errs = append(errs, fmt.Errorf("drawer.edge_threshold must not be negative, got %v", c.Drawer.EdgeThreshold))
	}
	if c.Drawer.SnapThreshold < 0 {
		errs = append(errs, fmt.Errorf("drawer.snap_threshold must not be negative, got %v", c.Drawer.SnapThreshold))
	}
	if c.Drawer.LeftWidth <= 0 || c.Drawer.RightWidth <= 0 {
		errs = append(errs, errors.New("drawer panel widths must be positive"))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, errors.New("window size must be positive"))
	}
	return errors.Join(errs...)
}

// presentKeys returns the "section.key" names set in a YAML document so
// booleans that default to true can be told apart from omitted ones.
func presentKeys(data []byte) map[string]bool {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil
	}
	keys := make(map[string]bool)
	for section, v := range raw {
		keys[section] = true
		fields, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for k := range fields {
			keys[section+"."+k] = true
		}
	}
	return keys
}

func mergeInto(dst *AppConfig, src *AppConfig, present map[string]bool) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// drawer
	if src.Drawer.EdgeThreshold != 0 {
		dst.Drawer.EdgeThreshold = src.Drawer.EdgeThreshold
	}
	if src.Drawer.SnapThreshold != 0 {
		dst.Drawer.SnapThreshold = src.Drawer.SnapThreshold
	}
	if src.Drawer.LeftWidth != 0 {
		dst.Drawer.LeftWidth = src.Drawer.LeftWidth
	}
	if src.Drawer.RightWidth != 0 {
		dst.Drawer.RightWidth = src.Drawer.RightWidth
	}
	if present == nil || present["drawer.left_enabled"] {
		dst.Drawer.LeftEnabled = src.Drawer.LeftEnabled
	}
	if present == nil || present["drawer.right_enabled"] {
		dst.Drawer.RightEnabled = src.Drawer.RightEnabled
	}
	// window
	if src.Window.Width != 0 {
		dst.Window.Width = src.Window.Width
	}
	if src.Window.Height != 0 {
		dst.Window.Height = src.Window.Height
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	// logging
	setText(&dst.Logging.Level, src.Logging.Level, true)
	setText(&dst.Logging.Format, src.Logging.Format, true)
	setText(&dst.Logging.File, src.Logging.File, false)
	dst.Logging.Source = src.Logging.Source
}

// setText assigns v to *dst unless it is blank.
func setText(dst *string, v string, lower bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if lower {
		v = strings.ToLower(v)
	}
	*dst = v
}

func setFloat(dst *float32, v string) {
	if f, err := strconv.ParseFloat(v, 32); err == nil {
		*dst = float32(f)
	}
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// EnvOverride ties a "section.key" config field to the variable that overrides it.
type EnvOverride struct {
	Key string
	Env string
}

var envOverrides = []struct {
	EnvOverride
	apply func(cfg *AppConfig, v string)
}{
	{EnvOverride{"drawer.edge_threshold", EnvEdgeThreshold}, func(c *AppConfig, v string) { setFloat(&c.Drawer.EdgeThreshold, v) }},
	{EnvOverride{"drawer.snap_threshold", EnvSnapThreshold}, func(c *AppConfig, v string) { setFloat(&c.Drawer.SnapThreshold, v) }},
	{EnvOverride{"general.telemetry_opt_in", EnvTelemetryOptIn}, func(c *AppConfig, v string) { c.General.TelemetryOptIn = truthy(v) }},
	{EnvOverride{"logging.level", EnvLogLevel}, func(c *AppConfig, v string) { setText(&c.Logging.Level, v, true) }},
	{EnvOverride{"logging.format", EnvLogFormat}, func(c *AppConfig, v string) { setText(&c.Logging.Format, v, true) }},
	{EnvOverride{"logging.source", EnvLogSource}, func(c *AppConfig, v string) { c.Logging.Source = truthy(v) }},
	{EnvOverride{"logging.file", EnvLogFile}, func(c *AppConfig, v string) { setText(&c.Logging.File, v, false) }},
}

func applyEnvOverrides(cfg *AppConfig) {
	for _, o := range envOverrides {
		if v := strings.TrimSpace(os.Getenv(o.Env)); v != "" {
			o.apply(cfg, v)
		}
	}
}

// ActiveOverrides lists the fields currently overridden by the environment.
func ActiveOverrides() []EnvOverride {
	var out []EnvOverride
	for _, o := range envOverrides {
		if strings.TrimSpace(os.Getenv(o.Env)) != "" {
			out = append(out, o.EnvOverride)
		}
	}
	return out
}

// EnvOverrideFor returns the variable overriding key, if it is set.
func EnvOverrideFor(key string) (string, bool) {
	for _, o := range envOverrides {
		if o.Key == key && strings.TrimSpace(os.Getenv(o.Env)) != "" {
			return o.Env, true
		}
	}
	return "", false
}
