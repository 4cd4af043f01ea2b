/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package replay runs scripted toggles and touch sequences against a drawer
// layout with recording surfaces and reports the state after every step.
package replay

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"sidebarlayout/internal/drawer"
)

//go:embed schema.json
var schemaJSON []byte

// Script is a replay document.
type Script struct {
	Name          string  `yaml:"name"`
	Viewport      float32 `yaml:"viewport"`
	LeftWidth     float32 `yaml:"left_width"`
	RightWidth    float32 `yaml:"right_width"`
	EdgeThreshold float32 `yaml:"edge_threshold"`
	SnapThreshold float32 `yaml:"snap_threshold"`
	Steps         []Step  `yaml:"steps"`
}

// Step holds at most one action and an optional expectation checked after it.
type Step struct {
	Note        string      `yaml:"note"`
	Toggle      *ToggleStep `yaml:"toggle"`
	Touch       *TouchStep  `yaml:"touch"`
	TapBackdrop bool        `yaml:"tap_backdrop"`
	Resize      *ResizeStep `yaml:"resize"`
	Mount       *MountStep  `yaml:"mount"`
	Unmount     string      `yaml:"unmount"`
	Expect      *Expect     `yaml:"expect"`
}

type ToggleStep struct {
	Side  string `yaml:"side"`
	Value string `yaml:"value"`
}

type TouchStep struct {
	Kind string  `yaml:"kind"`
	ID   int64   `yaml:"id"`
	X    float32 `yaml:"x"`
	Y    float32 `yaml:"y"`
}

type ResizeStep struct {
	Viewport   float32 `yaml:"viewport"`
	LeftWidth  float32 `yaml:"left_width"`
	RightWidth float32 `yaml:"right_width"`
}

type MountStep struct {
	Side  string  `yaml:"side"`
	Width float32 `yaml:"width"`
}

// Expect lists the observable values to check; unset fields are not checked.
type Expect struct {
	Active      *string  `yaml:"active"`
	LeftX       *float32 `yaml:"left_x"`
	RightX      *float32 `yaml:"right_x"`
	Opacity     *float32 `yaml:"opacity"`
	Interactive *bool    `yaml:"interactive"`
	Prevented   *bool    `yaml:"prevented"`
}

// ValidationError lists every problem found in a script.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid replay script: " + strings.Join(e.Problems, "; ")
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Parse validates data against the script schema and decodes it.
func Parse(data []byte) (*Script, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if doc == nil {
		return nil, &ValidationError{Problems: []string{"empty document"}}
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate script: %w", err)
	}
	if !res.Valid() {
		ve := &ValidationError{}
		for _, e := range res.Errors() {
			ve.Problems = append(ve.Problems, e.String())
		}
		return nil, ve
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// check enforces the rules the schema cannot express.
func (s *Script) check() error {
	ve := &ValidationError{}
	for i, st := range s.Steps {
		if n := st.actions(); n > 1 {
			ve.Problems = append(ve.Problems, fmt.Sprintf("step %d: %d actions, at most one allowed", i+1, n))
		} else if n == 0 && st.Expect == nil {
			ve.Problems = append(ve.Problems, fmt.Sprintf("step %d: neither action nor expect", i+1))
		}
	}
	if len(ve.Problems) > 0 {
		return ve
	}
	return nil
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{st.Toggle != nil, st.Touch != nil, st.TapBackdrop, st.Resize != nil, st.Mount != nil, st.Unmount != ""} {
		if set {
			n++
		}
	}
	return n
}

// Action names the step's action for reports.
func (st Step) Action() string {
	switch {
	case st.Toggle != nil:
		v := st.Toggle.Value
		if v == "" {
			v = "flip"
		}
		return fmt.Sprintf("toggle %s %s", st.Toggle.Side, v)
	case st.Touch != nil:
		if st.Touch.Kind == "cancel" {
			return "touch cancel"
		}
		return fmt.Sprintf("touch %s #%d (%g,%g)", st.Touch.Kind, st.Touch.ID, st.Touch.X, st.Touch.Y)
	case st.TapBackdrop:
		return "tap backdrop"
	case st.Resize != nil:
		return "resize"
	case st.Mount != nil:
		return fmt.Sprintf("mount %s %g", st.Mount.Side, st.Mount.Width)
	case st.Unmount != "":
		return "unmount " + st.Unmount
	default:
		return "expect"
	}
}

func toggleValue(v string) drawer.Value {
	switch v {
	case "open":
		return drawer.Open
	case "close":
		return drawer.Close
	default:
		return drawer.Flip
	}
}
