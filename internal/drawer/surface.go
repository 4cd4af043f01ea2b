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

// Offset is the horizontal translation of a panel, in pixels, from its
// natural open position. Settle marks rest positions written by toggles and
// releases; hosts may animate those. Live drag updates have Settle=false and
// must be applied 1:1.
type Offset struct {
	X      float32
	Settle bool
}

// Surface is the positionable element of a panel as provided by the rendering layer.
type Surface interface {
	// Width returns the current rendered width. It is queried on every use.
	Width() float32
	SetOffset(o Offset)
}

// Backdrop is the dimming overlay shared by both panels.
type Backdrop interface {
	SetOpacity(v float32)
	// SetInteractive toggles whether the backdrop receives taps.
	SetInteractive(on bool)
}

// Viewport reports the overall viewport width.
type Viewport interface {
	Width() float32
}

// ViewportFunc adapts a function to Viewport.
type ViewportFunc func() float32

func (f ViewportFunc) Width() float32 { return f() }

// Toggler is the surface handed to descendant UI so it can open or close panels.
type Toggler interface {
	ToggleLeft(v Value)
	ToggleRight(v Value)
}

// Value is the optional argument of a toggle call. The zero value (Flip)
// means "negate the current open state of that panel at call time".
type Value struct {
	explicit bool
	open     bool
}

// Flip toggles the panel relative to its state at call time.
var Flip = Value{}

// Set returns an explicit toggle value.
func Set(open bool) Value { return Value{explicit: true, open: open} }

// Open and Close are shorthands for Set(true) and Set(false).
var (
	Open  = Set(true)
	Close = Set(false)
)

// resolve returns the requested open state given the current one.
func (v Value) resolve(current bool) bool {
	if v.explicit {
		return v.open
	}
	return !current
}

// Explicit reports whether the value carries an explicit state.
func (v Value) Explicit() (open bool, ok bool) { return v.open, v.explicit }
