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

// Side identifies one of the two drawer panels.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Other returns the opposite panel.
func (s Side) Other() Side {
	if s == Left {
		return Right
	}
	return Left
}

// Coef returns the signed coefficient of the side: +1 for Left, -1 for Right.
// The sign is also the direction a panel travels while being opened.
func (s Side) Coef() int {
	if s == Left {
		return 1
	}
	return -1
}

// ParseSide converts "left"/"right" into a Side.
func ParseSide(v string) (Side, bool) {
	switch v {
	case "left", "l":
		return Left, true
	case "right", "r":
		return Right, true
	}
	return Left, false
}

// coef is the drawer state discriminator: which panel, if any, is open or opening.
type coef int

const (
	coefNone  coef = 0
	coefLeft  coef = 1
	coefRight coef = -1
)

func coefOf(s Side) coef { return coef(s.Coef()) }

func (c coef) side() (Side, bool) {
	switch c {
	case coefLeft:
		return Left, true
	case coefRight:
		return Right, true
	}
	return Left, false
}
