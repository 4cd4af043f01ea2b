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

// Gesture geometry. All values are pixels in viewport coordinates; the
// functions are pure so they can be tested without any surface.

func clamp(v, lo, hi float32) float32 {
	return max(min(v, hi), lo)
}

// hiddenOffset is the closed rest offset of a panel of the given width.
func hiddenOffset(s Side, width float32) float32 {
	if s == Left {
		return -width
	}
	return width
}

// startOffset is the distance between the finger and the leading edge of an
// already open panel at touch start. It keeps the panel edge under the
// finger instead of jumping to it.
func startOffset(s Side, x, width, viewport float32) float32 {
	if s == Left {
		return max(width-x, 0)
	}
	return max(x-viewport+width, 0)
}

// tightenStartOffset shrinks the correction once the finger has moved past
// the point it allowed for. It never grows.
func tightenStartOffset(s Side, current, x, width, viewport float32) float32 {
	var reach float32
	if s == Left {
		reach = width - x
	} else {
		reach = x - viewport + width
	}
	if reach < current {
		return max(reach, 0)
	}
	return current
}

// dragPosition is the live offset of the dragged panel for finger x.
func dragPosition(s Side, x, width, viewport, corr float32) float32 {
	if s == Left {
		return clamp(x-width+corr, -width, 0)
	}
	return clamp(width-viewport+x-corr, 0, width)
}

// backdropOpacity maps a live offset to opacity: 1 fully open, 0 fully hidden.
func backdropOpacity(s Side, position, width float32) float32 {
	if width <= 0 {
		return 0
	}
	return 1 + float32(s.Coef())*position/width
}

// isHorizontal decides the direction lock: ties count as horizontal.
func isHorizontal(dx, dy float32) bool {
	return abs(dy) <= abs(dx)
}

// resolveRelease decides the rest state at touch end. displacement is the
// cumulative horizontal movement since start, x the last finger position.
// Small movements fall back to which half of the panel the finger is on.
func resolveRelease(s Side, displacement, x, width, viewport, snap float32) (open bool) {
	opening := displacement * float32(s.Coef())
	switch {
	case opening > snap:
		return true
	case opening < -snap:
		return false
	}
	if s == Left {
		return x > width/2
	}
	return !(x > viewport-width/2)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
