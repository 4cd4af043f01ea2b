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

import (
	"log/slog"
	"time"
)

const (
	// DefaultEdgeThreshold is the width of the screen-edge band that may start a drag.
	DefaultEdgeThreshold float32 = 16
	// DefaultSnapThreshold is the displacement beyond which a release follows the drag direction.
	DefaultSnapThreshold float32 = 10
)

// Options tunes the gesture classifier. Zero values fall back to defaults.
type Options struct {
	EdgeThreshold float32
	SnapThreshold float32

	// Logger receives debug traces of classification decisions.
	Logger *slog.Logger
	// Now stamps transitions; defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.EdgeThreshold <= 0 {
		o.EdgeThreshold = DefaultEdgeThreshold
	}
	if o.SnapThreshold <= 0 {
		o.SnapThreshold = DefaultSnapThreshold
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
