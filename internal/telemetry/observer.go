/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import "sidebarlayout/internal/drawer"

// Event names reported by DrawerObserver.
const (
	EventDrawerOpened = "drawer_opened"
	EventDrawerClosed = "drawer_closed"
)

// DrawerObserver reports settled open and close transitions. Drag samples
// and rejected gestures are not sent.
type DrawerObserver struct {
	c *Client
}

// NewDrawerObserver returns an observer sending through c.
func NewDrawerObserver(c *Client) *DrawerObserver { return &DrawerObserver{c: c} }

func (o *DrawerObserver) OnTransition(t drawer.Transition) {
	if o == nil || !o.c.Enabled() {
		return
	}
	var name string
	switch t.Kind {
	case drawer.Opened:
		name = EventDrawerOpened
	case drawer.Closed:
		name = EventDrawerClosed
	default:
		return
	}
	o.c.Event(name, map[string]any{"side": t.Side.String(), "cause": t.Cause.String()})
}
