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

// TouchKind is the lifecycle phase of a touch event.
type TouchKind int

const (
	TouchStart TouchKind = iota
	TouchMove
	TouchEnd
	TouchCancel
)

func (k TouchKind) String() string {
	switch k {
	case TouchStart:
		return "start"
	case TouchMove:
		return "move"
	case TouchEnd:
		return "end"
	case TouchCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// ParseTouchKind converts the names returned by TouchKind.String back.
func ParseTouchKind(v string) (TouchKind, bool) {
	switch v {
	case "start":
		return TouchStart, true
	case "move":
		return TouchMove, true
	case "end":
		return TouchEnd, true
	case "cancel":
		return TouchCancel, true
	}
	return TouchStart, false
}

// Contact is one touch point in screen coordinates.
type Contact struct {
	ID   int64
	X, Y float32
}

// TouchEvent is one event of the global touch stream.
//
// Contacts lists the contacts currently down on the listening surface.
// Changed lists the contacts that triggered this event (new contacts for a
// start, lifted ones for an end). Hosts that cannot tell may leave Changed empty.
type TouchEvent struct {
	Kind     TouchKind
	Contacts []Contact
	Changed  []Contact

	prevented bool
}

// PreventDefault suppresses the host's default handling (scrolling).
func (e *TouchEvent) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *TouchEvent) DefaultPrevented() bool { return e.prevented }

// first returns the first new contact of a start event.
func (e *TouchEvent) first() (Contact, bool) {
	if len(e.Changed) > 0 {
		return e.Changed[0], true
	}
	if len(e.Contacts) > 0 {
		return e.Contacts[0], true
	}
	return Contact{}, false
}

// find locates the contact with the given id among the contacts still down.
// Changed is only consulted when the host reports no Contacts at all.
func (e *TouchEvent) find(id int64) (Contact, bool) {
	list := e.Contacts
	if len(list) == 0 {
		list = e.Changed
	}
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
	}
	return Contact{}, false
}

// concerns reports whether an end event is about the given contact.
func (e *TouchEvent) concerns(id int64) bool {
	if len(e.Changed) == 0 {
		return true
	}
	for _, c := range e.Changed {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Handler receives touch events.
type Handler func(ev *TouchEvent)

// Subscription is returned by Source.Subscribe. Remove must be safe to call more than once.
type Subscription interface {
	Remove()
}

// Source is the global touch event stream.
type Source interface {
	Subscribe(h Handler) Subscription
}
