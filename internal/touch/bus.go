/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package touch provides the in-process touch event stream that hosts
// publish into and drawer layouts subscribe to.
package touch

import (
	"cmp"
	"slices"
	"sync"

	"sidebarlayout/internal/drawer"
)

type entry struct {
	id uint32
	fn drawer.Handler
}

// Bus delivers touch events synchronously to its subscribers in
// registration order. Subscribing and removing are safe from any goroutine;
// Dispatch runs handlers on the caller's goroutine.
type Bus struct {
	mu      sync.Mutex
	entries []entry
	nextID  uint32
	active  map[int64]drawer.Contact
}

// NewBus returns an empty bus.
func NewBus() *Bus { return &Bus{active: make(map[int64]drawer.Contact)} }

// Subscribe registers h and returns a handle to remove it.
func (b *Bus) Subscribe(h drawer.Handler) drawer.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.entries = append(b.entries, entry{id: id, fn: h})
	return &Handle{id: id, bus: b}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Dispatch delivers ev to every subscriber registered at call time.
func (b *Bus) Dispatch(ev *drawer.TouchEvent) {
	b.mu.Lock()
	hs := make([]drawer.Handler, len(b.entries))
	for i, e := range b.entries {
		hs[i] = e.fn
	}
	b.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

// Press, Drag, Release and Cancel publish single-contact events while
// keeping track of the contacts that are down, so multi-finger hosts can
// report every active contact with each event.

// Press publishes a touch start for a new contact.
func (b *Bus) Press(id int64, x, y float32) *drawer.TouchEvent {
	c := drawer.Contact{ID: id, X: x, Y: y}
	b.mu.Lock()
	b.active[id] = c
	contacts := b.contactsLocked()
	b.mu.Unlock()
	ev := &drawer.TouchEvent{Kind: drawer.TouchStart, Contacts: contacts, Changed: []drawer.Contact{c}}
	b.Dispatch(ev)
	return ev
}

// Drag publishes a move of a contact that is down.
func (b *Bus) Drag(id int64, x, y float32) *drawer.TouchEvent {
	c := drawer.Contact{ID: id, X: x, Y: y}
	b.mu.Lock()
	if _, ok := b.active[id]; ok {
		b.active[id] = c
	}
	contacts := b.contactsLocked()
	b.mu.Unlock()
	ev := &drawer.TouchEvent{Kind: drawer.TouchMove, Contacts: contacts, Changed: []drawer.Contact{c}}
	b.Dispatch(ev)
	return ev
}

// Release publishes the lift of a contact.
func (b *Bus) Release(id int64, x, y float32) *drawer.TouchEvent {
	c := drawer.Contact{ID: id, X: x, Y: y}
	b.mu.Lock()
	delete(b.active, id)
	contacts := b.contactsLocked()
	b.mu.Unlock()
	ev := &drawer.TouchEvent{Kind: drawer.TouchEnd, Contacts: contacts, Changed: []drawer.Contact{c}}
	b.Dispatch(ev)
	return ev
}

// Cancel publishes a system cancellation and forgets all contacts.
func (b *Bus) Cancel() *drawer.TouchEvent {
	b.mu.Lock()
	changed := b.contactsLocked()
	clear(b.active)
	b.mu.Unlock()
	ev := &drawer.TouchEvent{Kind: drawer.TouchCancel, Changed: changed}
	b.Dispatch(ev)
	return ev
}

// contactsLocked returns the active contacts ordered by id.
func (b *Bus) contactsLocked() []drawer.Contact {
	out := make([]drawer.Contact, 0, len(b.active))
	for _, c := range b.active {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b drawer.Contact) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Handle removes a subscription from its bus.
type Handle struct {
	id  uint32
	bus *Bus
}

// Remove unregisters the handler. Removing twice is a no-op.
func (h *Handle) Remove() {
	if h == nil || h.bus == nil {
		return
	}
	b := h.bus
	h.bus = nil
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.entries {
		if b.entries[i].id == h.id {
			copy(b.entries[i:], b.entries[i+1:])
			b.entries[len(b.entries)-1] = entry{}
			b.entries = b.entries[:len(b.entries)-1]
			return
		}
	}
}
