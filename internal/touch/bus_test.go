/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package touch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidebarlayout/internal/drawer"
	"sidebarlayout/internal/drawer/drawertest"
)

func TestBus_SubscribeRemove(t *testing.T) {
	b := NewBus()
	var order []string
	h1 := b.Subscribe(func(*drawer.TouchEvent) { order = append(order, "a") })
	b.Subscribe(func(*drawer.TouchEvent) { order = append(order, "b") })
	require.Equal(t, 2, b.Len())

	b.Dispatch(&drawer.TouchEvent{Kind: drawer.TouchCancel})
	assert.Equal(t, []string{"a", "b"}, order)

	h1.Remove()
	h1.Remove()
	assert.Equal(t, 1, b.Len())

	order = nil
	b.Dispatch(&drawer.TouchEvent{Kind: drawer.TouchCancel})
	assert.Equal(t, []string{"b"}, order)
}

func TestBus_TracksActiveContacts(t *testing.T) {
	b := NewBus()
	var last *drawer.TouchEvent
	b.Subscribe(func(ev *drawer.TouchEvent) { last = ev })

	b.Press(2, 10, 10)
	b.Press(1, 20, 20)
	require.Len(t, last.Contacts, 2)
	assert.Equal(t, int64(1), last.Contacts[0].ID)
	assert.Equal(t, []drawer.Contact{{ID: 1, X: 20, Y: 20}}, last.Changed)

	b.Drag(2, 15, 12)
	assert.Equal(t, drawer.TouchMove, last.Kind)
	assert.Equal(t, drawer.Contact{ID: 2, X: 15, Y: 12}, last.Contacts[1])

	b.Release(2, 15, 12)
	assert.Len(t, last.Contacts, 1)
	assert.Equal(t, int64(2), last.Changed[0].ID)

	b.Cancel()
	assert.Equal(t, drawer.TouchCancel, last.Kind)
	assert.Len(t, last.Changed, 1)
	assert.Empty(t, b.active)
}

func TestBus_DrivesLayout(t *testing.T) {
	r := drawertest.NewRig(800, 300, 300, drawer.Options{})
	b := NewBus()
	require.NoError(t, r.Layout.Start(b))
	defer r.Layout.Stop()

	b.Press(1, 4, 200)
	// a second finger on the other edge is ignored
	b.Press(2, 796, 200)
	mv := b.Drag(1, 200, 210)
	assert.True(t, mv.DefaultPrevented())
	assert.Equal(t, float32(-100), r.Left.X())
	b.Release(2, 796, 200)
	b.Release(1, 200, 210)

	assert.Equal(t, drawer.Offset{X: 0, Settle: true}, r.Left.Offset)
	assert.Equal(t, float32(300), r.Right.X())

	r.Layout.Stop()
	assert.Equal(t, 0, b.Len())
}
