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

import "time"

// TransitionKind names what happened to a panel.
type TransitionKind int

const (
	Opened TransitionKind = iota
	Closed
	DragStarted
	DragMoved
	DragRejected
	DragCancelled
)

func (k TransitionKind) String() string {
	switch k {
	case Opened:
		return "opened"
	case Closed:
		return "closed"
	case DragStarted:
		return "drag_started"
	case DragMoved:
		return "drag_moved"
	case DragRejected:
		return "drag_rejected"
	case DragCancelled:
		return "drag_cancelled"
	default:
		return "unknown"
	}
}

// Cause is the origin of a transition.
type Cause int

const (
	ByToggle Cause = iota
	ByGesture
	ByBackdrop
)

func (c Cause) String() string {
	switch c {
	case ByToggle:
		return "toggle"
	case ByGesture:
		return "gesture"
	case ByBackdrop:
		return "backdrop"
	default:
		return "unknown"
	}
}

// Transition is reported to observers after every state change.
type Transition struct {
	Kind    TransitionKind
	Side    Side
	Cause   Cause
	Offset  float32
	Opacity float32
	At      time.Time
}

// Observer is notified synchronously, after the transition has been applied.
type Observer interface {
	OnTransition(t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t Transition)

func (f ObserverFunc) OnTransition(t Transition) { f(t) }

// Observers fans a transition out to several observers in order.
type Observers []Observer

func (os Observers) OnTransition(t Transition) {
	for _, o := range os {
		if o != nil {
			o.OnTransition(t)
		}
	}
}
