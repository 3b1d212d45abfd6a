// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package navigation is a synchronous in-process event bus for "about to
// leave this view" notifications. Listeners run on the publisher's goroutine
// and may veto the navigation.
package navigation

import (
	"sync"
	"sync/atomic"

	"github.com/ManuGH/informant/internal/metrics"
)

// LocationChangeStart is published before the host leaves the current view.
const LocationChangeStart = "location_change_start"

// Event describes a pending navigation.
type Event struct {
	Name string
	From string
	To   string

	prevented atomic.Bool
}

// Prevent cancels the navigation.
func (e *Event) Prevent() { e.prevented.Store(true) }

// Prevented reports whether any listener cancelled the navigation.
func (e *Event) Prevented() bool { return e.prevented.Load() }

// Listener handles an event.
type Listener func(*Event)

type subscription struct {
	id uint64
	fn Listener
}

// Bus dispatches events to listeners in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// On registers fn for the named event and returns a function that removes it.
func (b *Bus) On(name string, fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, id) })
	}
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lst := b.subs[name]
	out := lst[:0]
	for _, s := range lst {
		if s.id != id {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		delete(b.subs, name)
	} else {
		b.subs[name] = out
	}
}

// Publish delivers ev to every listener and reports whether navigation may
// proceed. Delivery continues after a listener prevents the event.
func (b *Bus) Publish(ev *Event) (proceed bool) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[ev.Name]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
	metrics.IncNavigation(ev.Name, ev.Prevented())
	return !ev.Prevented()
}

// Navigate publishes LocationChangeStart for a move from one view to another.
func (b *Bus) Navigate(from, to string) bool {
	return b.Publish(&Event{Name: LocationChangeStart, From: from, To: to})
}
