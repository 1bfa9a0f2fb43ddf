// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package lifecycle

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// ListenerFunc handles one event.
type ListenerFunc func(ctx context.Context, ev Event) error

// Listener wraps a ListenerFunc with metadata.
type Listener struct {
	Name     string
	Priority int // lower runs first
	Fn       ListenerFunc
}

// Bus dispatches events synchronously to registered listeners.
type Bus struct {
	logger    *slog.Logger
	mu        sync.RWMutex
	listeners []Listener
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers a listener. Listeners with equal priority run in
// registration order.
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = append(b.listeners, l)
	sort.SliceStable(b.listeners, func(i, j int) bool {
		return b.listeners[i].Priority < b.listeners[j].Priority
	})

	b.logger.Debug("lifecycle listener registered", "listener", l.Name, "priority", l.Priority)
}

// Publish calls every listener in priority order. A listener error is
// logged and the remaining listeners still run.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	if ev.Origin == "" {
		ev.Origin = OriginFrom(ctx)
	}

	for _, l := range listeners {
		if err := l.Fn(ctx, ev); err != nil {
			b.logger.Error("lifecycle listener failed",
				"listener", l.Name,
				"kind", ev.Kind,
				"origin", ev.Origin,
				"error", err,
			)
		}
	}
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
