// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBusPriorityOrder(t *testing.T) {
	bus := NewBus(testLogger())
	var order []string

	add := func(name string, priority int) {
		bus.Subscribe(Listener{Name: name, Priority: priority, Fn: func(context.Context, Event) error {
			order = append(order, name)
			return nil
		}})
	}
	add("late", 10)
	add("first", -5)
	add("mid-a", 0)
	add("mid-b", 0)

	bus.Publish(context.Background(), Event{Kind: PostSaved})

	want := []string{"first", "mid-a", "mid-b", "late"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
	if bus.Len() != 4 {
		t.Errorf("Len() = %d, want 4", bus.Len())
	}
}

func TestBusListenerErrorDoesNotStopDispatch(t *testing.T) {
	bus := NewBus(testLogger())
	called := false

	bus.Subscribe(Listener{Name: "failing", Fn: func(context.Context, Event) error {
		return errors.New("boom")
	}})
	bus.Subscribe(Listener{Name: "after", Priority: 1, Fn: func(context.Context, Event) error {
		called = true
		return nil
	}})

	bus.Publish(context.Background(), Event{Kind: TagSaved})

	if !called {
		t.Error("listener after a failing one was not called")
	}
}

func TestBusFillsOriginFromContext(t *testing.T) {
	bus := NewBus(testLogger())
	var got Origin
	bus.Subscribe(Listener{Name: "capture", Fn: func(_ context.Context, ev Event) error {
		got = ev.Origin
		return nil
	}})

	bus.Publish(WithOrigin(context.Background(), OriginCron), Event{Kind: PostSaved})
	if got != OriginCron {
		t.Errorf("origin = %q, want %q", got, OriginCron)
	}

	bus.Publish(context.Background(), Event{Kind: PostSaved, Origin: OriginImport})
	if got != OriginImport {
		t.Errorf("explicit origin = %q, want %q", got, OriginImport)
	}
}

func TestNilBusPublish(t *testing.T) {
	var bus *Bus
	bus.Publish(context.Background(), Event{Kind: PostSaved})
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if OriginFrom(ctx) != OriginAdmin {
		t.Errorf("default origin = %q, want %q", OriginFrom(ctx), OriginAdmin)
	}
	if BearerToken(ctx) != "" {
		t.Error("BearerToken on empty context is not empty")
	}

	ctx = WithBearerToken(WithOrigin(ctx, OriginAPI), "abc")
	if OriginFrom(ctx) != OriginAPI {
		t.Errorf("origin = %q, want %q", OriginFrom(ctx), OriginAPI)
	}
	if BearerToken(ctx) != "abc" {
		t.Errorf("token = %q, want %q", BearerToken(ctx), "abc")
	}
}
