package status

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msto63/vaani/internal/pipeline"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_PublishAndFollow(t *testing.T) {
	hub := NewHub()
	hub.Publish(Event{Type: TypeState, Session: "s1", State: "READY", Audio: "IDLE"})

	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan Event, 8)
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, wsURL(srv), func(e Event) { events <- e })
	}()

	select {
	case e := <-events:
		if e.Type != TypeHello {
			t.Errorf("first event type = %q, want %q", e.Type, TypeHello)
		}
		if e.State != "READY" || e.Session != "s1" {
			t.Errorf("hello event = %+v, want last published state", e)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for hello")
	}

	waitForClients(t, hub, 1)
	hub.Publish(Event{Type: TypeAudio, Session: "s1", State: "PLAYING", Audio: "PLAYING"})

	select {
	case e := <-events:
		if e.Type != TypeAudio || e.Audio != "PLAYING" {
			t.Errorf("event = %+v, want audio PLAYING", e)
		}
		if e.Time.IsZero() {
			t.Error("event time not set")
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Follow returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}
	waitForClients(t, hub, 0)
}

func TestHub_PublishWhileClientsLeave(t *testing.T) {
	hub := NewHub()

	const n = 200
	clients := make([]*client, n)
	hub.mu.Lock()
	for i := range clients {
		clients[i] = &client{send: make(chan Event, 1)}
		hub.clients[clients[i]] = struct{}{}
	}
	hub.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			hub.Publish(Event{Type: TypeState, State: "PLAYING"})
		}
	}()
	go func() {
		defer wg.Done()
		for _, c := range clients {
			hub.remove(c)
		}
	}()
	wg.Wait()

	if got := hub.Clients(); got != 0 {
		t.Errorf("Clients() = %d, want 0", got)
	}
	if hub.Last().State != "PLAYING" {
		t.Errorf("Last() = %+v", hub.Last())
	}
}

func TestHub_Last(t *testing.T) {
	hub := NewHub()
	if !hub.Last().Time.IsZero() {
		t.Error("new hub should have no last event")
	}
	hub.Publish(Event{Type: TypeState, State: "SCANNING"})
	if got := hub.Last().State; got != "SCANNING" {
		t.Errorf("Last().State = %q, want SCANNING", got)
	}
}

func TestFollow_DialError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := Follow(ctx, "ws://127.0.0.1:1/ws/status", func(Event) {})
	if err == nil {
		t.Fatal("expected dial error")
	}
}

func TestBridge_NilSources(t *testing.T) {
	hub := NewHub()
	b := Attach(hub, nil, nil)

	b.onAudio("REQUESTING_AUDIO")
	e := hub.Last()
	if e.Type != TypeAudio || e.Audio != "REQUESTING_AUDIO" || e.State != "READY" {
		t.Errorf("event = %+v", e)
	}
}

func TestBridge_DeduplicatesSessionEvents(t *testing.T) {
	hub := NewHub()
	b := Attach(hub, nil, nil)

	b.onSession(pipeline.Session{State: pipeline.StateScanning})
	first := hub.Last()
	if first.State != "SCANNING" {
		t.Fatalf("State = %q, want SCANNING", first.State)
	}

	b.onSession(pipeline.Session{State: pipeline.StateScanning})
	if hub.Last() != first {
		t.Error("unchanged session should not publish")
	}

	b.onSession(pipeline.Session{State: pipeline.StateChoosing, Notice: "Found text. Select a language."})
	if got := hub.Last(); got.State != "CHOOSING" || got.Notice == "" {
		t.Errorf("event = %+v", got)
	}
}
