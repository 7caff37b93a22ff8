package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/logger"
)

func init() {
	logger.Init("error", true)
}

// drainWelcomeMessage drains the welcome message sent during client registration
func drainWelcomeMessage(client *Client) {
	select {
	case <-client.Send:
	case <-time.After(100 * time.Millisecond):
	}
}

func newTestClient(hub *Hub, assignee string) *Client {
	return &Client{
		AssigneeID:  assignee,
		Send:        make(chan []byte, 10),
		Hub:         hub,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}
}

func TestRegisterSendsWelcome(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "worker-1")

	hub.RegisterClient(client)

	select {
	case data := <-client.Send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad welcome payload: %v", err)
		}
		if msg.Type != "connection" {
			t.Errorf("expected connection message, got %q", msg.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no welcome message received")
	}

	if hub.GetConnectionCount() != 1 {
		t.Errorf("expected 1 connection, got %d", hub.GetConnectionCount())
	}
}

func TestPublishVerdictReachesWatcherAndWildcard(t *testing.T) {
	hub := NewHub()

	watcher := newTestClient(hub, "worker-1")
	wildcard := newTestClient(hub, TopicAll)
	for _, c := range []*Client{watcher, wildcard} {
		hub.RegisterClient(c)
		drainWelcomeMessage(c)
	}

	hub.PublishVerdict("worker-1", "abc", "LATE", "ETA exceeds due date")

	for _, c := range []*Client{watcher, wildcard} {
		select {
		case data := <-c.Send:
			var event VerdictEvent
			if err := json.Unmarshal(data, &event); err != nil {
				t.Fatalf("bad event payload: %v", err)
			}
			if event.Type != "verdict" || event.ItemID != "abc" || event.Level != "LATE" {
				t.Errorf("unexpected event: %+v", event)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %s did not receive verdict event", c.AssigneeID)
		}
	}
}

func TestPublishVerdictScopedToAssignee(t *testing.T) {
	hub := NewHub()

	watcher := newTestClient(hub, "worker-1")
	other := newTestClient(hub, "worker-2")
	hub.RegisterClient(watcher)
	hub.RegisterClient(other)
	drainWelcomeMessage(watcher)
	drainWelcomeMessage(other)

	hub.PublishVerdict("worker-1", "abc", "OK", "ETA comfortably before due date")

	select {
	case <-watcher.Send:
	case <-time.After(100 * time.Millisecond):
		t.Error("watcher did not receive the verdict event")
	}

	select {
	case data := <-other.Send:
		t.Errorf("client watching another assignee received event: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterRemovesClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "worker-1")

	hub.RegisterClient(client)
	drainWelcomeMessage(client)
	hub.UnregisterClient(client)

	if hub.GetConnectionCount() != 0 {
		t.Errorf("expected 0 connections, got %d", hub.GetConnectionCount())
	}
	if len(hub.GetConnectedAssignees()) != 0 {
		t.Errorf("expected no assignees, got %v", hub.GetConnectedAssignees())
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	client := &Client{
		AssigneeID:  "worker-1",
		Send:        make(chan []byte, 1), // room for the welcome only
		Hub:         hub,
		ConnectedAt: time.Now(),
	}

	hub.RegisterClient(client)

	// Nothing drains the channel, so the next delivery cannot go through
	hub.PublishVerdict("worker-1", "abc", "OK", "ETA comfortably before due date")

	if hub.GetConnectionCount() != 0 {
		t.Errorf("expected slow client dropped, got %d connections", hub.GetConnectionCount())
	}
}
