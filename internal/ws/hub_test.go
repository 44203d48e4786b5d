package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, restaurantID uuid.UUID) *Client {
	return &Client{
		hub:          hub,
		restaurantID: restaurantID,
		send:         make(chan []byte, 256),
	}
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHubRegistration(t *testing.T) {
	hub := runHub(t)

	restaurantID := uuid.New()
	client := mockClient(hub, restaurantID)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[restaurantID] == nil {
		t.Fatal("restaurant room not created")
	}
	if !hub.rooms[restaurantID][client] {
		t.Fatal("client not registered in restaurant room")
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := runHub(t)

	restaurantID := uuid.New()
	client1 := mockClient(hub, restaurantID)
	client2 := mockClient(hub, restaurantID)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[restaurantID]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms[restaurantID]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[restaurantID]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[restaurantID]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms[restaurantID] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()
}

func TestBroadcastToSingleRestaurant(t *testing.T) {
	hub := runHub(t)

	r1 := uuid.New()
	r2 := uuid.New()
	client1 := mockClient(hub, r1)
	client2 := mockClient(hub, r2)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	payload := json.RawMessage(`{"table_id":"T1","elapsed_seconds":65}`)
	hub.BroadcastToRestaurant(r1, Event{Type: "timer.tick", Payload: payload})

	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "timer.tick" {
			t.Errorf("expected type 'timer.tick', got '%s'", received.Type)
		}
		if string(received.Payload) != string(payload) {
			t.Errorf("expected payload '%s', got '%s'", payload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	select {
	case <-client2.send:
		t.Fatal("client2 should not have received message for a different restaurant")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishToEveryClientInRoom(t *testing.T) {
	hub := runHub(t)

	restaurantID := uuid.New()
	clients := []*Client{
		mockClient(hub, restaurantID),
		mockClient(hub, restaurantID),
		mockClient(hub, restaurantID),
	}
	for _, c := range clients {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	hub.Publish(restaurantID, "cart.updated", map[string]any{"table_id": "T9", "total": "120.00"})

	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received struct {
				Type    string            `json:"type"`
				Payload map[string]string `json:"payload"`
			}
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "cart.updated" {
				t.Errorf("client%d: expected type 'cart.updated', got '%s'", i+1, received.Type)
			}
			if received.Payload["total"] != "120.00" {
				t.Errorf("client%d: expected total 120.00, got %q", i+1, received.Payload["total"])
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestPublishUnmarshalablePayload(t *testing.T) {
	hub := runHub(t)
	restaurantID := uuid.New()
	client := mockClient(hub, restaurantID)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.Publish(restaurantID, "cart.updated", make(chan int))

	select {
	case <-client.send:
		t.Fatal("unmarshalable payload should be dropped")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastDropsWhenBacklogged(t *testing.T) {
	// Hub not running: the queue fills and further events are dropped
	// instead of blocking the caller.
	hub := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+10; i++ {
			hub.BroadcastToRestaurant(uuid.New(), Event{Type: "timer.tick"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full queue")
	}
	if len(hub.broadcast) != cap(hub.broadcast) {
		t.Fatalf("expected full queue, got %d/%d", len(hub.broadcast), cap(hub.broadcast))
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	restaurantID := uuid.New()
	client := mockClient(hub, restaurantID)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	cancel()

	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	if _, ok := <-client.send; ok {
		t.Fatal("client send channel should be closed on shutdown")
	}
}
