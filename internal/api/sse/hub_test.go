package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "hint_purchased",
			data:      `{"cost":20}`,
			expected:  "event: hint_purchased\ndata: {\"cost\":20}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "note",
			data:      "line1\nline2",
			expected:  "event: note\ndata: line1\ndata: line2\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2\r\n",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := newRunningHub(t)

	client := NewClient(hub, "")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.BroadcastEvent("coins_granted", "alice", "data")

	select {
	case msg := <-client.send:
		expected := "event: coins_granted\ndata: data\n\n"
		if string(msg) != expected {
			t.Errorf("client received %q, want %q", string(msg), expected)
		}
	case <-time.After(time.Second):
		t.Error("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := newRunningHub(t)

	client := NewClient(hub, "alice")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Unregister(client)
	waitForClients(t, hub, 0)

	if _, ok := <-client.send; ok {
		t.Error("send channel still open after unregister")
	}
}

func TestHub_IdentityFilter(t *testing.T) {
	hub := newRunningHub(t)

	all := NewClient(hub, "")
	alice := NewClient(hub, "alice")
	bob := NewClient(hub, "bob")
	for _, c := range []*Client{all, alice, bob} {
		hub.Register(c)
	}
	waitForClients(t, hub, 3)

	hub.BroadcastEvent("level_cleared", "alice", "x")

	for name, c := range map[string]*Client{"all": all, "alice": alice} {
		select {
		case <-c.send:
		case <-time.After(time.Second):
			t.Errorf("%s client did not receive alice's event", name)
		}
	}

	select {
	case msg := <-bob.send:
		t.Errorf("bob received %q", string(msg))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()

	client := NewClient(hub, "")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Close()
	hub.Close()

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Error("client channel not closed by Close")
	}

	// Unregister after shutdown must not block
	hub.Unregister(client)
}

func TestBroadcaster_PublishesJSON(t *testing.T) {
	hub := newRunningHub(t)
	client := NewClient(hub, "")
	hub.Register(client)
	waitForClients(t, hub, 1)

	b := NewBroadcaster(hub, testutil.NopLogger())
	b.Publish(model.Event{
		Type:       model.EventCoinsGranted,
		Timestamp:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IdentityID: "alice",
		Payload:    model.CoinsGrantedPayload{Amount: 50, Coins: 150},
	})

	select {
	case msg := <-client.send:
		frame := string(msg)
		if !strings.HasPrefix(frame, "event: coins_granted\ndata: ") {
			t.Fatalf("unexpected frame %q", frame)
		}
		payload := strings.TrimSuffix(strings.TrimPrefix(frame, "event: coins_granted\ndata: "), "\n\n")
		var decoded struct {
			Type       string `json:"type"`
			IdentityID string `json:"identity_id"`
			Payload    struct {
				Amount int `json:"amount"`
				Coins  int `json:"coins"`
			} `json:"payload"`
		}
		if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
			t.Fatalf("payload is not JSON: %v", err)
		}
		if decoded.IdentityID != "alice" || decoded.Payload.Amount != 50 || decoded.Payload.Coins != 150 {
			t.Errorf("unexpected payload %+v", decoded)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestServeSSE_StreamsEvents(t *testing.T) {
	hub := newRunningHub(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, hub, model.IdentityID(r.URL.Query().Get("identity_id")))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?identity_id=alice", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil || line != "event: connected\n" {
		t.Fatalf("first line = %q, err = %v", line, err)
	}

	waitForClients(t, hub, 1)
	hub.BroadcastEvent("hint_purchased", "bob", "ignored")
	hub.BroadcastEvent("hint_purchased", "alice", "mine")

	var events []string
	for len(events) < 1 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatal(err)
		}
		if strings.HasPrefix(line, "data: ") && line != "data: {\"status\":\"connected\"}\n" {
			events = append(events, strings.TrimSpace(strings.TrimPrefix(line, "data: ")))
		}
	}
	if events[0] != "mine" {
		t.Errorf("received %q, want alice's event only", events[0])
	}
}
