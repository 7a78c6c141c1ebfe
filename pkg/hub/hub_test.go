package hub

import (
	"context"
	"testing"
	"time"
)

// attach registers a connectionless client for tests.
func attach(t *testing.T, h *Hub, buf int) *Client {
	t.Helper()
	c := &Client{hub: h, send: make(chan Message, buf)}
	select {
	case h.register <- c:
	case <-time.After(time.Second):
		t.Fatal("register timed out")
	}
	return c
}

func recv(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case m, ok := <-c.send:
		return m, ok
	case <-time.After(time.Second):
		t.Fatal("receive timed out")
	}
	return Message{}, false
}

func startHub(t *testing.T, h *Hub) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return cancel
}

func TestHub_Broadcast(t *testing.T) {
	h := New("test")
	startHub(t, h)

	a := attach(t, h, 4)
	b := attach(t, h, 4)

	if err := h.BroadcastJSON(map[string]int{"frame": 1}); err != nil {
		t.Fatal(err)
	}

	for _, c := range []*Client{a, b} {
		m, ok := recv(t, c)
		if !ok || m.Type != JSONMessage || string(m.Data) != `{"frame":1}` {
			t.Errorf("got %+v ok=%v", m, ok)
		}
	}
	if h.ClientCount() != 2 {
		t.Errorf("ClientCount: got %d", h.ClientCount())
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := New("test")
	startHub(t, h)

	slow := attach(t, h, 1)
	slow.send <- NewBinaryMessage(nil) // buffer now full
	h.BroadcastBinary([]byte{1})

	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("slow client not dropped, ClientCount=%d", h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}

	<-slow.send
	if _, ok := <-slow.send; ok {
		t.Error("slow client channel should be closed")
	}
}

func TestHub_RetainedReplay(t *testing.T) {
	h := NewRetained("status")
	startHub(t, h)

	first := attach(t, h, 4)
	h.Broadcast(NewJSONMessage([]byte(`"a"`)))
	recv(t, first)

	late := attach(t, h, 4)
	m, ok := recv(t, late)
	if !ok || string(m.Data) != `"a"` {
		t.Errorf("late client got %+v", m)
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	h := New("test")
	cancel := startHub(t, h)
	c := attach(t, h, 1)

	cancel()
	<-h.Done()

	if _, ok := recv(t, c); ok {
		t.Error("client channel should be closed on stop")
	}
	if h.IsRunning() {
		t.Error("hub should report stopped")
	}
}

func TestHub_OnMessage(t *testing.T) {
	h := New("test")
	got := make(chan string, 1)
	h.OnMessage(func(data []byte) { got <- string(data) })

	h.handler()([]byte("stop"))
	if s := <-got; s != "stop" {
		t.Errorf("handler got %q", s)
	}
}

func TestEncodeJSON(t *testing.T) {
	m, err := EncodeJSON(map[string]string{"mode": "evading"})
	if err != nil {
		t.Fatal(err)
	}
	if m.Type != JSONMessage || string(m.Data) != `{"mode":"evading"}` {
		t.Errorf("got %+v", m)
	}
	if _, err := EncodeJSON(make(chan int)); err == nil {
		t.Error("expected error for unencodable value")
	}
	if got := NewBinaryMessage([]byte{0xff}).frameType(1, 2); got != 2 {
		t.Errorf("binary frame type: got %d", got)
	}
}
