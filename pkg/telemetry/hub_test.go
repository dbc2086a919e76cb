package telemetry

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestHubPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// 等待服务端登记连接
	for hub.Count() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("subscriber was never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := hub.Publish("stats", map[string]int{"distance": 42}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var env struct {
		Sequence uint64         `json:"seq"`
		Type     string         `json:"type"`
		Payload  map[string]int `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if env.Sequence != 1 || env.Type != "stats" || env.Payload["distance"] != 42 {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	if err := hub.Publish("stats", struct{}{}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := hub.Publish("bad", func() {}); err == nil {
		t.Error("expected a marshal error for a func payload")
	}
}

func TestHubStalledSubscriberDoesNotBlockHub(t *testing.T) {
	hub := NewHub()
	hub.WriteTimeout = 5 * time.Second
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	for hub.Count() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("subscriber was never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// 订阅者从不读取，超过套接字缓冲的消息会让写入卡住
	done := make(chan struct{})
	go func() {
		hub.Broadcast(make([]byte, 32<<20))
		close(done)
	}()
	time.Sleep(200 * time.Millisecond)

	counted := make(chan int, 1)
	go func() { counted <- hub.Count() }()
	select {
	case n := <-counted:
		if n != 1 {
			t.Errorf("expected 1 subscriber while the write is pending, got %d", n)
		}
	case <-time.After(time.Second):
		t.Fatal("Count blocked behind a pending broadcast")
	}

	// 断开订阅者后写入失败，连接被移除
	_ = conn.CloseNow()
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("broadcast never returned after the subscriber disconnected")
	}
	for hub.Count() != 0 {
		select {
		case <-ctx.Done():
			t.Fatal("disconnected subscriber was never removed")
		case <-time.After(10 * time.Millisecond):
		}
	}
	t.Logf("✓ hub stayed responsive during a stalled write")
}
