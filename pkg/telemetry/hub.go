// Package telemetry 通过 WebSocket 向外部观察者推送飞行统计
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// DefaultWriteTimeout 单个连接的默认写超时，超时的连接会被断开
const DefaultWriteTimeout = 3 * time.Second

// Envelope 推送消息
type Envelope struct {
	Sequence uint64 `json:"seq"`
	Type     string `json:"type"`
	Payload  any    `json:"payload"`
}

// Hub 管理 WebSocket 订阅者并广播消息
type Hub struct {
	WriteTimeout time.Duration // 单个连接的写超时

	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	sequence uint64
}

// NewHub 创建空的订阅者集合
func NewHub() *Hub {
	return &Hub{
		WriteTimeout: DefaultWriteTimeout,
		clients:      make(map[*websocket.Conn]struct{}),
	}
}

// Add 登记连接
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

// Remove 移除连接
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// Count 返回当前订阅者数量
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish 把 payload 包装为 Envelope 并广播给全部订阅者
// 写失败的连接会被关闭并移除
func (h *Hub) Publish(msgType string, payload any) error {
	h.mu.Lock()
	h.sequence++
	env := Envelope{Sequence: h.sequence, Type: msgType, Payload: payload}
	h.mu.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("telemetry: marshal %s: %w", msgType, err)
	}
	h.Broadcast(data)
	return nil
}

// Broadcast 向全部订阅者发送原始文本消息
// 写入在锁外进行，慢订阅者不会阻塞 Add、Remove、Count
func (h *Hub) Broadcast(message []byte) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	timeout := h.WriteTimeout
	h.mu.Unlock()

	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}

	var failed []*websocket.Conn
	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			failed = append(failed, conn)
		}
	}
	if len(failed) == 0 {
		return
	}

	h.mu.Lock()
	for _, conn := range failed {
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	log.Printf("[Telemetry] dropped %d subscribers after write errors", len(failed))
}

// Handler 返回接受 WebSocket 订阅的 HTTP 处理函数
// 订阅者只接收消息，发来的内容被丢弃；读出错（断开）时移除连接
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			log.Printf("[Telemetry] accept failed: %v", err)
			return
		}
		h.Add(conn)
		log.Printf("[Telemetry] subscriber connected (%d total)", h.Count())

		defer h.Remove(conn)
		defer conn.Close(websocket.StatusNormalClosure, "")
		for {
			if _, _, err := conn.Read(r.Context()); err != nil {
				return
			}
		}
	}
}

// Serve 在 addr 上启动订阅服务（路径 /stream），ctx 取消时关闭
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", h.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultWriteTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[Telemetry] serving ws://%s/stream", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}
