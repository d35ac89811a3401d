// cmd/push-gateway/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"goodskill/internal/pkg/bootstrap"
	"goodskill/internal/pkg/logger"
	"goodskill/internal/pkg/mq"
	"goodskill/internal/service/seckill/domain"
	"goodskill/internal/service/seckill/infrastructure"
)

const serviceName = "push-gateway"

var (
	nodeID   = serviceName + "-" + uuid.New().String()[:8]
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
			return true
		},
	}
)

// Hub 维护所有活跃的连接，按手机号索引
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	lock       sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			h.clients[client.userPhone] = client
			h.lock.Unlock()
			logger.Logger.Info().Str("user", client.userPhone).Str("node", nodeID).Msg("Client registered")
		case client := <-h.unregister:
			h.lock.Lock()
			if _, ok := h.clients[client.userPhone]; ok {
				delete(h.clients, client.userPhone)
				close(client.send)
			}
			h.lock.Unlock()
			logger.Logger.Info().Str("user", client.userPhone).Msg("Client unregistered")
		}
	}
}

// push 把消息投递给指定用户，用户不在线则丢弃
func (h *Hub) push(userPhone string, payload []byte) {
	h.lock.RLock()
	client, ok := h.clients[userPhone]
	h.lock.RUnlock()
	if !ok {
		logger.Logger.Debug().Str("user", userPhone).Msg("User offline, result dropped")
		return
	}
	select {
	case client.send <- payload:
	default:
		// 发送缓冲已满，认为连接不健康
		h.unregister <- client
	}
}

// Client 是一个 WebSocket 连接的代表
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	userPhone string
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		// 只消费心跳等控制消息，读出错即断开
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	userPhone := r.URL.Query().Get("userPhone")
	if userPhone == "" {
		http.Error(w, "userPhone is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userPhone: userPhone}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// consumeResults 订阅秒杀结果主题，把结果推给在线用户
func consumeResults(ctx context.Context, hub *Hub, brokers []string) {
	reader := mq.NewKafkaReader(brokers, infrastructure.SeckillResultTopic, nodeID)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Logger.Error().Err(err).Msg("could not read result message")
			continue
		}

		var event domain.SeckillResultNotified
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Logger.Error().Err(err).Msg("failed to unmarshal result event")
			continue
		}
		hub.push(event.UserPhone, msg.Value)
	}
}

func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	hub := newHub()
	go hub.run()
	go consumeResults(context.Background(), hub, cfg.Infra.Kafka.Brokers)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})

	logger.Logger.Info().Str("node", nodeID).Msg("Push Gateway started on :8088")
	if err := http.ListenAndServe(":8088", nil); err != nil {
		logger.Logger.Fatal().Err(err).Msg("ListenAndServe failed")
	}
}
