package activity

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/edumeal/edumeal-api/internal/pkg/metrics"
)

const feedChannel = "edumeal:activity"

type feedMessage struct {
	SenderInstanceID string          `json:"sender_instance_id"`
	Entry            json.RawMessage `json:"entry"`
}

// Connection is one feed subscriber.
type Connection struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub broadcasts activity entries to every connected dashboard. With Redis
// configured, entries written by other API instances are relayed too.
type Hub struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	redis  *redis.Client
	pubsub *redis.PubSub

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	instanceID string
}

// NewHub creates a hub. redisClient may be nil.
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  uuid.NewString(),
	}
	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, feedChannel)
	}
	return h
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn] = true
			h.mu.Unlock()
			metrics.ActivitySubscribers.Inc()
			log.Debug().Str("user_id", conn.UserID).Msg("Activity feed client connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn]; ok {
				delete(h.connections, conn)
				close(conn.Send)
				metrics.ActivitySubscribers.Dec()
			}
			h.mu.Unlock()
			log.Debug().Str("user_id", conn.UserID).Msg("Activity feed client disconnected")
		}
	}
}

func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var fm feedMessage
			if err := json.Unmarshal([]byte(msg.Payload), &fm); err != nil {
				continue
			}
			if fm.SenderInstanceID == h.instanceID {
				continue
			}
			h.broadcastLocal(fm.Entry)
		}
	}
}

// Publish implements Publisher.
func (h *Hub) Publish(entry *Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal activity entry")
		return
	}

	h.broadcastLocal(data)

	if h.redis == nil {
		return
	}
	payload, err := json.Marshal(feedMessage{SenderInstanceID: h.instanceID, Entry: data})
	if err != nil {
		return
	}
	if err := h.redis.Publish(h.ctx, feedChannel, payload).Err(); err != nil {
		log.Warn().Err(err).Msg("Activity feed publish failed")
	}
}

// broadcastLocal never blocks: slow clients miss entries.
func (h *Hub) broadcastLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections {
		select {
		case conn.Send <- data:
		default:
			log.Warn().Str("user_id", conn.UserID).Msg("Activity feed send buffer full")
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.ctx.Done():
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.ctx.Done():
	}
}

// ConnectionCount returns number of local connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		delete(h.connections, conn)
		close(conn.Send)
		metrics.ActivitySubscribers.Dec()
	}
}

// Shutdown gracefully shuts down the hub
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}
