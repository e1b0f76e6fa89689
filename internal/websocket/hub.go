package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type MessageType string

const TypePing MessageType = "ping"

// Message is the envelope for every frame the server pushes.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub tracks live connections per user and fans events out to all of them.
type Hub struct {
	clients map[uuid.UUID]*Client

	// one user may hold several connections (tabs, devices)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	logger *zap.Logger
	gauge  prometheus.Gauge

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(logger *zap.Logger, gauge prometheus.Gauge) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		logger:      logger.Named("ws"),
		gauge:       gauge,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run processes registrations until Stop is called.
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop closes every connection and ends Run.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
		delete(h.clients, id)
		h.gauge.Dec()
	}
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) error {
	if h.ctx.Err() != nil {
		return ErrHubStopped
	}
	select {
	case h.register <- client:
		return nil
	case <-h.ctx.Done():
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client
	h.gauge.Inc()

	h.logger.Debug("client registered",
		zap.String("client", client.ID.String()),
		zap.String("user", client.UserID.String()))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}
	delete(h.clients, client.ID)
	close(client.Send)
	h.gauge.Dec()

	h.logger.Debug("client unregistered",
		zap.String("client", client.ID.String()),
		zap.String("user", client.UserID.String()))
}

// SendToUser queues a raw frame on every connection of userID. Slow
// connections drop the frame rather than block the sender.
func (h *Hub) SendToUser(userID uuid.UUID, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userClients[userID] {
		select {
		case client.Send <- frame:
		default:
			h.logger.Warn("dropping frame", zap.String("client", client.ID.String()), zap.Error(ErrClientQueueFull))
		}
	}
}

// Notify wraps payload in an envelope of the given type and sends it to
// userID. Push is best effort: encoding failures are logged and dropped.
func (h *Hub) Notify(userID uuid.UUID, event string, payload interface{}) {
	frame, err := encode(MessageType(event), payload)
	if err != nil {
		h.logger.Error("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	h.SendToUser(userID, frame)
}

func (h *Hub) ping() {
	frame, err := encode(TypePing, nil)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- frame:
		default:
		}
	}
}

func encode(t MessageType, payload interface{}) ([]byte, error) {
	msg := Message{Type: t, Timestamp: time.Now().UTC()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Data = data
	}
	return json.Marshal(msg)
}
