package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/emberlane/storefront-backend/pkg/config"
	"github.com/emberlane/storefront-backend/pkg/logger"
	"github.com/emberlane/storefront-backend/pkg/metrics"
)

// Broadcaster is the publisher surface handed to services that emit events.
type Broadcaster interface {
	Broadcast(event Event)
}

// Hub fans events out to every connected websocket client. Delivery is
// at-most-once: a client whose send buffer is full misses the message.
type Hub struct {
	cfg     config.BusConfig
	logg    *logger.Logger
	metrics *metrics.BusMetrics

	register   chan *client
	unregister chan *client
	broadcast  chan Event

	upgrader websocket.Upgrader
}

// NewHub builds a hub; Run must be started for it to deliver anything.
func NewHub(cfg config.BusConfig, logg *logger.Logger, m *metrics.BusMetrics) (*Hub, error) {
	if cfg.SendBuffer <= 0 {
		return nil, fmt.Errorf("send buffer must be positive")
	}
	return &Hub{
		cfg:        cfg,
		logg:       logg,
		metrics:    m,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 64),
		upgrader: websocket.Upgrader{
			// The feed is public and read-only; any origin may subscribe.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Run owns the client set. It exits when ctx is done, closing every client.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*client]struct{})

	for {
		select {
		case <-ctx.Done():
			for c := range clients {
				close(c.send)
			}
			return

		case c := <-h.register:
			clients[c] = struct{}{}
			h.observeConnected(ctx, len(clients))

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
			h.observeConnected(ctx, len(clients))

		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				if h.logg != nil {
					h.logg.Error(h.logg.WithField(ctx, "event", event.Name), "event not serializable, dropping", err)
				}
				continue
			}
			h.metrics.IncBroadcast(event.Name)
			for c := range clients {
				select {
				case c.send <- payload:
				default:
					// Slow consumer: skip rather than stall the loop.
					h.metrics.IncDropped(event.Name)
					if h.logg != nil {
						h.logg.Warn(h.logg.WithField(ctx, "event", event.Name), "client buffer full, message dropped")
					}
				}
			}
		}
	}
}

// Broadcast queues the event for every connected client. It never blocks the
// caller; when the hub's own queue is full the event is dropped and counted.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.metrics.IncDropped(event.Name)
		if h.logg != nil {
			h.logg.Warn(h.logg.WithField(context.Background(), "event", event.Name), "hub queue full, event dropped")
		}
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		if h.logg != nil {
			h.logg.Warn(h.logg.WithField(r.Context(), "remote", r.RemoteAddr), "websocket upgrade failed")
		}
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
	}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (h *Hub) observeConnected(ctx context.Context, n int) {
	h.metrics.SetConnected("ws", n)
	if h.logg != nil {
		h.logg.Info(h.logg.WithField(ctx, "connected", n), "websocket client count changed")
	}
}
