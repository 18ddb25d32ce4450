package ws

import (
	"net/http"
	"sync"

	"mealflow/entity"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// OrderHub pushes order events to connected kitchen dashboards so the
// live queue updates without client-side polling. The polling endpoints
// stay available; this is an optional layer on top.
type OrderHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan OrderEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex
}

// OrderEvent is what dashboards receive on create/status change.
type OrderEvent struct {
	Type  string        `json:"type"` // order_created | order_status_changed
	Order *entity.Order `json:"order"`
}

func NewOrderHub() *OrderHub {
	return &OrderHub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan OrderEvent, 32),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

func (h *OrderHub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case evt := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(evt); err != nil {
					log.Warn().Err(err).Msg("ws write error")
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// OrderCreated and OrderStatusChanged satisfy services.OrderNotifier.

func (h *OrderHub) OrderCreated(o *entity.Order) {
	h.publish(OrderEvent{Type: "order_created", Order: o})
}

func (h *OrderHub) OrderStatusChanged(o *entity.Order) {
	h.publish(OrderEvent{Type: "order_status_changed", Order: o})
}

func (h *OrderHub) publish(evt OrderEvent) {
	select {
	case h.broadcast <- evt:
	default:
		// a stalled hub must never block order creation
		log.Warn().Str("type", evt.Type).Msg("order event dropped: hub busy")
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WS route: /ws/orders (admin only, auth enforced by middleware)
func (h *OrderHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	h.register <- conn

	// drain reads so close frames are processed
	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
