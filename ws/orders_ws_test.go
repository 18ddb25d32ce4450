package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mealflow/entity"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestHubPushesOrderEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewOrderHub()
	go hub.Run()

	r := gin.New()
	r.GET("/ws/orders", hub.HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/orders"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// registration goes through the hub loop; give it a beat
	time.Sleep(50 * time.Millisecond)

	order := &entity.Order{Status: entity.StatusPaid, DisplayCode: "MF241215-001"}
	order.ID = 7
	hub.OrderCreated(order)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt OrderEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.Type != "order_created" || evt.Order == nil || evt.Order.DisplayCode != "MF241215-001" {
		t.Fatalf("event = %+v", evt)
	}

	hub.OrderStatusChanged(order)
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read second event: %v", err)
	}
	if evt.Type != "order_status_changed" {
		t.Fatalf("event type = %s", evt.Type)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewOrderHub() // Run never started: channel fills, then drops

	order := &entity.Order{}
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.OrderCreated(order)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a stalled hub")
	}
}
