package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/AaronLay10/ScenarioEngine/internal/events"
	"github.com/gorilla/websocket"
)

const (
	// recent events replayed on connect
	recentEventsCount = 50

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second // must be less than pongWait
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Access is gated by RequireAnyRole, not by origin.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsEventsHandler streams events to a WebSocket client. An optional
// ?prefix= query keeps only events whose name starts with it, e.g.
// "element." for lifecycle changes only.
func wsEventsHandler(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	sub := events.Subscribe()
	closeConn := func() {
		events.Unsubscribe(sub)
		conn.Close()
	}

	send := func(e events.Event) error {
		if prefix != "" && !strings.HasPrefix(e.Name, prefix) {
			return nil
		}
		data, err := json.Marshal(e)
		if err != nil {
			return nil
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	for _, e := range events.RecentEvents(recentEventsCount) {
		if err := send(e); err != nil {
			log.Printf("ws write recent event failed: %v", err)
			closeConn()
			return
		}
	}

	done := make(chan struct{})

	// reader: pongs and close frames
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			closeConn()
			return

		case e, ok := <-sub:
			if !ok {
				// closed by CloseAllSubscribers on shutdown
				conn.Close()
				return
			}
			if err := send(e); err != nil {
				log.Printf("ws write event failed: %v", err)
				closeConn()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				closeConn()
				return
			}
		}
	}
}
