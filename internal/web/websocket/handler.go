package websocket

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the panel is read-only, any origin may watch
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler handles WebSocket connections
func WebSocketHandler(hub *Hub, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Errorf("Failed to upgrade connection to WebSocket: %v", err)
			return
		}

		client := &Client{
			ID:      uuid.New().String(),
			Hub:     hub,
			Send:    make(chan []byte, 256),
			closeCh: make(chan struct{}),
		}

		client.Hub.register <- client

		go writePump(client, conn, log)
		go readPump(client, conn, log)

		log.WithField("client", client.ID).Debug("New WebSocket connection established")
	}
}

// readPump drains the connection so pongs and close frames are processed
func readPump(client *Client, conn *websocket.Conn, log *logrus.Logger) {
	defer func() {
		client.Hub.unregister <- client
		close(client.closeCh)
		conn.Close()
		log.WithField("client", client.ID).Debug("WebSocket connection closed")
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Errorf("WebSocket read error: %v", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func writePump(client *Client, conn *websocket.Conn, log *logrus.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// one event per frame so clients can decode each frame as JSON
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Errorf("Error writing message: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Errorf("Error sending ping: %v", err)
				return
			}
		case <-client.closeCh:
			return
		}
	}
}
