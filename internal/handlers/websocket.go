package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"wagerpool-backend/internal/middleware"
	"wagerpool-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler pushes game lifecycle events to connected clients.
// It implements services.Broadcaster.
type WebSocketHandler struct {
	hub *WebSocketHub
}

type WebSocketHub struct {
	clients    map[string]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	Principal string
	Conn      *websocket.Conn
}

type Message struct {
	Type      string      `json:"type"`
	Principal string      `json:"principal,omitempty"`
	GameID    string      `json:"game_id,omitempty"`
	Data      interface{} `json:"data"`
}

func NewWebSocketHandler() *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[string]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	principal := middleware.Principal(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		Principal: principal,
		Conn:      conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if msg.Type == "PING" {
			client.Conn.WriteJSON(Message{
				Type: "PONG",
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
		}
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.Principal] = client.Conn
			log.Printf("Client registered: %s", client.Principal)

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.Principal]; ok {
				delete(hub.clients, client.Principal)
				log.Printf("Client unregistered: %s", client.Principal)
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	if message.Principal != "" {
		if conn, ok := hub.clients[message.Principal]; ok {
			conn.WriteJSON(message)
		}
	} else {
		for _, conn := range hub.clients {
			conn.WriteJSON(message)
		}
	}
}

// BroadcastGameEvent sends a transition to the game's player and keeps
// resolved outcomes visible to everyone watching.
func (h *WebSocketHandler) BroadcastGameEvent(eventType string, game *models.Game) {
	msg := &Message{
		Type:   eventType,
		GameID: game.ID,
		Data: gin.H{
			"game_id":   game.ID,
			"game_type": game.GameType,
			"status":    game.Status,
			"won":       game.Won,
			"timestamp": time.Now().Unix(),
		},
	}

	if eventType == "GAME_OPENED" {
		msg.Principal = game.Player
	}

	h.hub.broadcast <- msg
}
