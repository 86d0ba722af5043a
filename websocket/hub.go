package websocket

import (
	"encoding/json"
	"log"
)

// Message is the envelope every client receives.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of connected clients and fans events out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than block the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Broadcast sends a typed event to every connected client.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: eventType, Data: data})
	if err != nil {
		log.Printf("[WS] Failed to marshal %s event: %v", eventType, err)
		return
	}
	h.broadcast <- payload
}
