// Package ws streams chat-widget turns over a WebSocket connection.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/brightline-digital/concierge/internal/chat"
)

// Message types exchanged with the widget.
const (
	TypeHello      = "hello"
	TypeHelloAck   = "hello_ack"
	TypeMessage    = "message"
	TypeTyping     = "typing"
	TypeBotMessage = "bot_message"
	TypeError      = "error"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 120 * time.Second
	pingInterval = 30 * time.Second
	turnTimeout  = 60 * time.Second
)

// Frame is the wire format for all widget messages.
type Frame struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text,omitempty"`
	State     string `json:"state,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Server handles WebSocket chat connections.
type Server struct {
	chat     *chat.Engine
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket chat server.
func NewServer(chatEngine *chat.Engine) *Server {
	return &Server{
		chat: chatEngine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Widget is embedded on arbitrary customer pages.
				return true
			},
		},
	}
}

// connection is one widget connection and its bound session.
type connection struct {
	ws        *websocket.Conn
	send      chan Frame
	sessionID string
	closeOnce sync.Once
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := &connection{
		ws:   ws,
		send: make(chan Frame, 16),
	}

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

func (s *Server) readPump(conn *connection) {
	defer func() {
		conn.close()
		conn.ws.Close()
	}()

	conn.ws.SetReadLimit(4096)
	conn.ws.SetReadDeadline(time.Now().Add(readTimeout))
	conn.ws.SetPongHandler(func(string) error {
		conn.ws.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			conn.send <- errorFrame("invalid JSON message")
			continue
		}

		switch frame.Type {
		case TypeHello:
			conn.sessionID = frame.SessionID
			conn.send <- Frame{
				Type:      TypeHelloAck,
				Ts:        time.Now().UnixMilli(),
				SessionID: conn.sessionID,
			}
		case TypeMessage:
			s.handleTurn(conn, frame.Text)
		default:
			conn.send <- errorFrame("unknown message type: " + frame.Type)
		}
	}
}

// handleTurn runs one chat turn synchronously on the read loop: the widget
// disables input while awaiting a reply, so turns never overlap.
func (s *Server) handleTurn(conn *connection, text string) {
	if text == "" {
		conn.send <- errorFrame("text is required")
		return
	}

	conn.send <- Frame{Type: TypeTyping, Ts: time.Now().UnixMilli(), SessionID: conn.sessionID}

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	resp, err := s.chat.HandleMessage(ctx, conn.sessionID, text)
	if err != nil {
		log.Printf("chat turn failed: %v", err)
		conn.send <- errorFrame("failed to process message")
		return
	}

	conn.sessionID = resp.SessionID
	for _, reply := range resp.Replies {
		conn.send <- Frame{
			Type:      TypeBotMessage,
			Ts:        time.Now().UnixMilli(),
			SessionID: resp.SessionID,
			State:     string(resp.State),
			Text:      reply,
		}
	}
}

func (s *Server) writePump(conn *connection) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-conn.send:
			conn.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.ws.WriteJSON(frame); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorFrame(message string) Frame {
	return Frame{
		Type:    TypeError,
		Ts:      time.Now().UnixMilli(),
		Message: message,
	}
}
