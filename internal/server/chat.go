package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type    string `json:"type"` // "ask"
	Content string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type       string `json:"type"` // "answer" or "error"
	Content    string `json:"content"`
	AnswerHTML string `json:"answer_html,omitempty"`
}

// handleWebSocket serves one chat connection. Each connection gets its
// own session with fresh conversation memory, so follow-up questions
// can lean on earlier turns without leaking across clients.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.newSession == nil {
		s.writeError(w, http.StatusNotFound, "chat not available")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	session := s.newSession()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendChatError(conn, "invalid message format")
			continue
		}

		if req.Content == "" {
			s.sendChatError(conn, "content is required")
			continue
		}

		switch req.Type {
		case "ask":
			answer, err := session.HandleQuery(r.Context(), req.Content)
			if err != nil {
				s.sendChatError(conn, "query failed: "+err.Error())
				continue
			}
			s.sendChatResponse(conn, chatResponse{
				Type:       "answer",
				Content:    answer,
				AnswerHTML: s.renderMarkdown(answer),
			})
		default:
			s.sendChatError(conn, "unknown message type: "+req.Type)
		}
	}
}

func (s *Server) sendChatResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}

func (s *Server) sendChatError(conn *websocket.Conn, message string) {
	s.sendChatResponse(conn, chatResponse{Type: "error", Content: message})
}
