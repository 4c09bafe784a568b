package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/domain"
)

// WSHandler runs a live quiz session over a websocket: the client submits
// answers and receives the result plus the running score after each one,
// and can finish the session without a second HTTP round trip.
type WSHandler struct {
	quiz     *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(quiz *app.QuizService) *WSHandler {
	return &WSHandler{
		quiz: quiz,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID      int64 `json:"questionId"`
	SelectedIndex   int   `json:"selectedIndex"`
	ResponseSeconds *int  `json:"responseSeconds"`
}

type completePayload struct {
	TotalSeconds *int `json:"totalSeconds"`
}

type answerResult struct {
	QuestionID int64 `json:"questionId"`
	Correct    bool  `json:"correct"`
	Awarded    int   `json:"awarded"`
	Score      int   `json:"score"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives one session's answer loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID, err := strconv.ParseInt(r.URL.Query().Get("sessionId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid sessionId", http.StatusBadRequest)
		return
	}
	if _, err := h.quiz.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	if summary, err := h.quiz.SessionScore(r.Context(), sessionID); err == nil {
		send <- outboundMessage[any]{Type: "score", Payload: summary}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			answer, err := h.quiz.SubmitAnswer(r.Context(), sessionID, payload.QuestionID, payload.SelectedIndex, payload.ResponseSeconds)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			summary, err := h.quiz.SessionScore(r.Context(), sessionID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			awarded := 0
			if answer.Correct {
				awarded = domain.PointsPerCorrectAnswer
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: answerResult{
				QuestionID: payload.QuestionID,
				Correct:    answer.Correct,
				Awarded:    awarded,
				Score:      summary.Score,
			}}
			send <- outboundMessage[any]{Type: "score", Payload: summary}
		case "complete":
			var payload completePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid complete payload"}}
				continue
			}
			session, err := h.quiz.CompleteSession(r.Context(), sessionID, payload.TotalSeconds)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "completed", Payload: session}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}
