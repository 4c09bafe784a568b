package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/domain"
	"quiz-scoring-service/internal/infra/memory"
)

type wsFixture struct {
	server   *httptest.Server
	quiz     *app.QuizService
	question domain.Question
	session  domain.QuizSession
}

func newWSFixture(t *testing.T) wsFixture {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewRepository()
	quiz := app.NewQuizService(repo, repo, repo)

	question, err := quiz.CreateQuestion(ctx, domain.Question{
		Prompt:       "Pick B",
		Options:      []string{"A", "B", "C"},
		CorrectIndex: 1,
		Category:     "general",
		Difficulty:   domain.DifficultyEasy,
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	session, err := quiz.StartSession(ctx, "alice")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(quiz).ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return wsFixture{server: server, quiz: quiz, question: question, session: session}
}

func dialWS(t *testing.T, f wsFixture, sessionID int64) *websocket.Conn {
	t.Helper()
	url := fmt.Sprintf("%s/ws?sessionId=%d", strings.Replace(f.server.URL, "http", "ws", 1), sessionID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	var env wsEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(wsEnvelope{Type: msgType, Payload: raw}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWSAnswerAndComplete(t *testing.T) {
	f := newWSFixture(t)
	conn := dialWS(t, f, f.session.ID)

	// Initial score snapshot.
	if env := readEnvelope(t, conn); env.Type != "score" {
		t.Fatalf("expected initial score, got %q", env.Type)
	}

	sendEnvelope(t, conn, "answer", map[string]any{
		"questionId":      f.question.ID,
		"selectedIndex":   1,
		"responseSeconds": 4,
	})

	env := readEnvelope(t, conn)
	if env.Type != "answerResult" {
		t.Fatalf("expected answerResult, got %q", env.Type)
	}
	var result answerResult
	if err := json.Unmarshal(env.Payload, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !result.Correct || result.Awarded != 10 || result.Score != 10 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if env := readEnvelope(t, conn); env.Type != "score" {
		t.Fatalf("expected score after answer, got %q", env.Type)
	}

	sendEnvelope(t, conn, "complete", map[string]any{"totalSeconds": 30})
	env = readEnvelope(t, conn)
	if env.Type != "completed" {
		t.Fatalf("expected completed, got %q", env.Type)
	}
	var session domain.QuizSession
	if err := json.Unmarshal(env.Payload, &session); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if session.State != domain.SessionCompleted || session.Score != 10 {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestWSDuplicateAnswerReportsError(t *testing.T) {
	f := newWSFixture(t)
	conn := dialWS(t, f, f.session.ID)
	readEnvelope(t, conn) // initial score

	payload := map[string]any{"questionId": f.question.ID, "selectedIndex": 0}
	sendEnvelope(t, conn, "answer", payload)
	readEnvelope(t, conn) // answerResult
	readEnvelope(t, conn) // score

	sendEnvelope(t, conn, "answer", payload)
	if env := readEnvelope(t, conn); env.Type != "error" {
		t.Fatalf("expected error on duplicate, got %q", env.Type)
	}
}

func TestWSRejectsUnknownSession(t *testing.T) {
	f := newWSFixture(t)
	url := fmt.Sprintf("%s/ws?sessionId=999", strings.Replace(f.server.URL, "http", "ws", 1))
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial failure for unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", resp)
	}
}
