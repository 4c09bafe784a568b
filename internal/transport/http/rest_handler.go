package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/domain"
)

const defaultRandomSample = 10

// Handler exposes the engine over plain JSON/HTTP. It is a thin pass-through:
// all decisions live in the app services.
type Handler struct {
	quiz  *app.QuizService
	stats *app.StatsService
}

func NewHandler(quiz *app.QuizService, stats *app.StatsService) *Handler {
	return &Handler{quiz: quiz, stats: stats}
}

// Register wires all routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /questions", h.createQuestion)
	mux.HandleFunc("POST /questions/bulk", h.createQuestionsBulk)
	mux.HandleFunc("GET /questions", h.listQuestions)
	mux.HandleFunc("GET /questions/random", h.randomQuestions)
	mux.HandleFunc("GET /questions/{id}", h.getQuestion)
	mux.HandleFunc("PUT /questions/{id}", h.updateQuestion)
	mux.HandleFunc("DELETE /questions/{id}", h.deactivateQuestion)

	mux.HandleFunc("POST /quiz-sessions", h.startSession)
	mux.HandleFunc("GET /quiz-sessions", h.listSessions)
	mux.HandleFunc("GET /quiz-sessions/{id}", h.getSession)
	mux.HandleFunc("PUT /quiz-sessions/{id}/complete", h.completeSession)
	mux.HandleFunc("PUT /quiz-sessions/{id}/abandon", h.abandonSession)
	mux.HandleFunc("DELETE /quiz-sessions/{id}", h.deleteSession)

	mux.HandleFunc("POST /answers", h.submitAnswer)
	mux.HandleFunc("GET /answers/session/{id}", h.sessionAnswers)
	mux.HandleFunc("GET /answers/{id}", h.getAnswer)
	mux.HandleFunc("PUT /answers/{id}", h.updateAnswer)

	mux.HandleFunc("GET /statistics/global", h.globalStatistics)
	mux.HandleFunc("GET /statistics/session/{id}", h.sessionStatistics)
	mux.HandleFunc("GET /statistics/questions/difficult", h.difficultQuestions)
	mux.HandleFunc("GET /statistics/categories", h.categoryPerformance)
}

type questionRequest struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
	Category     string   `json:"category"`
	Difficulty   string   `json:"difficulty"`
}

func (q questionRequest) toDomain() domain.Question {
	return domain.Question{
		Prompt:       q.Prompt,
		Options:      q.Options,
		CorrectIndex: q.CorrectIndex,
		Explanation:  q.Explanation,
		Category:     q.Category,
		Difficulty:   domain.Difficulty(q.Difficulty),
	}
}

func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !decode(w, r, &req) {
		return
	}
	question, err := h.quiz.CreateQuestion(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *Handler) createQuestionsBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Questions []questionRequest `json:"questions"`
	}
	if !decode(w, r, &req) {
		return
	}
	batch := make([]domain.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		batch = append(batch, q.toDomain())
	}
	created, err := h.quiz.CreateQuestions(r.Context(), batch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	filter := questionFilterFromQuery(r)
	questions, err := h.quiz.ListQuestions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) randomQuestions(w http.ResponseWriter, r *http.Request) {
	filter := questionFilterFromQuery(r)
	n := filter.Limit
	if n <= 0 {
		n = defaultRandomSample
	}
	questions, err := h.quiz.RandomQuestions(r.Context(), n, domain.QuestionFilter{
		Category:   filter.Category,
		Difficulty: filter.Difficulty,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	question, err := h.quiz.GetQuestion(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch domain.QuestionPatch
	if !decode(w, r, &patch) {
		return
	}
	question, err := h.quiz.UpdateQuestion(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) deactivateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.quiz.DeactivateQuestion(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"userName"`
	}
	if !decode(w, r, &req) {
		return
	}
	session, err := h.quiz.StartSession(r.Context(), req.UserName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.SessionFilter{
		State:  domain.SessionState(q.Get("state")),
		Offset: intQuery(q.Get("skip")),
		Limit:  intQuery(q.Get("limit")),
	}
	sessions, err := h.quiz.ListSessions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	session, err := h.quiz.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) completeSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		TotalSeconds *int `json:"totalSeconds"`
	}
	if !decode(w, r, &req) {
		return
	}
	session, err := h.quiz.CompleteSession(r.Context(), id, req.TotalSeconds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) abandonSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	session, err := h.quiz.AbandonSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.quiz.DeleteSession(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID       int64 `json:"sessionId"`
		QuestionID      int64 `json:"questionId"`
		SelectedIndex   int   `json:"selectedIndex"`
		ResponseSeconds *int  `json:"responseSeconds"`
	}
	if !decode(w, r, &req) {
		return
	}
	answer, err := h.quiz.SubmitAnswer(r.Context(), req.SessionID, req.QuestionID, req.SelectedIndex, req.ResponseSeconds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, answer)
}

func (h *Handler) sessionAnswers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	details, err := h.quiz.SessionAnswers(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) getAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.quiz.AnswerDetail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) updateAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		SelectedIndex   *int `json:"selectedIndex"`
		ResponseSeconds *int `json:"responseSeconds"`
	}
	if !decode(w, r, &req) {
		return
	}
	answer, err := h.quiz.UpdateAnswer(r.Context(), id, req.SelectedIndex, req.ResponseSeconds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (h *Handler) globalStatistics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.stats.Global(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) sessionStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	summary, err := h.quiz.SessionScore(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) difficultQuestions(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r.URL.Query().Get("limit"))
	report, err := h.stats.DifficultQuestions(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) categoryPerformance(w http.ResponseWriter, r *http.Request) {
	report, err := h.stats.CategoryPerformance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func questionFilterFromQuery(r *http.Request) domain.QuestionFilter {
	q := r.URL.Query()
	return domain.QuestionFilter{
		Category:   q.Get("category"),
		Difficulty: domain.Difficulty(q.Get("difficulty")),
		Offset:     intQuery(q.Get("skip")),
		Limit:      intQuery(q.Get("limit")),
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func intQuery(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrAnswerNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrDuplicateAnswer),
		errors.Is(err, domain.ErrInvalidDifficulty),
		errors.Is(err, domain.ErrNegativeResponseTime),
		errors.Is(err, domain.ErrNotEnoughQuestions),
		errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrEmptyCategory),
		errors.Is(err, domain.ErrOptionCount):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
