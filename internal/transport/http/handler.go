package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"bantay-bayan/internal/app"
	"bantay-bayan/internal/domain"
)

// maxBodyBytes bounds request bodies; quizzes may carry data URL images.
const maxBodyBytes = 8 << 20

// Handler serves the learner and admin quiz APIs.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users/quizzes", h.authed(h.listQuizzes))
	mux.HandleFunc("GET /api/users/quizzes/{id}", h.authed(h.playQuiz))
	mux.HandleFunc("POST /api/users/quizzes/{id}/retake", h.authed(h.retakeQuiz))
	mux.HandleFunc("POST /api/users/quizzes/{id}/submit", h.authed(h.submitQuiz))

	mux.HandleFunc("GET /api/admin/quizzes", h.authed(h.adminListQuizzes))
	mux.HandleFunc("POST /api/admin/quizzes", h.authed(h.createQuiz))
	mux.HandleFunc("GET /api/admin/quizzes/{id}", h.authed(h.adminGetQuiz))
	mux.HandleFunc("PUT /api/admin/quizzes/{id}", h.authed(h.updateQuiz))
	mux.HandleFunc("DELETE /api/admin/quizzes/{id}", h.authed(h.deleteQuiz))

	mux.HandleFunc("DELETE /api/auth/session", h.revokeSession)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, caller domain.CallerIdentity)

// authed resolves the bearer token and hands the identity to next explicitly.
func (h *Handler) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := h.service.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r, caller)
	}
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request, caller domain.CallerIdentity) {
	quizzes, err := h.service.ListQuizzes(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) playQuiz(w http.ResponseWriter, r *http.Request, caller domain.CallerIdentity) {
	play, err := h.service.PlayQuiz(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, play)
}

func (h *Handler) retakeQuiz(w http.ResponseWriter, r *http.Request, caller domain.CallerIdentity) {
	play, err := h.service.RetakeQuiz(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, play)
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request, caller domain.CallerIdentity) {
	var submission domain.Submission
	if !decodeBody(w, r, &submission) {
		return
	}
	result, err := h.service.SubmitQuiz(r.Context(), caller, r.PathValue("id"), submission)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) adminListQuizzes(w http.ResponseWriter, r *http.Request, caller domain.CallerIdentity) {
	quizzes, err := h.service.AdminListQuizzes(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) adminGetQuiz(w http.ResponseWriter, r *http.Request, caller domain.CallerIdentity) {
	quiz, err := h.service.AdminGetQuiz(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request, caller domain.CallerIdentity) {
	var input domain.QuizInput
	if !decodeBody(w, r, &input) {
		return
	}
	quiz, err := h.service.CreateQuiz(r.Context(), caller, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) updateQuiz(w http.ResponseWriter, r *http.Request, caller domain.CallerIdentity) {
	var input domain.QuizInput
	if !decodeBody(w, r, &input) {
		return
	}
	quiz, err := h.service.UpdateQuiz(r.Context(), caller, r.PathValue("id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) deleteQuiz(w http.ResponseWriter, r *http.Request, caller domain.CallerIdentity) {
	if err := h.service.DeleteQuiz(r.Context(), caller, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messagePayload{Message: "Quiz deleted successfully"})
}

func (h *Handler) revokeSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	if err := h.service.RevokeSession(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorPayload struct {
	Error string `json:"error"`
}

type messagePayload struct {
	Message string `json:"message"`
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return false
	}
	return true
}

// statusFor maps use case errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSubmission), errors.Is(err, domain.ErrInvalidQuiz):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorPayload{Error: errorMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
