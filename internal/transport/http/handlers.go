package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"daily-quiz-service/internal/auth"
	"daily-quiz-service/internal/domain"
	"go.uber.org/zap"
)

type apiHandler struct {
	auth      Authenticator
	data      ClassData
	publisher Publisher
	log       *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type meResponse struct {
	User   domain.User `json:"user"`
	Streak int         `json:"streak"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (h *apiHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.log.Error("login", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *apiHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), tokenFromContext(r.Context())); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) me(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, meResponse{User: user, Streak: h.data.GetStreak(r.Context(), user)})
}

func (h *apiHandler) publishQuiz(w http.ResponseWriter, r *http.Request) {
	author, _ := auth.UserFromContext(r.Context())
	var draft domain.QuizDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quiz, err := h.publisher.Publish(r.Context(), draft, author)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, quiz)
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "teacher role required")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to save quiz")
	}
}

func (h *apiHandler) roster(w http.ResponseWriter, r *http.Request) {
	classID := classParam(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"classId":  classID,
		"students": h.data.GetStudents(r.Context(), classID),
	})
}

func (h *apiHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	classID := classParam(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"classId": classID,
		"entries": h.data.GetLeaderboard(r.Context(), classID),
	})
}

// classParam defaults to the teacher's own class.
func classParam(r *http.Request) string {
	if c := r.URL.Query().Get("classId"); c != "" {
		return c
	}
	user, _ := auth.UserFromContext(r.Context())
	if user.ClassID != "" {
		return user.ClassID
	}
	return domain.DefaultClassID
}

func withToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenCtxKey{}).(string)
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}
