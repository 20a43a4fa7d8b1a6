package http

import (
	"context"
	"io"
	"net/http"
	"testing"

	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/infra/memory"
)

func validDraft() domain.QuizDraft {
	draft := domain.QuizDraft{Title: "Fractions", Subject: domain.SubjectMath}
	for i := 0; i < 5; i++ {
		draft.Questions = append(draft.Questions, domain.QuestionDraft{
			Prompt:  "Question " + string(rune('A'+i)),
			Options: []string{"one", "two", "three"},
			Answer:  1,
		})
	}
	return draft
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	resp := env.do(t, http.MethodGet, "/healthz", "", nil)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected healthz: %d %q", resp.StatusCode, body)
	}
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	resp := env.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "ada@school.test", Password: "nope"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", resp.StatusCode)
	}

	token := env.login(t, "ada@school.test", "ada-pass")

	ctx := context.Background()
	env.gateway.SaveProgress(ctx, domain.User{ID: "stu-1", ClassID: domain.DefaultClassID}, domain.SubjectMath, 30, 30)

	var me meResponse
	decodeBody(t, env.do(t, http.MethodGet, "/api/me", token, nil), &me)
	if me.User.ID != "stu-1" || me.User.DisplayName != "Ada" {
		t.Fatalf("unexpected user: %+v", me.User)
	}
	if me.Streak != 1 {
		t.Fatalf("expected streak 1, got %d", me.Streak)
	}

	resp = env.do(t, http.MethodGet, "/api/me", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	token := env.login(t, "ada@school.test", "ada-pass")

	resp := env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/api/me", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", resp.StatusCode)
	}
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t, envOptions{loginPerMinute: 2})
	var last int
	for i := 0; i < 3; i++ {
		resp := env.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "ada@school.test", Password: "nope"})
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third attempt, got %d", last)
	}
}

func TestPublishQuiz(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	teacher := env.login(t, "tess@school.test", "tess-pass")
	student := env.login(t, "ada@school.test", "ada-pass")

	resp := env.do(t, http.MethodPost, "/api/teacher/quizzes", student, validDraft())
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %d", resp.StatusCode)
	}

	short := validDraft()
	short.Questions = short.Questions[:4]
	var errBody errorPayload
	resp = env.do(t, http.MethodPost, "/api/teacher/quizzes", teacher, short)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &errBody)
	if errBody.Message != "Quiz must have exactly 5 questions." {
		t.Fatalf("unexpected validation message %q", errBody.Message)
	}

	resp = env.do(t, http.MethodPost, "/api/teacher/quizzes", teacher, validDraft())
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	quiz := env.gateway.GetDailyQuiz(context.Background(), domain.SubjectMath)
	if quiz.Title != "Fractions" || len(quiz.Questions) != 5 || quiz.CreatedBy != "tch-1" {
		t.Fatalf("expected published quiz, got %+v", quiz)
	}
}

func TestPublishQuizWriteFailure(t *testing.T) {
	env := newTestEnv(t, envOptions{store: failingQuizStore{memory.NewStore()}})
	teacher := env.login(t, "tess@school.test", "tess-pass")

	resp := env.do(t, http.MethodPost, "/api/teacher/quizzes", teacher, validDraft())
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var errBody errorPayload
	decodeBody(t, resp, &errBody)
	if errBody.Message != "Failed to save quiz" {
		t.Fatalf("unexpected message %q", errBody.Message)
	}
}

func TestRosterAndLeaderboard(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	teacher := env.login(t, "tess@school.test", "tess-pass")

	ctx := context.Background()
	ada := domain.User{ID: "stu-1", ClassID: domain.DefaultClassID}
	bob := domain.User{ID: "stu-2", ClassID: domain.DefaultClassID}
	env.gateway.SaveProgress(ctx, ada, domain.SubjectMath, 20, 30)
	env.gateway.SaveProgress(ctx, bob, domain.SubjectMath, 30, 30)
	env.gateway.SaveProgress(ctx, ada, domain.SubjectScience, 30, 30)

	var roster struct {
		Students []domain.User `json:"students"`
	}
	decodeBody(t, env.do(t, http.MethodGet, "/api/teacher/roster", teacher, nil), &roster)
	if len(roster.Students) != 2 || roster.Students[0].DisplayName != "Ada" {
		t.Fatalf("unexpected roster: %+v", roster.Students)
	}

	var board struct {
		Entries []domain.LeaderboardEntry `json:"entries"`
	}
	decodeBody(t, env.do(t, http.MethodGet, "/api/teacher/leaderboard", teacher, nil), &board)
	if len(board.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", board.Entries)
	}
	if board.Entries[0].Name != "Ada" || board.Entries[0].Score != 50 {
		t.Fatalf("expected Ada first with 50, got %+v", board.Entries[0])
	}
}
