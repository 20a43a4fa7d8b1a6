package app

import (
	"context"
	"time"

	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/game"
)

// Store abstracts the document store behind the data gateway (in-memory, Postgres).
type Store interface {
	LoadDailyQuiz(ctx context.Context, subject domain.Subject, day string) (domain.Quiz, error)
	SaveDailyQuiz(ctx context.Context, day string, quiz domain.Quiz) error
	AddProgress(ctx context.Context, rec domain.ProgressRecord) error
	CountProgressSince(ctx context.Context, studentID string, subject domain.Subject, since time.Time) (int, error)
	ProgressTimes(ctx context.Context, studentID string) ([]time.Time, error)
	StudentsInClass(ctx context.Context, classID string) ([]domain.User, error)
	ClassScores(ctx context.Context, classID string) ([]domain.ScoreTotal, error)
}

// QuizRepository serves daily quizzes from a cache in front of the store.
type QuizRepository interface {
	GetDailyQuiz(ctx context.Context, subject domain.Subject, day string) (domain.Quiz, error)
	Invalidate(ctx context.Context, subject domain.Subject, day string)
}

// Data is what a quiz controller needs from the data gateway.
type Data interface {
	HasAttemptedToday(ctx context.Context, user *domain.User, subject domain.Subject) bool
	GetDailyQuiz(ctx context.Context, subject domain.Subject) domain.Quiz
	SaveProgress(ctx context.Context, user domain.User, subject domain.Subject, score, maxScore int)
}

// NoticeLevel is the tone of a transient notification.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a transient toast shown to the player.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// QuestionView is the renderable form of the current question.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// Presenter renders quiz events for one player (websocket, terminal, test harness).
type Presenter interface {
	game.Presenter
	ShowQuestion(q QuestionView)
	MarkAnswer(chosen int, correct bool)
	UpdateScore(score int)
	ShowComplete(score, maxScore int)
	Notify(n Notice)
}

// Observer is told about session lifecycle events (metrics).
type Observer interface {
	SessionStarted(subject domain.Subject)
	SessionBlocked(subject domain.Subject)
	AnswerRecorded(subject domain.Subject, correct bool)
	SessionCompleted(subject domain.Subject, score, maxScore int)
}

// ClientStore keeps one client context per signed-in user (in-memory, Redis-marked).
type ClientStore interface {
	GetOrCreate(userID string, build func() *Client) *Client
	Get(userID string) (*Client, bool)
	Delete(userID string)
}

type nopPresenter struct{}

func (nopPresenter) MeterReset(game.Variant, int)   {}
func (nopPresenter) MeterAnimate(game.Variant)      {}
func (nopPresenter) MeterChanged(game.Variant, int) {}
func (nopPresenter) MeterTerminal(game.Variant)     {}
func (nopPresenter) ShowQuestion(QuestionView)      {}
func (nopPresenter) MarkAnswer(int, bool)           {}
func (nopPresenter) UpdateScore(int)                {}
func (nopPresenter) ShowComplete(int, int)          {}
func (nopPresenter) Notify(Notice)                  {}

type nopObserver struct{}

func (nopObserver) SessionStarted(domain.Subject)             {}
func (nopObserver) SessionBlocked(domain.Subject)             {}
func (nopObserver) AnswerRecorded(domain.Subject, bool)       {}
func (nopObserver) SessionCompleted(domain.Subject, int, int) {}
