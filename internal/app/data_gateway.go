package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LeaderboardSize caps the class leaderboard.
const LeaderboardSize = 10

const dayLayout = "2006-01-02"

// DataGateway is the data collaborator used by controllers and teacher handlers.
// Reads degrade to safe defaults (fallback quiz, false, empty lists); only quiz
// authoring surfaces write failures.
type DataGateway struct {
	store   Store
	quizzes QuizRepository
	log     *zap.Logger
	loc     *time.Location
	now     func() time.Time
}

func NewDataGateway(store Store, quizzes QuizRepository, log *zap.Logger, loc *time.Location) *DataGateway {
	return NewDataGatewayWithClock(store, quizzes, log, loc, time.Now)
}

// NewDataGatewayWithClock is used by tests for deterministic days.
func NewDataGatewayWithClock(store Store, quizzes QuizRepository, log *zap.Logger, loc *time.Location, now func() time.Time) *DataGateway {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DataGateway{store: store, quizzes: quizzes, log: log, loc: loc, now: now}
}

// Today returns the day key quizzes are published under.
func (g *DataGateway) Today() string {
	return g.now().In(g.loc).Format(dayLayout)
}

func (g *DataGateway) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(g.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, g.loc)
}

// GetDailyQuiz always resolves: the authored quiz for today, or the built-in fallback.
func (g *DataGateway) GetDailyQuiz(ctx context.Context, subject domain.Subject) domain.Quiz {
	day := g.Today()
	quiz, err := g.quizzes.GetDailyQuiz(ctx, subject, day)
	if err == nil && quiz.Playable() {
		if quiz.Subject == "" {
			quiz.Subject = subject
		}
		return quiz
	}
	if err != nil && !errors.Is(err, domain.ErrQuizNotFound) {
		g.log.Error("fetch daily quiz", zap.String("subject", string(subject)), zap.String("day", day), zap.Error(err))
	}
	return FallbackQuiz(subject)
}

// SaveDailyQuiz publishes the quiz for today and drops the cached copy.
func (g *DataGateway) SaveDailyQuiz(ctx context.Context, quiz domain.Quiz, author domain.User) error {
	day := g.Today()
	quiz.CreatedBy = author.ID
	quiz.CreatedAt = g.now()
	if err := g.store.SaveDailyQuiz(ctx, day, quiz); err != nil {
		g.log.Error("save daily quiz", zap.String("subject", string(quiz.Subject)), zap.String("author", author.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrWrite, err)
	}
	g.quizzes.Invalidate(ctx, quiz.Subject, day)
	g.log.Info("daily quiz published", zap.String("subject", string(quiz.Subject)), zap.String("day", day), zap.String("author", author.ID))
	return nil
}

// SaveProgress records a finished attempt. Failures are logged, never returned.
func (g *DataGateway) SaveProgress(ctx context.Context, user domain.User, subject domain.Subject, score, maxScore int) {
	rec := domain.ProgressRecord{
		ID:        uuid.NewString(),
		StudentID: user.ID,
		ClassID:   user.ClassID,
		Subject:   subject,
		Score:     score,
		MaxScore:  maxScore,
		Timestamp: g.now(),
	}
	if err := g.store.AddProgress(ctx, rec); err != nil {
		g.log.Error("save progress", zap.String("student", user.ID), zap.String("subject", string(subject)), zap.Error(err))
	}
}

// HasAttemptedToday reports a progress record for the subject since local midnight.
func (g *DataGateway) HasAttemptedToday(ctx context.Context, user *domain.User, subject domain.Subject) bool {
	if user == nil {
		return false
	}
	n, err := g.store.CountProgressSince(ctx, user.ID, subject, g.startOfDay(g.now()))
	if err != nil {
		g.log.Error("check attempt", zap.String("student", user.ID), zap.Error(err))
		return false
	}
	return n > 0
}

// GetStudents lists the students of a class.
func (g *DataGateway) GetStudents(ctx context.Context, classID string) []domain.User {
	students, err := g.store.StudentsInClass(ctx, classID)
	if err != nil {
		g.log.Error("list students", zap.String("class", classID), zap.Error(err))
		return []domain.User{}
	}
	return students
}

// GetLeaderboard sums every student's scores, highest first, capped at LeaderboardSize.
func (g *DataGateway) GetLeaderboard(ctx context.Context, classID string) []domain.LeaderboardEntry {
	totals, err := g.store.ClassScores(ctx, classID)
	if err != nil {
		g.log.Error("class leaderboard", zap.String("class", classID), zap.Error(err))
		return []domain.LeaderboardEntry{}
	}
	entries := make([]domain.LeaderboardEntry, 0, len(totals))
	for _, t := range totals {
		name := t.Name
		if name == "" {
			name = "Unknown"
		}
		entries = append(entries, domain.LeaderboardEntry{Name: name, Score: t.Score})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > LeaderboardSize {
		entries = entries[:LeaderboardSize]
	}
	return entries
}

// GetStreak counts consecutive days with at least one attempt, ending today.
// A streak still counts through yesterday until today's quiz is played.
func (g *DataGateway) GetStreak(ctx context.Context, user domain.User) int {
	times, err := g.store.ProgressTimes(ctx, user.ID)
	if err != nil {
		g.log.Error("streak", zap.String("student", user.ID), zap.Error(err))
		return 0
	}
	days := make(map[string]struct{}, len(times))
	for _, t := range times {
		days[t.In(g.loc).Format(dayLayout)] = struct{}{}
	}

	day := g.startOfDay(g.now())
	if _, ok := days[day.Format(dayLayout)]; !ok {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for {
		if _, ok := days[day.Format(dayLayout)]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}
