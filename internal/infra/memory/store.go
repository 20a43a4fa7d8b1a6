package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"daily-quiz-service/internal/domain"
)

// Store is an in-process implementation of app.Store and auth.UserStore.
// It backs offline runs and tests.
type Store struct {
	mu       sync.RWMutex
	users    map[string]userRecord
	byEmail  map[string]string
	quizzes  map[string]domain.Quiz
	progress []domain.ProgressRecord
}

type userRecord struct {
	user         domain.User
	passwordHash string
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]userRecord),
		byEmail: make(map[string]string),
		quizzes: make(map[string]domain.Quiz),
	}
}

func (s *Store) LoadDailyQuiz(_ context.Context, subject domain.Subject, day string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[cacheKey(subject, day)]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) SaveDailyQuiz(_ context.Context, day string, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[cacheKey(quiz.Subject, day)] = quiz
	return nil
}

func (s *Store) AddProgress(_ context.Context, rec domain.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, rec)
	return nil
}

func (s *Store) CountProgressSince(_ context.Context, studentID string, subject domain.Subject, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.progress {
		if rec.StudentID == studentID && rec.Subject == subject && !rec.Timestamp.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ProgressTimes(_ context.Context, studentID string) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []time.Time
	for _, rec := range s.progress {
		if rec.StudentID == studentID {
			out = append(out, rec.Timestamp)
		}
	}
	return out, nil
}

func (s *Store) StudentsInClass(_ context.Context, classID string) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	students := make([]domain.User, 0)
	for _, rec := range s.users {
		if rec.user.ClassID == classID && rec.user.Role == domain.RoleStudent {
			students = append(students, rec.user)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		return students[i].DisplayName < students[j].DisplayName
	})
	return students, nil
}

func (s *Store) ClassScores(_ context.Context, classID string) ([]domain.ScoreTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := make(map[string]int)
	var order []string
	for _, rec := range s.progress {
		if rec.ClassID != classID {
			continue
		}
		if _, seen := totals[rec.StudentID]; !seen {
			order = append(order, rec.StudentID)
		}
		totals[rec.StudentID] += rec.Score
	}
	out := make([]domain.ScoreTotal, 0, len(order))
	for _, id := range order {
		out = append(out, domain.ScoreTotal{
			StudentID: id,
			Name:      s.users[id].user.DisplayName,
			Score:     totals[id],
		})
	}
	return out, nil
}

func (s *Store) CredentialsByEmail(_ context.Context, email string) (domain.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, "", domain.ErrUserNotFound
	}
	rec := s.users[id]
	return rec.user, rec.passwordHash, nil
}

func (s *Store) UserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return rec.user, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return domain.ErrUserExists
	}
	s.users[user.ID] = userRecord{user: user, passwordHash: passwordHash}
	s.byEmail[email] = user.ID
	return nil
}
