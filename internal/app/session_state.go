package app

import "daily-quiz-service/internal/domain"

// SessionState holds the active quiz and the player's position in it.
// It performs no I/O; the controller owning it serializes access.
type SessionState struct {
	quiz     *domain.Quiz
	progress domain.Progress
}

// StartQuiz replaces any in-flight session and resets progress to the first question.
func (s *SessionState) StartQuiz(quiz domain.Quiz) {
	s.quiz = &quiz
	s.progress = domain.Progress{}
}

// Clear drops the active quiz.
func (s *SessionState) Clear() {
	s.quiz = nil
	s.progress = domain.Progress{}
}

// Quiz returns the active quiz, if any.
func (s *SessionState) Quiz() (domain.Quiz, bool) {
	if s.quiz == nil {
		return domain.Quiz{}, false
	}
	return *s.quiz, true
}

// CurrentQuestion returns the question at the current index.
func (s *SessionState) CurrentQuestion() (domain.Question, bool) {
	if s.quiz == nil || s.progress.CurrentIndex >= len(s.quiz.Questions) {
		return domain.Question{}, false
	}
	return s.quiz.Questions[s.progress.CurrentIndex], true
}

// Advance records the points for the current question and moves to the next one.
// Calling it without an active, incomplete quiz is an orchestration bug and panics.
func (s *SessionState) Advance(points int) {
	if s.quiz == nil {
		panic("session state: advance without an active quiz")
	}
	if s.IsComplete() {
		panic("session state: advance past the last question")
	}
	if points < 0 {
		panic("session state: negative points")
	}
	s.progress.Score += points
	s.progress.CurrentIndex++
}

// IsComplete is true when no quiz is active or every question has been answered.
func (s *SessionState) IsComplete() bool {
	if s.quiz == nil {
		return true
	}
	return s.progress.CurrentIndex >= len(s.quiz.Questions)
}

// Progress returns a copy of the current progress.
func (s *SessionState) Progress() domain.Progress {
	return s.progress
}
