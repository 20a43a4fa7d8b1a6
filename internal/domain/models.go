package domain

import (
	"fmt"
	"time"
)

// Subject identifies the daily quiz track a question set belongs to.
type Subject string

const (
	SubjectMath    Subject = "math"
	SubjectScience Subject = "science"
)

// Role separates players from quiz authors.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// DefaultClassID is assigned to profiles that never picked a class.
const DefaultClassID = "classA"

// PointsPerCorrect is awarded for every correctly answered question.
const PointsPerCorrect = 10

// User is the authenticated profile as seen by the quiz core.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
	ClassID     string `json:"classId"`
}

// IsTeacher reports whether the user may author quizzes and read class analytics.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// Question is a multiple choice question with exactly one correct option.
type Question struct {
	Prompt       string   `json:"prompt" yaml:"prompt"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correctIndex" yaml:"correctIndex"`
}

// Validate checks the option count and the correct index bounds.
func (q Question) Validate() error {
	if len(q.Options) < 2 {
		return fmt.Errorf("question %q needs at least two options", q.Prompt)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("question %q: correct index %d out of range", q.Prompt, q.CorrectIndex)
	}
	return nil
}

// Quiz is an ordered collection of questions for one subject.
type Quiz struct {
	Title     string     `json:"title" yaml:"title"`
	Subject   Subject    `json:"subject" yaml:"subject"`
	Questions []Question `json:"questions" yaml:"questions"`
	CreatedBy string     `json:"createdBy,omitempty" yaml:"-"`
	CreatedAt time.Time  `json:"createdAt,omitempty" yaml:"-"`
}

// Playable reports whether the quiz has at least one question.
func (q Quiz) Playable() bool {
	return len(q.Questions) > 0
}

// MaxScore is the score a player earns by answering every question correctly.
func (q Quiz) MaxScore() int {
	return len(q.Questions) * PointsPerCorrect
}

// Progress is the position and accumulated score inside a running quiz.
type Progress struct {
	CurrentIndex int `json:"currentIndex"`
	Score        int `json:"score"`
}

// ProgressRecord is one finished attempt as persisted by the data store.
type ProgressRecord struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	ClassID   string    `json:"classId"`
	Subject   Subject   `json:"subject"`
	Score     int       `json:"score"`
	MaxScore  int       `json:"maxScore"`
	Timestamp time.Time `json:"timestamp"`
}

// ScoreTotal is the summed score of one student across all attempts.
type ScoreTotal struct {
	StudentID string
	Name      string
	Score     int
}

// LeaderboardEntry is a row of the class leaderboard.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// AnswerOutcome summarizes what a single submitted answer did to the session.
type AnswerOutcome struct {
	Correct         bool `json:"correct"`
	Awarded         int  `json:"awarded"`
	Score           int  `json:"score"`
	MeterTerminal   bool `json:"meterTerminal"`
	SessionComplete bool `json:"sessionComplete"`
}

// QuestionDraft is one card of the authoring form as typed by a teacher.
type QuestionDraft struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// QuizDraft is the unvalidated authoring form.
type QuizDraft struct {
	Title     string          `json:"title"`
	Subject   Subject         `json:"subject"`
	Questions []QuestionDraft `json:"questions"`
}
