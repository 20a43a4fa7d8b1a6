package app_test

import (
	"context"
	"strconv"
	"sync"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/game"
)

// recordingPresenter keeps every event as a short string.
type recordingPresenter struct {
	mu     sync.Mutex
	events []string
	notes  []app.Notice
	last   app.QuestionView
}

func (p *recordingPresenter) record(e string) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *recordingPresenter) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *recordingPresenter) count(e string) int {
	n := 0
	for _, got := range p.Events() {
		if got == e {
			n++
		}
	}
	return n
}

func (p *recordingPresenter) MeterReset(v game.Variant, value int) {
	p.record("reset:" + string(v) + ":" + strconv.Itoa(value))
}
func (p *recordingPresenter) MeterAnimate(v game.Variant) { p.record("animate:" + string(v)) }
func (p *recordingPresenter) MeterChanged(v game.Variant, value int) {
	p.record("meter:" + strconv.Itoa(value))
}
func (p *recordingPresenter) MeterTerminal(v game.Variant) { p.record("terminal:" + string(v)) }
func (p *recordingPresenter) ShowQuestion(q app.QuestionView) {
	p.mu.Lock()
	p.last = q
	p.mu.Unlock()
	p.record("question:" + strconv.Itoa(q.Index))
}
func (p *recordingPresenter) MarkAnswer(chosen int, correct bool) {
	if correct {
		p.record("correct")
		return
	}
	p.record("wrong")
}
func (p *recordingPresenter) UpdateScore(score int) { p.record("score:" + strconv.Itoa(score)) }
func (p *recordingPresenter) ShowComplete(score, maxScore int) {
	p.record("complete:" + strconv.Itoa(score) + "/" + strconv.Itoa(maxScore))
}
func (p *recordingPresenter) Notify(n app.Notice) {
	p.mu.Lock()
	p.notes = append(p.notes, n)
	p.mu.Unlock()
	p.record("notice")
}

// fakeData is an in-test data collaborator.
type fakeData struct {
	mu        sync.Mutex
	attempted bool
	quiz      domain.Quiz
	fetches   int
	saves     []savedProgress
}

type savedProgress struct {
	user     string
	subject  domain.Subject
	score    int
	maxScore int
}

func (d *fakeData) HasAttemptedToday(_ context.Context, user *domain.User, _ domain.Subject) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return user != nil && d.attempted
}

func (d *fakeData) GetDailyQuiz(_ context.Context, subject domain.Subject) domain.Quiz {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetches++
	if d.quiz.Title == "" {
		return app.FallbackQuiz(subject)
	}
	return d.quiz
}

func (d *fakeData) SaveProgress(_ context.Context, user domain.User, subject domain.Subject, score, maxScore int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.saves = append(d.saves, savedProgress{user: user.ID, subject: subject, score: score, maxScore: maxScore})
}
