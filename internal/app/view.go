package app

import (
	"fmt"

	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/game"
)

// MeterView is the renderable meter.
type MeterView struct {
	Variant  game.Variant `json:"variant"`
	Value    int          `json:"value"`
	Terminal bool         `json:"terminal"`
}

// ViewModel is everything a presentation shell needs to draw the quiz screen.
type ViewModel struct {
	Phase    Phase          `json:"phase"`
	Subject  domain.Subject `json:"subject,omitempty"`
	Title    string         `json:"title,omitempty"`
	Progress string         `json:"progress,omitempty"`
	Score    int            `json:"score"`
	MaxScore int            `json:"maxScore"`
	Question *QuestionView  `json:"question,omitempty"`
	Meter    *MeterView     `json:"meter,omitempty"`
}

// Render is a pure projection of session state and meter.
func Render(phase Phase, subject domain.Subject, state *SessionState, meter *game.Meter) ViewModel {
	vm := ViewModel{Phase: phase, Subject: subject}
	if meter != nil {
		vm.Meter = &MeterView{Variant: meter.Variant(), Value: meter.Value(), Terminal: meter.Terminal()}
	}
	quiz, ok := state.Quiz()
	if !ok {
		return vm
	}
	progress := state.Progress()
	vm.Title = quiz.Title
	vm.Score = progress.Score
	vm.MaxScore = quiz.MaxScore()
	if q, ok := state.CurrentQuestion(); ok {
		vm.Progress = fmt.Sprintf("Question %d / %d", progress.CurrentIndex+1, len(quiz.Questions))
		vm.Question = &QuestionView{
			Index:   progress.CurrentIndex,
			Total:   len(quiz.Questions),
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options...),
		}
	}
	return vm
}
