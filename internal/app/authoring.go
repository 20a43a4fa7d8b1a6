package app

import (
	"context"
	"strings"

	"daily-quiz-service/internal/domain"
)

// RequiredQuestions is the fixed length of a teacher-authored quiz.
const RequiredQuestions = 5

// QuizPublisher persists an authored quiz.
type QuizPublisher interface {
	SaveDailyQuiz(ctx context.Context, quiz domain.Quiz, author domain.User) error
}

// Authoring turns the teacher's form into today's quiz.
type Authoring struct {
	publisher QuizPublisher
}

func NewAuthoring(publisher QuizPublisher) *Authoring {
	return &Authoring{publisher: publisher}
}

// Publish validates the draft and saves it as today's quiz for its subject.
func (a *Authoring) Publish(ctx context.Context, draft domain.QuizDraft, author domain.User) (domain.Quiz, error) {
	if !author.IsTeacher() {
		return domain.Quiz{}, domain.ErrForbidden
	}
	quiz, err := ValidateDraft(draft)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := a.publisher.SaveDailyQuiz(ctx, quiz, author); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// ValidateDraft checks the authoring form and trims every field.
func ValidateDraft(draft domain.QuizDraft) (domain.Quiz, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return domain.Quiz{}, domain.NewValidationError("Please enter a quiz title")
	}
	subject := domain.Subject(strings.TrimSpace(string(draft.Subject)))
	if subject == "" {
		return domain.Quiz{}, domain.NewValidationError("Please choose a subject")
	}
	if len(draft.Questions) != RequiredQuestions {
		return domain.Quiz{}, domain.NewValidationError("Quiz must have exactly 5 questions.")
	}

	questions := make([]domain.Question, 0, len(draft.Questions))
	for _, card := range draft.Questions {
		prompt := strings.TrimSpace(card.Prompt)
		options := make([]string, len(card.Options))
		filled := prompt != "" && len(card.Options) >= 2
		for i, opt := range card.Options {
			options[i] = strings.TrimSpace(opt)
			if options[i] == "" {
				filled = false
			}
		}
		if !filled {
			return domain.Quiz{}, domain.NewValidationError("Please fill out all fields in every question")
		}
		q := domain.Question{Prompt: prompt, Options: options, CorrectIndex: card.Answer}
		if err := q.Validate(); err != nil {
			return domain.Quiz{}, domain.NewValidationError("Please pick a correct answer for every question")
		}
		questions = append(questions, q)
	}

	return domain.Quiz{Title: title, Subject: subject, Questions: questions}, nil
}
