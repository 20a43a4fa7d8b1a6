package app

import "daily-quiz-service/internal/domain"

// FallbackQuiz is served when nobody authored a quiz for today or the store is unreachable.
func FallbackQuiz(subject domain.Subject) domain.Quiz {
	return domain.Quiz{
		Title:   "Daily Challenge (Demo)",
		Subject: subject,
		Questions: []domain.Question{
			{Prompt: "What is 12 x 12?", Options: []string{"120", "144", "124"}, CorrectIndex: 1},
			{Prompt: "Water chemical formula?", Options: []string{"HO2", "H2O", "O2H"}, CorrectIndex: 1},
			{Prompt: "Capital of France?", Options: []string{"London", "Berlin", "Paris"}, CorrectIndex: 2},
		},
	}
}
