package app

import (
	"context"
	"sync"
	"sync/atomic"

	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/game"
	"go.uber.org/zap"
)

// Phase is the lifecycle position of a controller's session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInProgress Phase = "in_progress"
	PhaseComplete   Phase = "complete"
)

// QuizController drives one player's quiz: it fetches the daily quiz, scores
// answers, moves the game meter and persists the final score.
type QuizController struct {
	user     *domain.User
	data     Data
	observer Observer
	log      *zap.Logger

	inFlight atomic.Bool

	mu        sync.Mutex
	presenter Presenter
	state     SessionState
	meter     *game.Meter
	subject   domain.Subject
}

// NewQuizController builds a controller; user may be nil for anonymous play.
func NewQuizController(user *domain.User, data Data, observer Observer, log *zap.Logger) *QuizController {
	if observer == nil {
		observer = nopObserver{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizController{
		user:      user,
		data:      data,
		observer:  observer,
		log:       log,
		presenter: nopPresenter{},
	}
}

// Attach routes future rendering to p; nil detaches.
func (c *QuizController) Attach(p Presenter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p == nil {
		p = nopPresenter{}
	}
	c.presenter = p
}

// Detach unbinds p if it is still the attached presenter. A newer connection keeps its binding.
func (c *QuizController) Detach(p Presenter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.presenter == p {
		c.presenter = nopPresenter{}
	}
}

// StartSession begins today's quiz for subject, replacing any previous session.
func (c *QuizController) StartSession(ctx context.Context, subject domain.Subject) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.user != nil && c.data.HasAttemptedToday(ctx, c.user, subject) {
		c.observer.SessionBlocked(subject)
		c.presenter.Notify(Notice{Level: NoticeError, Message: "You have already attempted today's quiz!"})
		return domain.ErrAlreadyAttempted
	}

	c.meter = game.ForSubject(subject, meterRelay{c})
	c.meter.Start()

	quiz := c.data.GetDailyQuiz(ctx, subject)
	if quiz.Subject == "" {
		quiz.Subject = subject
	}
	c.state.StartQuiz(quiz)
	c.subject = subject
	c.observer.SessionStarted(subject)
	c.log.Debug("quiz session started",
		zap.String("subject", string(subject)),
		zap.String("title", quiz.Title),
		zap.Int("questions", len(quiz.Questions)))

	c.presenter.UpdateScore(0)
	if c.state.IsComplete() {
		c.finalizeLocked(ctx)
		return nil
	}
	c.presentLocked()
	return nil
}

// SubmitAnswer scores the chosen option for the current question.
// Overlapping calls are rejected with domain.ErrAnswerInFlight.
func (c *QuizController) SubmitAnswer(ctx context.Context, chosen int) (domain.AnswerOutcome, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return domain.AnswerOutcome{}, domain.ErrAnswerInFlight
	}
	defer c.inFlight.Store(false)

	c.mu.Lock()
	defer c.mu.Unlock()

	question, ok := c.state.CurrentQuestion()
	if !ok {
		return domain.AnswerOutcome{}, domain.ErrNoActiveSession
	}

	correct := chosen == question.CorrectIndex
	awarded := 0
	if correct {
		awarded = domain.PointsPerCorrect
	}
	c.state.Advance(awarded)
	c.presenter.MarkAnswer(chosen, correct)

	var terminal bool
	if correct {
		terminal = c.meter.OnCorrectAnswer()
	} else {
		c.meter.OnWrongAnswer()
		terminal = c.meter.Terminal()
	}
	c.observer.AnswerRecorded(c.subject, correct)

	score := c.state.Progress().Score
	c.presenter.UpdateScore(score)

	complete := c.state.IsComplete()
	if complete {
		c.finalizeLocked(ctx)
	}
	return domain.AnswerOutcome{
		Correct:         correct,
		Awarded:         awarded,
		Score:           score,
		MeterTerminal:   terminal,
		SessionComplete: complete,
	}, nil
}

// PresentNext renders the current question once the post-answer pause is over.
func (c *QuizController) PresentNext() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.state.Quiz(); !ok {
		return domain.ErrNoActiveSession
	}
	if c.state.IsComplete() {
		return nil
	}
	c.presentLocked()
	return nil
}

// End abandons the current session without saving anything.
func (c *QuizController) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Clear()
	c.meter = nil
	c.subject = ""
}

// Phase reports Idle, InProgress or Complete.
func (c *QuizController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked()
}

// View renders the controller state without touching the presenter.
func (c *QuizController) View() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Render(c.phaseLocked(), c.subject, &c.state, c.meter)
}

func (c *QuizController) phaseLocked() Phase {
	if _, ok := c.state.Quiz(); !ok {
		return PhaseIdle
	}
	if c.state.IsComplete() {
		return PhaseComplete
	}
	return PhaseInProgress
}

func (c *QuizController) presentLocked() {
	quiz, _ := c.state.Quiz()
	question, ok := c.state.CurrentQuestion()
	if !ok {
		return
	}
	c.presenter.ShowQuestion(QuestionView{
		Index:   c.state.Progress().CurrentIndex,
		Total:   len(quiz.Questions),
		Prompt:  question.Prompt,
		Options: append([]string(nil), question.Options...),
	})
}

func (c *QuizController) finalizeLocked(ctx context.Context) {
	quiz, _ := c.state.Quiz()
	score := c.state.Progress().Score
	maxScore := quiz.MaxScore()

	c.presenter.ShowComplete(score, maxScore)
	c.observer.SessionCompleted(c.subject, score, maxScore)
	if c.user != nil {
		c.data.SaveProgress(ctx, *c.user, c.subject, score, maxScore)
	}
}

// meterRelay forwards meter signals to whichever presenter is attached.
// The meter is only driven while c.mu is held.
type meterRelay struct{ c *QuizController }

func (r meterRelay) MeterReset(v game.Variant, value int)   { r.c.presenter.MeterReset(v, value) }
func (r meterRelay) MeterAnimate(v game.Variant)            { r.c.presenter.MeterAnimate(v) }
func (r meterRelay) MeterChanged(v game.Variant, value int) { r.c.presenter.MeterChanged(v, value) }
func (r meterRelay) MeterTerminal(v game.Variant)           { r.c.presenter.MeterTerminal(v) }
