package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/game"
)

func student() *domain.User {
	return &domain.User{ID: "stu-1", DisplayName: "Ada", Role: domain.RoleStudent, ClassID: domain.DefaultClassID}
}

func startedController(t *testing.T, data *fakeData, subject domain.Subject) (*app.QuizController, *recordingPresenter) {
	t.Helper()
	c := app.NewQuizController(student(), data, nil, nil)
	p := &recordingPresenter{}
	c.Attach(p)
	if err := c.StartSession(context.Background(), subject); err != nil {
		t.Fatalf("start session: %v", err)
	}
	return c, p
}

func TestControllerPlaysQuizToCompletion(t *testing.T) {
	data := &fakeData{quiz: threeQuestions()}
	c, p := startedController(t, data, domain.SubjectScience)
	ctx := context.Background()

	if c.Phase() != app.PhaseInProgress {
		t.Fatalf("expected in progress, got %s", c.Phase())
	}
	for i, chosen := range []int{1, 0, 1} {
		out, err := c.SubmitAnswer(ctx, chosen)
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if !out.Correct || out.Awarded != domain.PointsPerCorrect {
			t.Fatalf("answer %d: unexpected outcome %+v", i, out)
		}
		if out.SessionComplete != (i == 2) {
			t.Fatalf("answer %d: unexpected completion flag %+v", i, out)
		}
		if err := c.PresentNext(); err != nil {
			t.Fatalf("present next: %v", err)
		}
	}

	if c.Phase() != app.PhaseComplete {
		t.Fatalf("expected complete, got %s", c.Phase())
	}
	if len(data.saves) != 1 {
		t.Fatalf("expected exactly one save, got %d", len(data.saves))
	}
	if got := data.saves[0]; got.score != 30 || got.maxScore != 30 || got.subject != domain.SubjectScience || got.user != "stu-1" {
		t.Fatalf("unexpected saved progress: %+v", got)
	}
	if p.count("complete:30/30") != 1 {
		t.Fatalf("expected one completion event, got %v", p.Events())
	}
	if p.count("reset:fill:0") != 1 || p.count("meter:60") != 1 {
		t.Fatalf("expected jar to fill to 60, got %v", p.Events())
	}
	if p.count("terminal:fill") != 0 {
		t.Fatalf("did not expect a full jar after three answers")
	}
	if p.count("question:0")+p.count("question:1")+p.count("question:2") != 3 {
		t.Fatalf("expected each question shown once, got %v", p.Events())
	}
}

func TestControllerWrongAnswersLeaveMeter(t *testing.T) {
	data := &fakeData{quiz: threeQuestions()}
	c, p := startedController(t, data, domain.SubjectMath)

	out, err := c.SubmitAnswer(context.Background(), 0)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if out.Correct || out.Awarded != 0 || out.Score != 0 || out.MeterTerminal {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if p.count("animate:health") != 0 {
		t.Fatalf("wrong answer should not animate the meter: %v", p.Events())
	}
	if vm := c.View(); vm.Meter == nil || vm.Meter.Value != game.MeterMax {
		t.Fatalf("expected full health, got %+v", vm.Meter)
	}
}

func TestControllerOutOfRangeAnswerIsWrong(t *testing.T) {
	data := &fakeData{quiz: threeQuestions()}
	c, _ := startedController(t, data, domain.SubjectMath)

	out, err := c.SubmitAnswer(context.Background(), 7)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if out.Correct {
		t.Fatalf("expected out-of-range index to be wrong")
	}
}

func TestControllerDefeatsDemonOnFifthHit(t *testing.T) {
	quiz := domain.Quiz{Title: "Five", Subject: domain.SubjectMath}
	for i := 0; i < 6; i++ {
		quiz.Questions = append(quiz.Questions, domain.Question{Prompt: "q", Options: []string{"a", "b"}, CorrectIndex: 0})
	}
	c, p := startedController(t, &fakeData{quiz: quiz}, domain.SubjectMath)

	for i := 0; i < 6; i++ {
		out, err := c.SubmitAnswer(context.Background(), 0)
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if want := i >= 4; out.MeterTerminal != want {
			t.Fatalf("answer %d: expected terminal=%v, got %+v", i, want, out)
		}
	}
	if p.count("terminal:health") != 1 {
		t.Fatalf("expected a single terminal signal, got %v", p.Events())
	}
	if p.count("meter:0") != 1 {
		t.Fatalf("expected meter to stop at 0 once, got %v", p.Events())
	}
}

func TestControllerAlreadyAttempted(t *testing.T) {
	data := &fakeData{attempted: true, quiz: threeQuestions()}
	c := app.NewQuizController(student(), data, nil, nil)
	p := &recordingPresenter{}
	c.Attach(p)

	err := c.StartSession(context.Background(), domain.SubjectMath)
	if !errors.Is(err, domain.ErrAlreadyAttempted) {
		t.Fatalf("expected ErrAlreadyAttempted, got %v", err)
	}
	if data.fetches != 0 {
		t.Fatalf("expected no quiz fetch, got %d", data.fetches)
	}
	if c.Phase() != app.PhaseIdle {
		t.Fatalf("expected idle, got %s", c.Phase())
	}
	if len(p.notes) != 1 || p.notes[0].Message != "You have already attempted today's quiz!" || p.notes[0].Level != app.NoticeError {
		t.Fatalf("unexpected notices: %+v", p.notes)
	}
}

func TestControllerAnonymousPlayIsNotSaved(t *testing.T) {
	data := &fakeData{attempted: true, quiz: domain.Quiz{Title: "One", Questions: threeQuestions().Questions[:1]}}
	c := app.NewQuizController(nil, data, nil, nil)
	if err := c.StartSession(context.Background(), domain.SubjectMath); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.SubmitAnswer(context.Background(), 1); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(data.saves) != 0 {
		t.Fatalf("expected no save without a user, got %+v", data.saves)
	}
}

func TestControllerEmptyQuizCompletesImmediately(t *testing.T) {
	data := &fakeData{quiz: domain.Quiz{Title: "Nothing here"}}
	c, p := startedController(t, data, domain.SubjectScience)

	if c.Phase() != app.PhaseComplete {
		t.Fatalf("expected complete, got %s", c.Phase())
	}
	if p.count("complete:0/0") != 1 {
		t.Fatalf("expected 0/0 completion, got %v", p.Events())
	}
	if len(data.saves) != 1 {
		t.Fatalf("expected one save, got %d", len(data.saves))
	}
	if _, err := c.SubmitAnswer(context.Background(), 0); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestControllerSubmitWithoutSession(t *testing.T) {
	c := app.NewQuizController(student(), &fakeData{}, nil, nil)
	if _, err := c.SubmitAnswer(context.Background(), 0); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if err := c.PresentNext(); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession from PresentNext, got %v", err)
	}
}

func TestControllerFallsBackToDemoQuiz(t *testing.T) {
	c, p := startedController(t, &fakeData{}, domain.SubjectMath)
	vm := c.View()
	if vm.Title != "Daily Challenge (Demo)" || vm.MaxScore != 30 {
		t.Fatalf("unexpected view: %+v", vm)
	}
	if vm.Progress != "Question 1 / 3" {
		t.Fatalf("unexpected progress label %q", vm.Progress)
	}
	if p.last.Prompt != "What is 12 x 12?" {
		t.Fatalf("unexpected first question %+v", p.last)
	}
}

func TestControllerEndReturnsToIdle(t *testing.T) {
	c, _ := startedController(t, &fakeData{quiz: threeQuestions()}, domain.SubjectMath)
	c.End()
	if c.Phase() != app.PhaseIdle {
		t.Fatalf("expected idle, got %s", c.Phase())
	}
	if vm := c.View(); vm.Meter != nil || vm.Question != nil {
		t.Fatalf("expected empty view, got %+v", vm)
	}
}

func TestControllerRestartReplacesSession(t *testing.T) {
	data := &fakeData{quiz: threeQuestions()}
	c, _ := startedController(t, data, domain.SubjectMath)
	if _, err := c.SubmitAnswer(context.Background(), 1); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := c.StartSession(context.Background(), domain.SubjectScience); err != nil {
		t.Fatalf("restart: %v", err)
	}
	vm := c.View()
	if vm.Score != 0 || vm.Subject != domain.SubjectScience || vm.Meter.Variant != game.VariantFill {
		t.Fatalf("expected fresh science session, got %+v", vm)
	}
}

// blockingPresenter parks inside MarkAnswer until released.
type blockingPresenter struct {
	recordingPresenter
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPresenter) MarkAnswer(chosen int, correct bool) {
	p.entered <- struct{}{}
	<-p.release
}

func TestControllerRejectsOverlappingAnswers(t *testing.T) {
	c := app.NewQuizController(student(), &fakeData{quiz: threeQuestions()}, nil, nil)
	p := &blockingPresenter{entered: make(chan struct{}), release: make(chan struct{})}
	c.Attach(p)
	if err := c.StartSession(context.Background(), domain.SubjectMath); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitAnswer(context.Background(), 1)
		done <- err
	}()

	select {
	case <-p.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("first answer never reached the presenter")
	}
	if _, err := c.SubmitAnswer(context.Background(), 1); !errors.Is(err, domain.ErrAnswerInFlight) {
		t.Fatalf("expected ErrAnswerInFlight, got %v", err)
	}
	close(p.release)
	if err := <-done; err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if vm := c.View(); vm.Score != 10 {
		t.Fatalf("expected only the first answer scored, got %d", vm.Score)
	}
}

type countingObserver struct {
	started, blocked, answers, completed int
}

func (o *countingObserver) SessionStarted(domain.Subject)             { o.started++ }
func (o *countingObserver) SessionBlocked(domain.Subject)             { o.blocked++ }
func (o *countingObserver) AnswerRecorded(domain.Subject, bool)       { o.answers++ }
func (o *countingObserver) SessionCompleted(domain.Subject, int, int) { o.completed++ }

func TestControllerNotifiesObserver(t *testing.T) {
	obs := &countingObserver{}
	data := &fakeData{quiz: domain.Quiz{Title: "One", Questions: threeQuestions().Questions[:1]}}
	c := app.NewQuizController(student(), data, obs, nil)
	ctx := context.Background()
	if err := c.StartSession(ctx, domain.SubjectMath); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.SubmitAnswer(ctx, 0); err != nil {
		t.Fatalf("answer: %v", err)
	}
	data.attempted = true
	_ = c.StartSession(ctx, domain.SubjectMath)

	if obs.started != 1 || obs.answers != 1 || obs.completed != 1 || obs.blocked != 1 {
		t.Fatalf("unexpected observer counts: %+v", obs)
	}
}
