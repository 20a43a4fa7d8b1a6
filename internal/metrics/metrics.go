package metrics

import (
	"strconv"

	"daily-quiz-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Quiz counts session lifecycle events. It satisfies app.Observer.
type Quiz struct {
	SessionsStarted   *prometheus.CounterVec
	SessionsBlocked   *prometheus.CounterVec
	SessionsCompleted *prometheus.CounterVec
	Answers           *prometheus.CounterVec
	ScoreRatio        *prometheus.HistogramVec
}

// NewQuiz creates the collectors and registers them on reg.
func NewQuiz(reg prometheus.Registerer) *Quiz {
	m := &Quiz{
		SessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_sessions_started_total",
				Help: "Quiz sessions started",
			},
			[]string{"subject"},
		),
		SessionsBlocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_sessions_blocked_total",
				Help: "Session starts refused because today's quiz was already attempted",
			},
			[]string{"subject"},
		),
		SessionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_sessions_completed_total",
				Help: "Quiz sessions played to the last question",
			},
			[]string{"subject"},
		),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_answers_total",
				Help: "Answers submitted",
			},
			[]string{"subject", "correct"},
		),
		ScoreRatio: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quiz_score_ratio",
				Help:    "Final score divided by max score",
				Buckets: []float64{0, 0.2, 0.4, 0.6, 0.8, 1},
			},
			[]string{"subject"},
		),
	}
	reg.MustRegister(m.SessionsStarted, m.SessionsBlocked, m.SessionsCompleted, m.Answers, m.ScoreRatio)
	return m
}

func (m *Quiz) SessionStarted(subject domain.Subject) {
	m.SessionsStarted.WithLabelValues(string(subject)).Inc()
}

func (m *Quiz) SessionBlocked(subject domain.Subject) {
	m.SessionsBlocked.WithLabelValues(string(subject)).Inc()
}

func (m *Quiz) AnswerRecorded(subject domain.Subject, correct bool) {
	m.Answers.WithLabelValues(string(subject), strconv.FormatBool(correct)).Inc()
}

func (m *Quiz) SessionCompleted(subject domain.Subject, score, maxScore int) {
	m.SessionsCompleted.WithLabelValues(string(subject)).Inc()
	if maxScore > 0 {
		m.ScoreRatio.WithLabelValues(string(subject)).Observe(float64(score) / float64(maxScore))
	}
}
