package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/game"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultAdvanceDelay is the pause between an answer's feedback and the next question.
const DefaultAdvanceDelay = 1500 * time.Millisecond

const (
	sendBuffer = 32
	writeWait  = 10 * time.Second
)

type WSHandler struct {
	auth         Authenticator
	registry     *app.ClientRegistry
	advanceDelay time.Duration
	log          *zap.Logger
	upgrader     websocket.Upgrader
}

func NewWSHandler(a Authenticator, registry *app.ClientRegistry, advanceDelay time.Duration, log *zap.Logger) *WSHandler {
	if advanceDelay < 0 {
		advanceDelay = DefaultAdvanceDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		auth:         a,
		registry:     registry,
		advanceDelay: advanceDelay,
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Subject domain.Subject `json:"subject"`
}

type answerPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS authenticates the token query parameter, binds the socket to the
// user's quiz controller and relays play messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.auth.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	user, err := h.auth.User(r.Context(), claims)
	if err != nil {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.log.With(zap.String("user", user.ID))
	controller := h.registry.Client(user).Controller

	send := make(chan outboundMessage[any], sendBuffer)
	done := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					log.Debug("ws write error", zap.Error(err))
					conn.Close()
					return
				}
			case <-done:
				return
			}
		}
	}()

	presenter := newWSPresenter(send, done, func() {
		log.Warn("ws client not reading, closing")
		conn.Close()
	})
	controller.Attach(presenter)
	presenter.emit("state", controller.View())

	var (
		advancing atomic.Bool
		timerMu   sync.Mutex
		timer     *time.Timer
	)
	stopAdvance := func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		timerMu.Unlock()
		advancing.Store(false)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Subject == "" {
				presenter.emit("error", errorPayload{Message: "invalid start payload"})
				continue
			}
			stopAdvance()
			if err := controller.StartSession(r.Context(), payload.Subject); err != nil {
				if !errors.Is(err, domain.ErrAlreadyAttempted) {
					presenter.emit("error", errorPayload{Message: err.Error()})
				}
			}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				presenter.emit("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			if advancing.Load() {
				presenter.emit("error", errorPayload{Message: domain.ErrAnswerInFlight.Error()})
				continue
			}
			outcome, err := controller.SubmitAnswer(r.Context(), payload.Index)
			if err != nil {
				presenter.emit("error", errorPayload{Message: err.Error()})
				continue
			}
			if outcome.SessionComplete {
				continue
			}
			advancing.Store(true)
			timerMu.Lock()
			timer = time.AfterFunc(h.advanceDelay, func() {
				if err := controller.PresentNext(); err != nil {
					log.Debug("present next", zap.Error(err))
				}
				advancing.Store(false)
			})
			timerMu.Unlock()
		default:
			presenter.emit("error", errorPayload{Message: "unsupported message type"})
		}
	}

	stopAdvance()
	close(done)
	controller.Detach(presenter)
	<-writerDone
}

// wsPresenter turns controller and meter callbacks into outbound messages.
// emit never blocks: the controller calls it under its lock, so a full
// buffer drops the client instead of stalling play for that user.
type wsPresenter struct {
	send    chan<- outboundMessage[any]
	done    <-chan struct{}
	stalled func()
	once    sync.Once
}

func newWSPresenter(send chan<- outboundMessage[any], done <-chan struct{}, stalled func()) *wsPresenter {
	return &wsPresenter{send: send, done: done, stalled: stalled}
}

func (p *wsPresenter) emit(kind string, payload any) {
	select {
	case <-p.done:
		return
	default:
	}
	select {
	case p.send <- outboundMessage[any]{Type: kind, Payload: payload}:
	default:
		p.once.Do(p.stalled)
	}
}

type meterPayload struct {
	Variant string `json:"variant"`
}

type meterValuePayload struct {
	Variant string `json:"variant"`
	Value   int    `json:"value"`
}

type markPayload struct {
	Index   int  `json:"index"`
	Correct bool `json:"correct"`
}

type scorePayload struct {
	Score int `json:"score"`
}

type completePayload struct {
	Score    int `json:"score"`
	MaxScore int `json:"maxScore"`
}

func (p *wsPresenter) ShowQuestion(q app.QuestionView) { p.emit("question", q) }

func (p *wsPresenter) MarkAnswer(chosen int, correct bool) {
	p.emit("answerResult", markPayload{Index: chosen, Correct: correct})
}

func (p *wsPresenter) UpdateScore(score int) { p.emit("score", scorePayload{Score: score}) }

func (p *wsPresenter) ShowComplete(score, maxScore int) {
	p.emit("complete", completePayload{Score: score, MaxScore: maxScore})
}

func (p *wsPresenter) Notify(n app.Notice) { p.emit("notice", n) }

func (p *wsPresenter) MeterReset(v game.Variant, value int) {
	p.emit("meterReset", meterValuePayload{Variant: string(v), Value: value})
}

func (p *wsPresenter) MeterAnimate(v game.Variant) {
	p.emit("meterAnimate", meterPayload{Variant: string(v)})
}

func (p *wsPresenter) MeterChanged(v game.Variant, value int) {
	p.emit("meter", meterValuePayload{Variant: string(v), Value: value})
}

func (p *wsPresenter) MeterTerminal(v game.Variant) {
	p.emit("meterTerminal", meterPayload{Variant: string(v)})
}
