package http

import (
	"context"
	"net/http"
	"time"

	"daily-quiz-service/internal/auth"
	"daily-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Authenticator is the auth collaborator seen by handlers.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (domain.User, string, error)
	Logout(ctx context.Context, token string) error
	Verify(token string) (*auth.Claims, error)
	User(ctx context.Context, claims *auth.Claims) (domain.User, error)
}

// ClassData is the read side of the data gateway used by REST handlers.
type ClassData interface {
	GetStudents(ctx context.Context, classID string) []domain.User
	GetLeaderboard(ctx context.Context, classID string) []domain.LeaderboardEntry
	GetStreak(ctx context.Context, user domain.User) int
}

// Publisher validates and stores teacher-authored quizzes.
type Publisher interface {
	Publish(ctx context.Context, draft domain.QuizDraft, author domain.User) (domain.Quiz, error)
}

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Auth           Authenticator
	Data           ClassData
	Publisher      Publisher
	WS             *WSHandler
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	LoginPerMinute int
	Log            *zap.Logger
}

// NewRouter mounts the REST API, metrics and the websocket endpoint.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.WS != nil {
		r.Get("/ws", cfg.WS.ServeWS)
	}

	h := &apiHandler{auth: cfg.Auth, data: cfg.Data, publisher: cfg.Publisher, log: log}
	r.Route("/api", func(api chi.Router) {
		api.With(loginLimiter(cfg.LoginPerMinute, time.Minute)).Post("/auth/login", h.login)

		api.Group(func(pr chi.Router) {
			pr.Use(bearerAuth(cfg.Auth))
			pr.Post("/auth/logout", h.logout)
			pr.Get("/me", h.me)

			pr.Route("/teacher", func(tr chi.Router) {
				tr.Use(requireTeacher)
				tr.Post("/quizzes", h.publishQuiz)
				tr.Get("/roster", h.roster)
				tr.Get("/leaderboard", h.leaderboard)
			})
		})
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
