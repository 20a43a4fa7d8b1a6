package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/auth"
	"daily-quiz-service/internal/config"
	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/infra/memory"
	"daily-quiz-service/internal/infra/postgres"
	infraredis "daily-quiz-service/internal/infra/redis"
	"daily-quiz-service/internal/metrics"
	transport "daily-quiz-service/internal/transport/http"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runServer(cmd.Context(), cfg, log, *port)
		},
	}
}

// userStore is what both the data gateway and the authenticator need.
type userStore interface {
	app.Store
	auth.UserStore
}

func runServer(ctx context.Context, cfg config.Config, log *zap.Logger, portFlag string) error {
	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var store userStore
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = postgres.NewStore(pool)
	} else {
		log.Warn("postgres not configured, using in-memory store")
		store = memory.NewStore()
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		if cfg.Postgres.URL != "" {
			return errors.New("auth.secret must be set when postgres is configured")
		}
		secret = uuid.NewString()
		log.Warn("auth.secret not set, tokens will not survive a restart")
	}
	authenticator := auth.NewAuthenticator(store, secret, config.Duration(cfg.Auth.TokenTTL, auth.DefaultTokenTTL), log.Named("auth"))
	if cfg.Postgres.URL == "" {
		if err := registerDemoUsers(ctx, authenticator, log); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = newRedisClient(cfg)
		defer redisClient.Close()
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 30*time.Minute)
	quizTTL := config.Duration(cfg.Quiz.TTL, 10*time.Minute)

	var quizRepo app.QuizRepository
	var clients app.ClientStore
	if redisClient != nil {
		quizRepo = infraredis.NewQuizRepository(redisClient, store, quizTTL, log.Named("quiz-cache"))
		clients = infraredis.NewClientStore(redisClient, redisTTL, log.Named("clients"))
	} else {
		quizRepo = memory.NewQuizRepository(store, quizTTL)
		clients = memory.NewClientStore()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	quizMetrics := metrics.NewQuiz(reg)

	gateway := app.NewDataGateway(store, quizRepo, log.Named("data"), cfg.Location())
	registry := app.NewClientRegistry(clients, gateway, quizMetrics, log.Named("quiz"))
	authenticator.OnAuthChange(registry.HandleAuthChange)

	advanceDelay := config.Duration(cfg.Quiz.AdvanceDelay, transport.DefaultAdvanceDelay)
	router := transport.NewRouter(transport.RouterConfig{
		Auth:           authenticator,
		Data:           gateway,
		Publisher:      app.NewAuthoring(gateway),
		WS:             transport.NewWSHandler(authenticator, registry, advanceDelay, log.Named("ws")),
		Gatherer:       reg,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		LoginPerMinute: cfg.RateLimit.LoginPerMinute,
		Log:            log.Named("http"),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// registerDemoUsers gives an in-memory run one account per role.
func registerDemoUsers(ctx context.Context, a *auth.Authenticator, log *zap.Logger) error {
	demo := []struct {
		user     domain.User
		password string
	}{
		{domain.User{Email: "teacher@example.com", DisplayName: "Demo Teacher", Role: domain.RoleTeacher}, "teacher"},
		{domain.User{Email: "student@example.com", DisplayName: "Demo Student", Role: domain.RoleStudent}, "student"},
	}
	for _, d := range demo {
		if _, err := a.Register(ctx, d.user, d.password); err != nil {
			return err
		}
		log.Info("demo account", zap.String("email", d.user.Email), zap.String("role", string(d.user.Role)))
	}
	return nil
}
