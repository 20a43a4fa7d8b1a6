package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"daily-quiz-service/internal/config"
	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/infra/postgres"
	infraredis "daily-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout accepted by `seed --file`.
//
//	quizzes:
//	  - day: "2024-03-04"   # optional, defaults to today
//	    title: Fractions
//	    subject: math
//	    questions:
//	      - prompt: "1/2 + 1/4?"
//	        options: ["3/4", "2/6"]
//	        correctIndex: 0
type seedFile struct {
	Quizzes []seedQuiz `yaml:"quizzes"`
}

type seedQuiz struct {
	Day         string `yaml:"day"`
	domain.Quiz `yaml:",inline"`
}

// NewSeedCmd loads daily quizzes from a YAML file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Publish daily quizzes from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runSeed(cmd.Context(), cfg, log, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "quizzes.yaml", "YAML file with quizzes")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, log *zap.Logger, file string) error {
	if cfg.Postgres.URL == "" {
		return errNoPostgres
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	quizzes, err := parseSeed(raw, time.Now().In(cfg.Location()).Format("2006-01-02"))
	if err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	var cache *infraredis.QuizRepository
	if cfg.Redis.Addr != "" {
		client := newRedisClient(cfg)
		defer client.Close()
		cache = infraredis.NewQuizRepository(client, store, 0, log)
	}

	for _, q := range quizzes {
		q.CreatedAt = time.Now()
		if err := store.SaveDailyQuiz(ctx, q.Day, q.Quiz); err != nil {
			return fmt.Errorf("seed %s/%s: %w", q.Subject, q.Day, err)
		}
		if cache != nil {
			cache.Invalidate(ctx, q.Subject, q.Day)
		}
		log.Info("quiz seeded",
			zap.String("subject", string(q.Subject)),
			zap.String("day", q.Day),
			zap.String("title", q.Title),
			zap.Int("questions", len(q.Questions)))
	}
	return nil
}

// parseSeed decodes and checks every quiz; today fills in missing days.
func parseSeed(raw []byte, today string) ([]seedQuiz, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(f.Quizzes) == 0 {
		return nil, fmt.Errorf("seed file has no quizzes")
	}
	for i := range f.Quizzes {
		q := &f.Quizzes[i]
		if q.Day == "" {
			q.Day = today
		}
		if _, err := time.Parse("2006-01-02", q.Day); err != nil {
			return nil, fmt.Errorf("quiz %d: day %q is not YYYY-MM-DD", i, q.Day)
		}
		if q.Title == "" || q.Subject == "" {
			return nil, fmt.Errorf("quiz %d: title and subject are required", i)
		}
		if !q.Playable() {
			return nil, fmt.Errorf("quiz %d: no questions", i)
		}
		for _, question := range q.Questions {
			if err := question.Validate(); err != nil {
				return nil, fmt.Errorf("quiz %d: %w", i, err)
			}
		}
	}
	return f.Quizzes, nil
}
