package cli

import (
	"fmt"

	"daily-quiz-service/internal/auth"
	"daily-quiz-service/internal/config"
	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewUserCmd groups account management subcommands.
func NewUserCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage player and teacher accounts",
	}
	cmd.AddCommand(newUserAddCmd(configPath))
	return cmd
}

func newUserAddCmd(configPath *string) *cobra.Command {
	var (
		user     domain.User
		role     string
		password string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			if cfg.Postgres.URL == "" {
				return errNoPostgres
			}
			switch domain.Role(role) {
			case domain.RoleStudent, domain.RoleTeacher:
				user.Role = domain.Role(role)
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			a := auth.NewAuthenticator(postgres.NewStore(pool), cfg.Auth.Secret, config.Duration(cfg.Auth.TokenTTL, auth.DefaultTokenTTL), log)
			created, err := a.Register(cmd.Context(), user, password)
			if err != nil {
				return err
			}
			log.Info("user created",
				zap.String("id", created.ID),
				zap.String("email", created.Email),
				zap.String("role", string(created.Role)),
				zap.String("class", created.ClassID))
			return nil
		},
	}
	cmd.Flags().StringVar(&user.Email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	cmd.Flags().StringVar(&user.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&user.ClassID, "class", domain.DefaultClassID, "class id")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleStudent), "student or teacher")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
