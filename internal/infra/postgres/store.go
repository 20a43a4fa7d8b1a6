package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

// Store keeps users, daily quizzes and progress in Postgres.
// Quizzes are stored as JSONB documents keyed by (subject, day).
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) LoadDailyQuiz(ctx context.Context, subject domain.Subject, day string) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM daily_quizzes WHERE subject=$1 AND day=$2`, string(subject), day).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("load daily quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) SaveDailyQuiz(ctx context.Context, day string, quiz domain.Quiz) error {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO daily_quizzes (subject, day, data, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject, day) DO UPDATE
		SET data = EXCLUDED.data, created_by = EXCLUDED.created_by, created_at = EXCLUDED.created_at`,
		string(quiz.Subject), day, raw, quiz.CreatedBy, quiz.CreatedAt)
	if err != nil {
		return fmt.Errorf("save daily quiz: %w", err)
	}
	return nil
}

func (s *Store) AddProgress(ctx context.Context, rec domain.ProgressRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO progress (id, student_id, class_id, subject, score, max_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.StudentID, rec.ClassID, string(rec.Subject), rec.Score, rec.MaxScore, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("add progress: %w", err)
	}
	return nil
}

func (s *Store) CountProgressSince(ctx context.Context, studentID string, subject domain.Subject, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM progress
		WHERE student_id=$1 AND subject=$2 AND created_at >= $3`,
		studentID, string(subject), since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count progress: %w", err)
	}
	return n, nil
}

func (s *Store) ProgressTimes(ctx context.Context, studentID string) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx, `SELECT created_at FROM progress WHERE student_id=$1 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("progress times: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("scan progress time: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *Store) StudentsInClass(ctx context.Context, classID string) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email, display_name, role, class_id FROM users
		WHERE class_id=$1 AND role=$2
		ORDER BY display_name`, classID, string(domain.RoleStudent))
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, u)
	}
	return students, rows.Err()
}

func (s *Store) ClassScores(ctx context.Context, classID string) ([]domain.ScoreTotal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.student_id, COALESCE(u.display_name, ''), SUM(p.score)
		FROM progress p
		LEFT JOIN users u ON u.id = p.student_id
		WHERE p.class_id=$1
		GROUP BY p.student_id, u.display_name`, classID)
	if err != nil {
		return nil, fmt.Errorf("class scores: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoreTotal
	for rows.Next() {
		var t domain.ScoreTotal
		if err := rows.Scan(&t.StudentID, &t.Name, &t.Score); err != nil {
			return nil, fmt.Errorf("scan class score: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CredentialsByEmail(ctx context.Context, email string) (domain.User, string, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, display_name, role, class_id, password_hash FROM users
		WHERE lower(email)=$1`, strings.ToLower(email))
	var (
		u    domain.User
		role string
		hash string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &role, &u.ClassID, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, "", domain.ErrUserNotFound
		}
		return domain.User{}, "", fmt.Errorf("user by email: %w", err)
	}
	u.Role = domain.Role(role)
	return u, hash, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (domain.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, email, display_name, role, class_id FROM users WHERE id=$1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, user domain.User, passwordHash string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, display_name, role, class_id, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, strings.ToLower(user.Email), user.DisplayName, string(user.Role), user.ClassID, passwordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &role, &u.ClassID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.Role(role)
	return u, nil
}
