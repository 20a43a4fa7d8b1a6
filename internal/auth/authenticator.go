package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer = "daily-quiz-service"
	// DefaultTokenTTL matches a school day of play.
	DefaultTokenTTL = 8 * time.Hour
)

// ErrInvalidToken is returned for malformed, expired or revoked tokens.
var ErrInvalidToken = errors.New("invalid token")

// UserStore is where credentials live (memory or Postgres).
type UserStore interface {
	CredentialsByEmail(ctx context.Context, email string) (domain.User, string, error)
	UserByID(ctx context.Context, id string) (domain.User, error)
	CreateUser(ctx context.Context, user domain.User, passwordHash string) error
}

// Claims carried by every access token.
type Claims struct {
	Sub     string `json:"sub"`
	Role    string `json:"role"`
	ClassID string `json:"classId"`
	jwt.RegisteredClaims
}

// Authenticator signs users in and out and notifies subscribers of both.
type Authenticator struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	cost   int
	log    *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	revoked   map[string]time.Time
	listeners []func(domain.User, bool)
}

func NewAuthenticator(users UserStore, secret string, ttl time.Duration, log *zap.Logger) *Authenticator {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{
		users:   users,
		secret:  []byte(secret),
		ttl:     ttl,
		cost:    bcrypt.DefaultCost,
		log:     log,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// OnAuthChange registers fn for sign-in (true) and sign-out (false) events.
func (a *Authenticator) OnAuthChange(fn func(user domain.User, signedIn bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Login checks the password and issues a token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (a *Authenticator) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.User{}, "", fmt.Errorf("%w: please enter credentials", domain.ErrInvalidCredentials)
	}
	user, hash, err := a.users.CredentialsByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			a.log.Error("load credentials", zap.Error(err))
		}
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	token, err := a.issue(user)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	a.log.Info("user signed in", zap.String("user", user.ID), zap.String("role", string(user.Role)))
	a.notify(user, true)
	return user, token, nil
}

// Logout revokes the token and signs its user out.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	claims, err := a.Verify(token)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.revoked[claims.ID] = claims.ExpiresAt.Time
	a.pruneLocked()
	a.mu.Unlock()

	user, err := a.users.UserByID(ctx, claims.Sub)
	if err != nil {
		user = domain.User{ID: claims.Sub, Role: domain.Role(claims.Role), ClassID: claims.ClassID}
	}
	a.log.Info("user signed out", zap.String("user", user.ID))
	a.notify(user, false)
	return nil
}

// Verify parses an HS256 token and rejects revoked ones.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Sub == "" {
		return nil, ErrInvalidToken
	}
	a.mu.Lock()
	_, revoked := a.revoked[claims.ID]
	a.mu.Unlock()
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// User resolves the profile behind verified claims.
func (a *Authenticator) User(ctx context.Context, claims *Claims) (domain.User, error) {
	return a.users.UserByID(ctx, claims.Sub)
}

// Register stores a new account with a bcrypt hash of password.
func (a *Authenticator) Register(ctx context.Context, user domain.User, password string) (domain.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: email and password are required", domain.ErrInvalidCredentials)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleStudent
	}
	if user.ClassID == "" {
		user.ClassID = domain.DefaultClassID
	}
	user.DisplayName = strings.TrimSpace(user.DisplayName)
	if user.DisplayName == "" {
		user.DisplayName, _, _ = strings.Cut(user.Email, "@")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	if err := a.users.CreateUser(ctx, user, string(hash)); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (a *Authenticator) issue(user domain.User) (string, error) {
	now := a.now()
	claims := &Claims{
		Sub:     user.ID,
		Role:    string(user.Role),
		ClassID: user.ClassID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) notify(user domain.User, signedIn bool) {
	a.mu.Lock()
	listeners := append([]func(domain.User, bool){}, a.listeners...)
	a.mu.Unlock()
	for _, fn := range listeners {
		fn(user, signedIn)
	}
}

// pruneLocked forgets revocations whose tokens have expired anyway.
func (a *Authenticator) pruneLocked() {
	now := a.now()
	for id, exp := range a.revoked {
		if exp.Before(now) {
			delete(a.revoked, id)
		}
	}
}
