package auth

import (
	"context"

	"daily-quiz-service/internal/domain"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func UserFromContext(ctx context.Context) (domain.User, bool) {
	if v := ctx.Value(ctxKeyUser); v != nil {
		if u, ok := v.(domain.User); ok {
			return u, true
		}
	}
	return domain.User{}, false
}
