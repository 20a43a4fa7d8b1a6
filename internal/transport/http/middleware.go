package http

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"daily-quiz-service/internal/auth"
	"golang.org/x/time/rate"
)

type tokenCtxKey struct{}

func bearerAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			token := strings.TrimPrefix(h, "Bearer ")
			claims, err := a.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			user, err := a.User(r.Context(), claims)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unknown user")
				return
			}
			ctx := auth.WithUser(r.Context(), user)
			ctx = withToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok || !user.IsTeacher() {
			writeError(w, http.StatusForbidden, "teacher role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginLimiter throttles each client IP to max requests per window.
// A non-positive max disables limiting.
func loginLimiter(max int, window time.Duration) func(http.Handler) http.Handler {
	if max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
		every    = rate.Every(window / time.Duration(max))
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			now := time.Now()

			mu.Lock()
			for ip, v := range visitors {
				if now.Sub(v.lastSeen) > 3*window {
					delete(visitors, ip)
				}
			}
			v, ok := visitors[key]
			if !ok {
				v = &visitor{limiter: rate.NewLimiter(every, max)}
				visitors[key] = v
			}
			v.lastSeen = now
			allowed := v.limiter.Allow()
			mu.Unlock()

			if !allowed {
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
