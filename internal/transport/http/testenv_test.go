package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/auth"
	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/infra/memory"
	"daily-quiz-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type testEnv struct {
	server  *httptest.Server
	store   *memory.Store
	auth    *auth.Authenticator
	gateway *app.DataGateway
}

type envOptions struct {
	advanceDelay   time.Duration
	loginPerMinute int
	store          app.Store
}

// failingQuizStore rejects every quiz write.
type failingQuizStore struct {
	*memory.Store
}

func (failingQuizStore) SaveDailyQuiz(context.Context, string, domain.Quiz) error {
	return errors.New("disk full")
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	mem := memory.NewStore()
	var store app.Store = mem
	if opts.store != nil {
		store = opts.store
	}

	gateway := app.NewDataGateway(store, memory.NewQuizRepository(store, time.Minute), nil, time.UTC)
	authenticator := auth.NewAuthenticator(mem, "test-secret", time.Hour, nil)
	reg := prometheus.NewRegistry()
	registry := app.NewClientRegistry(memory.NewClientStore(), gateway, metrics.NewQuiz(reg), nil)
	authenticator.OnAuthChange(registry.HandleAuthChange)

	ctx := context.Background()
	users := []struct {
		user     domain.User
		password string
	}{
		{domain.User{ID: "stu-1", Email: "ada@school.test", DisplayName: "Ada", Role: domain.RoleStudent}, "ada-pass"},
		{domain.User{ID: "stu-2", Email: "bob@school.test", DisplayName: "Bob", Role: domain.RoleStudent}, "bob-pass"},
		{domain.User{ID: "tch-1", Email: "tess@school.test", DisplayName: "Tess", Role: domain.RoleTeacher}, "tess-pass"},
	}
	for _, u := range users {
		if _, err := authenticator.Register(ctx, u.user, u.password); err != nil {
			t.Fatalf("register %s: %v", u.user.Email, err)
		}
	}

	router := NewRouter(RouterConfig{
		Auth:           authenticator,
		Data:           gateway,
		Publisher:      app.NewAuthoring(gateway),
		WS:             NewWSHandler(authenticator, registry, opts.advanceDelay, nil),
		Gatherer:       reg,
		LoginPerMinute: opts.loginPerMinute,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: mem, auth: authenticator, gateway: gateway}
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: email, Password: password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return out.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}
