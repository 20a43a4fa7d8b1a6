package app

import (
	"daily-quiz-service/internal/domain"
	"go.uber.org/zap"
)

// Client is the session context of one signed-in user.
type Client struct {
	User       domain.User
	Controller *QuizController
}

// ClientRegistry creates a client context on login and destroys it on logout.
type ClientRegistry struct {
	clients  ClientStore
	data     Data
	observer Observer
	log      *zap.Logger
}

func NewClientRegistry(clients ClientStore, data Data, observer Observer, log *zap.Logger) *ClientRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClientRegistry{clients: clients, data: data, observer: observer, log: log}
}

// HandleAuthChange follows the auth collaborator's sign-in and sign-out events.
// A user has one context shared by all of their sockets, so signing out any
// token ends the session on every device.
func (r *ClientRegistry) HandleAuthChange(user domain.User, signedIn bool) {
	if signedIn {
		r.Client(user)
		r.log.Info("client context created", zap.String("user", user.ID), zap.String("role", string(user.Role)))
		return
	}
	if client, ok := r.clients.Get(user.ID); ok {
		client.Controller.End()
		client.Controller.Attach(nil)
	}
	r.clients.Delete(user.ID)
	r.log.Info("client context destroyed", zap.String("user", user.ID))
}

// Client returns the context for user, creating it if the user has none yet.
func (r *ClientRegistry) Client(user domain.User) *Client {
	return r.clients.GetOrCreate(user.ID, func() *Client {
		u := user
		return &Client{
			User:       u,
			Controller: NewQuizController(&u, r.data, r.observer, r.log.With(zap.String("user", u.ID))),
		}
	})
}

// Lookup returns an existing context.
func (r *ClientRegistry) Lookup(userID string) (*Client, bool) {
	return r.clients.Get(userID)
}
