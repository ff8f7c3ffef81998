// Package session owns the authentication state machine and drives
// every server round trip on behalf of the views.
//
// Two states: unauthenticated and authenticated. Registration (or a
// credential found at startup) enters authenticated and triggers the
// initial load; logout is local-only and wipes everything. A 401/403
// from any authenticated call demotes back to unauthenticated and
// clears the stored credential, so the next run starts clean instead
// of retrying a dead key.
package session

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"todoq/internal/api"
	"todoq/internal/credstore"
	"todoq/internal/model"
	"todoq/internal/state"
)

// Service is the remote surface the controller needs. The api.Client
// satisfies it; tests substitute an in-memory fake.
type Service interface {
	Register(ctx context.Context, username string) (model.Session, error)
	ListTodos(ctx context.Context, key string) ([]model.Todo, error)
	CreateTodo(ctx context.Context, key, title string) (model.Todo, error)
	UpdateTodo(ctx context.Context, key string, id int64, done bool) (model.Todo, error)
	DeleteTodo(ctx context.Context, key string, id int64) error
	GetStats(ctx context.Context, key string) (model.Stats, error)
}

// CredentialStore is the persistence slot for the API key.
// credstore.Store satisfies it.
type CredentialStore interface {
	Get() (*credstore.Credentials, error)
	Set(username, apiKey string) error
	Clear() error
}

// Controller ties the credential, the remote service, and the local
// synchronized state together.
type Controller struct {
	store CredentialStore
	svc   Service
	state *state.State
	log   *log.Logger
	creds *credstore.Credentials // nil <=> unauthenticated
}

// NewController starts unauthenticated with empty state.
func NewController(store CredentialStore, svc Service, logger *log.Logger) *Controller {
	return &Controller{
		store: store,
		svc:   svc,
		state: state.New(),
		log:   logger,
	}
}

// State exposes the confirmed local view for rendering.
func (c *Controller) State() *state.State { return c.state }

// Authenticated reports whether a credential is currently held.
func (c *Controller) Authenticated() bool { return c.creds != nil }

// Username returns the session's username, or "" when unauthenticated.
func (c *Controller) Username() string {
	if c.creds == nil {
		return ""
	}
	return c.creds.Username
}

// Credentials returns the held slot, or nil when unauthenticated.
func (c *Controller) Credentials() *credstore.Credentials { return c.creds }

func (c *Controller) key() string {
	if c.creds == nil {
		return ""
	}
	return c.creds.APIKey
}

// Initialize is the explicit process-start entry point. It consults
// the credential store once; if a credential is present the controller
// enters authenticated and performs the initial load. A stored key the
// server no longer honors is discovered here, on the first failing
// call, and demotes immediately.
func (c *Controller) Initialize(ctx context.Context) error {
	creds, err := c.store.Get()
	if err != nil {
		return fmt.Errorf("credential store: %w", err)
	}
	if creds == nil {
		return nil // stays unauthenticated; not an error
	}
	c.creds = creds
	c.log.Debug("session restored", "username", creds.Username, "source", creds.Source)
	return c.Refresh(ctx)
}

// Register creates an account, persists the credential, and performs
// the initial load. It is valid only while unauthenticated; logout
// first to switch accounts. On any failure the controller stays in its
// prior state and local data is untouched.
func (c *Controller) Register(ctx context.Context, username string) error {
	if c.creds != nil {
		return fmt.Errorf("already registered as %s, logout first", c.creds.Username)
	}
	sess, err := c.svc.Register(ctx, username)
	if err != nil {
		return err
	}
	if err := c.store.Set(sess.Username, sess.APIKey); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	c.creds = &credstore.Credentials{
		Username: sess.Username,
		APIKey:   sess.APIKey,
		Source:   "file",
	}
	c.log.Info("registered", "username", sess.Username)
	return c.Refresh(ctx)
}

// Logout clears the credential slot and wipes the local view. It is
// local-only and idempotent; the service is never called.
func (c *Controller) Logout() error {
	err := c.store.Clear()
	c.creds = nil
	c.state.Reset()
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// Refresh replaces the collection wholesale with the server's order
// and fetches a fresh stats snapshot.
func (c *Controller) Refresh(ctx context.Context) error {
	todos, err := c.svc.ListTodos(ctx, c.key())
	if err != nil {
		return c.observe(err)
	}
	c.state.ReplaceAll(todos)
	return c.refreshStats(ctx)
}

// Create sends a new todo and, on confirmation, appends the server's
// copy and refreshes stats. A failed call changes nothing.
func (c *Controller) Create(ctx context.Context, title string) (model.Todo, error) {
	todo, err := c.svc.CreateTodo(ctx, c.key(), title)
	if err != nil {
		return model.Todo{}, c.observe(err)
	}
	c.state.ApplyCreate(todo)
	return todo, c.refreshStats(ctx)
}

// Toggle flips the done flag of the todo with the given id. The flip
// is computed from the confirmed local copy, and the server's returned
// todo replaces it by id. Out-of-order responses are dropped by the
// state's sequence guard.
func (c *Controller) Toggle(ctx context.Context, id int64) (model.Todo, error) {
	current, ok := c.find(id)
	if !ok {
		return model.Todo{}, fmt.Errorf("unknown todo id %d", id)
	}
	seq := c.state.Begin(id)
	todo, err := c.svc.UpdateTodo(ctx, c.key(), id, !current.Done)
	if err != nil {
		return model.Todo{}, c.observe(err)
	}
	if !c.state.ApplyUpdate(seq, todo) {
		c.log.Debug("stale update dropped", "id", id, "seq", seq)
		return todo, nil
	}
	return todo, c.refreshStats(ctx)
}

// Remove deletes the todo with the given id and, on confirmation,
// removes it locally and refreshes stats.
func (c *Controller) Remove(ctx context.Context, id int64) error {
	seq := c.state.Begin(id)
	if err := c.svc.DeleteTodo(ctx, c.key(), id); err != nil {
		return c.observe(err)
	}
	if !c.state.ApplyDelete(seq, id) {
		c.log.Debug("stale delete dropped", "id", id, "seq", seq)
		return nil
	}
	return c.refreshStats(ctx)
}

func (c *Controller) refreshStats(ctx context.Context) error {
	stats, err := c.svc.GetStats(ctx, c.key())
	if err != nil {
		return c.observe(err)
	}
	c.state.SetStats(stats)
	return nil
}

func (c *Controller) find(id int64) (model.Todo, bool) {
	for _, t := range c.state.Todos() {
		if t.ID == id {
			return t, true
		}
	}
	return model.Todo{}, false
}

// observe inspects a failed call. A credential rejection demotes the
// session; every other failure passes through untouched so the caller
// can report it and the user can retry.
func (c *Controller) observe(err error) error {
	if api.IsAuthRejection(err) && c.creds != nil {
		c.log.Warn("credential rejected by server, logging out", "username", c.creds.Username)
		// Env-sourced keys are not ours to delete.
		if c.creds.Source != "env" {
			if cerr := c.store.Clear(); cerr != nil {
				c.log.Error("clear rejected credential", "err", cerr)
			}
		}
		c.creds = nil
		c.state.Reset()
	}
	return err
}
