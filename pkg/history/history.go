// Package history stores the transcript of chat turns sent through the client.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Turn is one message sent to the backend and the reply it produced.
type Turn struct {
	// ID uniquely identifies the turn.
	ID string `json:"id"`

	// SessionID groups the turns of one chat REPL session.
	SessionID string `json:"session_id"`

	Message  string `json:"message"`
	Response string `json:"response"`

	// Streamed is true when the reply came from the chat stream endpoint.
	Streamed bool `json:"streamed"`

	EnableSkills bool `json:"enable_skills"`
	EnableMCP    bool `json:"enable_mcp"`

	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	// Error holds the failure text when the turn did not complete. Response
	// may still hold a partial reply.
	Error string `json:"error,omitempty"`
}

// Duration is how long the turn took.
func (t *Turn) Duration() time.Duration {
	return t.EndedAt.Sub(t.StartedAt)
}

// NewTurn starts a turn for message in session, stamped with the current time.
func NewTurn(sessionID, message string) *Turn {
	return &Turn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Message:   message,
		StartedAt: time.Now().UTC(),
	}
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// ListOptions filters List results.
type ListOptions struct {
	// SessionID restricts results to one session when set.
	SessionID string

	// Limit caps the number of turns returned. Zero means no limit.
	Limit int
}

// Driver persists and retrieves turns.
type Driver interface {
	// Put stores a turn. Storing a turn whose ID already exists replaces it.
	Put(ctx context.Context, turn *Turn) error

	// Get retrieves a turn by ID. Returns ErrNotFound when it does not exist.
	Get(ctx context.Context, id string) (*Turn, error)

	// List returns turns newest first.
	List(ctx context.Context, opts ListOptions) ([]*Turn, error)

	// Clear deletes every stored turn.
	Clear(ctx context.Context) error

	// Close releases any resources held by the driver.
	Close() error
}
