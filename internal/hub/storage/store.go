// Package storage persists the per-session participant roster for the room
// hub. The hub itself remains the source of truth for live connections; the
// store exists for introspection (REST roster listing) and, with the Redis
// backend, for visibility across hub instances.
package storage

import (
	"context"

	"github.com/syncroom/syncroom/internal/session"
)

// Store manages roster persistence per session room.
type Store interface {
	// Upsert inserts or updates one participant of a session.
	Upsert(ctx context.Context, sessionID string, p session.Participant) error

	// Remove deletes one participant. Removing an absent id is a no-op.
	Remove(ctx context.Context, sessionID, participantID string) error

	// List returns the participants of a session.
	List(ctx context.Context, sessionID string) ([]session.Participant, error)

	// Clear drops the whole roster of a session.
	Clear(ctx context.Context, sessionID string) error
}
