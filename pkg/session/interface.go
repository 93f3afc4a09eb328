package session

import (
	"github.com/google/uuid"
)

type Manager interface {
	// --- Connection Lifecycle ---
	Register(t Transport, connID uuid.UUID, ipAddr string) (*Connection, error)
	// Deregister removes the connection from the registry and from any room it
	// occupied, returning the vacated room id ("" if none).
	Deregister(connID uuid.UUID) string
	Get(connID uuid.UUID) (*Connection, bool)
	// Snapshot reads the connection's current room and identity under the
	// manager's lock. Handlers must use this instead of touching Connection
	// fields directly: disconnect cleanup runs on a different goroutine than
	// the read pump and mutates the same fields.
	Snapshot(connID uuid.UUID) (room string, identity *Identity, ok bool)
	Connections() []*Connection
	CountByIP(ipAddr string) int

	// --- Identity ---
	// SetIdentity attaches a resolved identity to a connection. A second call
	// replaces the previous identity.
	SetIdentity(connID uuid.UUID, identity Identity) error

	// --- Room Presence ---
	// Join moves the connection into roomID, removing it from any room it
	// currently occupies first. Returns the vacated room id ("" if none).
	// A connection is never counted in two rooms at once.
	Join(connID uuid.UUID, roomID string) (vacated string, err error)
	// Leave removes the connection from its current room. No-op ("" return)
	// for connections not in a room.
	Leave(connID uuid.UUID) (vacated string)
	Occupants(roomID string) []*Connection
	// Roster resolves each occupant of roomID to a display name, falling back
	// to "Anonymous" for unauthenticated occupants. The snapshot is taken
	// atomically with respect to joins, leaves and identity changes.
	Roster(roomID string) []string
	InRoom(connID uuid.UUID, roomID string) bool
}
