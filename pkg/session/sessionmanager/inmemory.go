package sessionmanager

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Tashu22-hub/BridgeOn/pkg/session"
	"github.com/google/uuid"
)

// InMemoryManager tracks live connections and per-room occupant sets. A single
// mutex guards both maps so that a connection's Room field and the room
// occupant sets can never disagree, even under concurrent join/leave/disconnect.
type InMemoryManager struct {
	conns map[uuid.UUID]*session.Connection
	rooms map[string]map[uuid.UUID]*session.Connection

	mu sync.RWMutex

	logger *slog.Logger
}

func NewInMemoryManager(logger *slog.Logger) *InMemoryManager {
	return &InMemoryManager{
		conns:  make(map[uuid.UUID]*session.Connection),
		rooms:  make(map[string]map[uuid.UUID]*session.Connection),
		logger: logger.With(slog.String("component", "session_manager_inmemory")),
	}
}

// compile-time check to ensure InMemoryManager implements Manager.
var _ session.Manager = (*InMemoryManager)(nil)

func (m *InMemoryManager) Register(t session.Transport, connID uuid.UUID, ipAddr string) (*session.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.conns[connID]; exists {
		return nil, errors.New("connection is already registered")
	}
	newConn := &session.Connection{
		ID:        connID,
		IPAddress: ipAddr,
		Transport: t,
		CreatedAt: time.Now(),
	}
	m.conns[connID] = newConn
	m.logger.Debug("Connection registered", slog.String("connID", connID.String()))
	return newConn, nil
}

func (m *InMemoryManager) Deregister(connID uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		// already deregistered
		return ""
	}
	vacated := m.removeFromRoomLocked(conn)
	delete(m.conns, connID)
	m.logger.Debug("Connection deregistered", slog.String("connID", connID.String()))
	return vacated
}

func (m *InMemoryManager) Get(connID uuid.UUID) (*session.Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.conns[connID]
	return conn, ok
}

// Snapshot returns the room and identity fields as one atomic read. The
// returned identity pointer is safe to use without the lock: SetIdentity
// always swaps in a fresh value and never mutates a published one.
func (m *InMemoryManager) Snapshot(connID uuid.UUID) (string, *session.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.conns[connID]
	if !ok {
		return "", nil, false
	}
	return conn.Room, conn.Identity, true
}

func (m *InMemoryManager) Connections() []*session.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := make([]*session.Connection, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	return conns
}

func (m *InMemoryManager) CountByIP(ipAddr string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, c := range m.conns {
		if c.IPAddress == ipAddr {
			count++
		}
	}
	return count
}

func (m *InMemoryManager) SetIdentity(connID uuid.UUID, identity session.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		return errors.New("cannot attach identity to unknown connection")
	}
	conn.Identity = &identity
	m.logger.Debug("Identity attached to connection",
		slog.String("connID", connID.String()),
		slog.String("userID", identity.UserID),
	)
	return nil
}

// --- Room Presence ---

func (m *InMemoryManager) Join(connID uuid.UUID, roomID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		return "", errors.New("cannot join room: connection not found")
	}
	if conn.Room == roomID {
		// already there, nothing to move
		return "", nil
	}

	vacated := m.removeFromRoomLocked(conn)

	// Find or create the room session.
	occupants, exists := m.rooms[roomID]
	if !exists {
		occupants = make(map[uuid.UUID]*session.Connection)
		m.rooms[roomID] = occupants
	}
	occupants[connID] = conn
	conn.Room = roomID

	m.logger.Debug("Connection joined room", "connID", connID.String(), "roomID", roomID)
	return vacated, nil
}

func (m *InMemoryManager) Leave(connID uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		return ""
	}
	return m.removeFromRoomLocked(conn)
}

// removeFromRoomLocked detaches conn from its current room and returns the
// vacated room id ("" if the connection was not in a room). Caller holds mu.
func (m *InMemoryManager) removeFromRoomLocked(conn *session.Connection) string {
	if conn.Room == "" {
		return ""
	}
	roomID := conn.Room
	conn.Room = ""

	occupants, ok := m.rooms[roomID]
	if !ok {
		return roomID
	}
	delete(occupants, conn.ID)

	// For memory hygiene, remove the room session if it's now empty.
	if len(occupants) == 0 {
		delete(m.rooms, roomID)
		m.logger.Debug("Removed empty room session", "roomID", roomID)
	}
	return roomID
}

func (m *InMemoryManager) Occupants(roomID string) []*session.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	occupants := m.rooms[roomID]
	conns := make([]*session.Connection, 0, len(occupants))
	for _, c := range occupants {
		conns = append(conns, c)
	}
	return conns
}

func (m *InMemoryManager) Roster(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	occupants := m.rooms[roomID]
	names := make([]string, 0, len(occupants))
	for _, c := range occupants {
		names = append(names, c.Identity.DisplayName())
	}
	return names
}

func (m *InMemoryManager) InRoom(connID uuid.UUID, roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	occupants, ok := m.rooms[roomID]
	if !ok {
		return false
	}
	_, present := occupants[connID]
	return present
}
