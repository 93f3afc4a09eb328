package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Tashu22-hub/BridgeOn/internal/store"
	"github.com/Tashu22-hub/BridgeOn/pkg/session"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// IdentityResolver verifies a credential token. See internal/identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (session.Identity, error)
}

// RoomDirectory is the slice of room persistence the engine reads: room
// metadata for authorization, plus durable membership updates after a
// successful join.
type RoomDirectory interface {
	GetRoom(ctx context.Context, roomID string) (*store.Room, error)
	AddMember(ctx context.Context, roomID, userID string) error
}

// Handler is the real-time session and room-presence engine. It owns no state
// itself; all shared state lives behind the session.Manager.
type Handler struct {
	logger   *slog.Logger
	sessions session.Manager
	resolver IdentityResolver
	rooms    RoomDirectory
}

func NewHandler(logger *slog.Logger, sessions session.Manager, resolver IdentityResolver, rooms RoomDirectory) *Handler {
	return &Handler{
		logger:   logger.With(slog.String("component", "chat_handler")),
		sessions: sessions,
		resolver: resolver,
		rooms:    rooms,
	}
}

// HandleMessage dispatches one client event. The transport invokes it
// synchronously from the read pump, so a connection's events are processed in
// the order they were sent.
func (h *Handler) HandleMessage(ctx context.Context, connID uuid.UUID, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Warn("Failed to unmarshal client message", "connID", connID, "error", err)
		return
	}

	conn, ok := h.sessions.Get(connID)
	if !ok {
		h.logger.Error("Received event for unregistered connection", slog.Any("connID", connID))
		return
	}

	switch msg.Event {
	case EventAuthenticate:
		h.handleAuthenticate(ctx, conn, msg.Payload)
	case EventJoin:
		h.handleJoin(ctx, conn, msg.Payload)
	case EventSendMessage:
		h.handleSendMessage(conn, msg.Payload)
	default:
		h.logger.Warn("Received unknown event", "event", msg.Event, "connID", connID)
	}
}

// handleAuthenticate resolves the supplied token and attaches the identity to
// the connection. Failures are silent: the connection simply keeps acting as
// a guest. A repeated authenticate replaces the previous identity.
func (h *Handler) handleAuthenticate(ctx context.Context, conn *session.Connection, payload json.RawMessage) {
	token := gjson.GetBytes(payload, "token").String()
	if token == "" {
		// the payload may be the bare token string itself
		var s string
		if err := json.Unmarshal(payload, &s); err == nil {
			token = s
		}
	}

	ident, err := h.resolver.Resolve(ctx, token)
	if err != nil {
		h.logger.Debug("Token resolution failed, connection remains guest",
			slog.String("connID", conn.ID.String()),
			slog.Any("error", err),
		)
		return
	}
	if err := h.sessions.SetIdentity(conn.ID, ident); err != nil {
		h.logger.Warn("Failed to attach identity", slog.Any("error", err))
	}
}

func (h *Handler) handleJoin(ctx context.Context, conn *session.Connection, payload json.RawMessage) {
	roomID := gjson.GetBytes(payload, "roomId").String()
	password := gjson.GetBytes(payload, "password").String()

	room, err := h.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			conn.Transport.Send(encode(EventError, string(DenyRoomNotFound)))
			return
		}
		// directory unavailable: fail closed
		h.logger.Error("Room directory lookup failed", slog.String("roomID", roomID), slog.Any("error", err))
		conn.Transport.Send(encode(EventError, "Error joining room"))
		return
	}

	// A connection refreshing the room it already occupies is let back in
	// without re-running the gate (no password re-prompt).
	if h.sessions.InRoom(conn.ID, roomID) {
		conn.Transport.Send(encode(EventMessage, MessagePayload{
			User: systemUser,
			Text: "Welcome to " + room.Name + "!",
		}))
		h.publishPresence(roomID, room.Name)
		return
	}

	_, ident, ok := h.sessions.Snapshot(conn.ID)
	if !ok {
		// closed while the join was in flight; cleanup already ran
		return
	}

	if err := authorizeJoin(ident.EffectiveRole(), room, password); err != nil {
		var deny *DenyError
		if errors.As(err, &deny) {
			conn.Transport.Send(encode(EventError, string(deny.Reason)))
			return
		}
		conn.Transport.Send(encode(EventError, "Error joining room"))
		return
	}

	vacated, err := h.sessions.Join(conn.ID, roomID)
	if err != nil {
		h.logger.Error("Session join failed", slog.Any("connID", conn.ID), slog.Any("error", err))
		conn.Transport.Send(encode(EventError, "Error joining room"))
		return
	}

	if vacated != "" {
		h.notifyRoom(vacated, uuid.Nil, MessagePayload{
			User: systemUser,
			Text: noticeName(ident) + " has left.",
		})
		h.publishPresenceByID(ctx, vacated)
	}

	conn.Transport.Send(encode(EventMessage, MessagePayload{
		User: systemUser,
		Text: "Welcome to " + room.Name + "!",
	}))
	h.notifyRoom(roomID, conn.ID, MessagePayload{
		User: systemUser,
		Text: noticeName(ident) + " has joined!",
	})
	h.publishPresence(roomID, room.Name)

	// Persist the durable membership in the background; a failure here is
	// logged but never rolls back the in-memory join.
	if ident != nil && ident.Role != session.RoleGuest {
		go func() {
			if err := h.rooms.AddMember(context.Background(), roomID, ident.UserID); err != nil {
				h.logger.Warn("Failed to persist room membership",
					slog.String("roomID", roomID),
					slog.String("userID", ident.UserID),
					slog.Any("error", err),
				)
			}
		}()
	}
}

// handleSendMessage relays chat text to the sender's current room. A
// connection that has not joined a room cannot broadcast; its messages are
// dropped without an error event.
func (h *Handler) handleSendMessage(conn *session.Connection, payload json.RawMessage) {
	text := gjson.GetBytes(payload, "text").String()

	// Room and identity are read under the manager's lock: a disconnect on
	// another goroutine may be clearing them concurrently.
	room, ident, ok := h.sessions.Snapshot(conn.ID)
	if !ok || room == "" {
		h.logger.Debug("Dropping message from connection with no room", slog.String("connID", conn.ID.String()))
		return
	}

	// The sender renders its own outgoing message locally, so it is excluded
	// from the fan-out.
	h.notifyRoom(room, conn.ID, MessagePayload{
		User: ident.DisplayName(),
		Text: text,
	})
}

// HandleDisconnect removes the connection from the registry and from any room
// it occupied, notifying the remaining occupants. Safe to call more than once.
func (h *Handler) HandleDisconnect(connID uuid.UUID) {
	_, ident, ok := h.sessions.Snapshot(connID)
	if !ok {
		return
	}
	name := noticeName(ident)

	vacated := h.sessions.Deregister(connID)
	if vacated == "" {
		return
	}
	h.notifyRoom(vacated, uuid.Nil, MessagePayload{
		User: systemUser,
		Text: name + " has left.",
	})
	h.publishPresenceByID(context.Background(), vacated)
}

// notifyRoom delivers an event to every occupant of the room except the
// excluded connection (uuid.Nil excludes nobody).
func (h *Handler) notifyRoom(roomID string, exclude uuid.UUID, payload MessagePayload) {
	msg := encode(EventMessage, payload)
	for _, occupant := range h.sessions.Occupants(roomID) {
		if occupant.ID == exclude {
			continue
		}
		occupant.Transport.Send(msg)
	}
}

// publishPresence delivers the current occupant roster to everyone in the room.
func (h *Handler) publishPresence(roomID, roomName string) {
	msg := encode(EventRoomData, RoomDataPayload{
		Room:  roomName,
		Users: h.sessions.Roster(roomID),
	})
	for _, occupant := range h.sessions.Occupants(roomID) {
		occupant.Transport.Send(msg)
	}
}

// publishPresenceByID resolves the room's display name first; used when the
// caller only has the room id (vacated rooms). Falls back to the id when the
// directory cannot resolve it.
func (h *Handler) publishPresenceByID(ctx context.Context, roomID string) {
	name := roomID
	if room, err := h.rooms.GetRoom(ctx, roomID); err == nil {
		name = room.Name
	}
	h.publishPresence(roomID, name)
}

// noticeName is the name used in join/leave notices, which historically read
// "A user has left." for unauthenticated occupants rather than "Anonymous".
func noticeName(ident *session.Identity) string {
	if ident == nil || ident.Username == "" {
		return "A user"
	}
	return ident.Username
}
