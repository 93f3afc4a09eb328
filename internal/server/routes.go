package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Tashu22-hub/BridgeOn/internal/auth"
	"github.com/Tashu22-hub/BridgeOn/internal/server/middleware"
	"github.com/Tashu22-hub/BridgeOn/internal/store"
)

var validRoles = map[string]bool{"guest": true, "member": true, "admin": true}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	// Ensure only valid roles are accepted
	role := req.Role
	if !validRoles[role] {
		role = "guest"
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	user := &store.User{Username: req.Username, PasswordHash: hash, Role: role}
	if err := a.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			writeError(w, http.StatusBadRequest, "Username already exists")
			return
		}
		a.logger.Error("Failed to create user", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User created successfully"})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := a.users.FindByUsername(r.Context(), req.Username)
	if err != nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := a.tokens.Sign(user.ID, user.Role)
	if err != nil {
		a.logger.Error("Failed to sign token", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "role": user.Role})
}

// roomView is the room shape returned by the REST API; password hashes never
// leave the server.
type roomView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsPrivate   bool     `json:"isPrivate"`
	CreatedBy   string   `json:"createdBy,omitempty"`
	Members     []string `json:"members"`
}

func toRoomView(room *store.Room) roomView {
	v := roomView{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		IsPrivate:   room.IsPrivate,
		Members:     make([]string, 0, len(room.Members)),
	}
	if room.CreatedBy != nil {
		v.CreatedBy = room.CreatedBy.Username
	}
	for _, m := range room.Members {
		v.Members = append(v.Members, m.Username)
	}
	return v
}

func (a *App) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := a.rooms.List(r.Context())
	if err != nil {
		a.logger.Error("Failed to list rooms", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	views := make([]roomView, 0, len(rooms))
	for i := range rooms {
		views = append(views, toRoomView(&rooms[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *App) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsPrivate   bool   `json:"isPrivate"`
		Password    string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Room name is required")
		return
	}

	var hash string
	if req.IsPrivate && req.Password != "" {
		var err error
		if hash, err = auth.HashPassword(req.Password); err != nil {
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
	}

	room := &store.Room{
		Name:         req.Name,
		Description:  req.Description,
		IsPrivate:    req.IsPrivate,
		PasswordHash: hash,
		CreatedByID:  reqMeta.UserID,
	}
	if err := a.rooms.Create(r.Context(), room); err != nil {
		if errors.Is(err, store.ErrRoomExists) {
			writeError(w, http.StatusBadRequest, "Room already exists")
			return
		}
		a.logger.Error("Failed to create room", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	// The creator is the room's first member.
	if err := a.rooms.AddMember(r.Context(), room.ID, reqMeta.UserID); err != nil {
		a.logger.Error("Failed to add creator to room", slog.Any("error", err))
	} else if creator, err := a.users.FindByID(r.Context(), reqMeta.UserID); err == nil {
		room.Members = append(room.Members, *creator)
	}
	writeJSON(w, http.StatusCreated, toRoomView(room))
}

func (a *App) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsPrivate   *bool   `json:"isPrivate"`
		Password    *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsPrivate != nil {
		updates["is_private"] = *req.IsPrivate
	}
	// Only update the password if one was provided
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		updates["password_hash"] = hash
	}

	if len(updates) == 0 {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	room, err := a.rooms.Update(r.Context(), r.PathValue("id"), updates)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "Room not found")
		case errors.Is(err, store.ErrRoomExists):
			writeError(w, http.StatusBadRequest, "Room name already exists")
		default:
			a.logger.Error("Failed to update room", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Failed to update room")
		}
		return
	}
	writeJSON(w, http.StatusOK, toRoomView(room))
}

func (a *App) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := a.rooms.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "Room not found")
			return
		}
		a.logger.Error("Failed to delete room", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to delete room")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Room deleted successfully"})
}

// handleDurableJoin adds the caller to a room's persisted membership list,
// applying the same password rules as the live join gate.
func (a *App) handleDurableJoin(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())

	var req struct {
		Password string `json:"password"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	room, err := a.rooms.GetRoom(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "Room not found")
			return
		}
		a.logger.Error("Failed to load room", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	already, err := a.rooms.IsMember(r.Context(), room.ID, reqMeta.UserID)
	if err != nil {
		a.logger.Error("Membership check failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if already {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Already a member", "roomId": room.ID})
		return
	}

	// Admin can join any room without a password
	if room.IsPrivate && reqMeta.Role != "admin" {
		if room.PasswordHash == "" {
			writeError(w, http.StatusForbidden, "Room password is not set")
			return
		}
		if !auth.VerifyPassword(req.Password, room.PasswordHash) {
			writeError(w, http.StatusForbidden, "Invalid password")
			return
		}
	}

	if err := a.rooms.AddMember(r.Context(), room.ID, reqMeta.UserID); err != nil {
		a.logger.Error("Failed to add member", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully joined room", "roomId": room.ID})
}
