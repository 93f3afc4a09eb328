package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Tashu22-hub/BridgeOn/internal/store"
)

// userView is the user shape returned by the admin API; password hashes never
// leave the server.
type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toUserView(user *store.User) userView {
	return userView{ID: user.ID, Username: user.Username, Role: user.Role}
}

func (a *App) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context())
	if err != nil {
		a.logger.Error("Failed to list users", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, toUserView(&users[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *App) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validRoles[req.Role] {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	user, err := a.users.UpdateRole(r.Context(), r.PathValue("id"), req.Role)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		a.logger.Error("Failed to update role", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Role updated successfully",
		"user":    toUserView(user),
	})
}

// statisticsView aggregates headline counts for the admin dashboard.
type statisticsView struct {
	TotalUsers  int64            `json:"totalUsers"`
	TotalRooms  int64            `json:"totalRooms"`
	UsersByRole map[string]int64 `json:"usersByRole"`
	RoomStats   struct {
		Public  int64 `json:"public"`
		Private int64 `json:"private"`
	} `json:"roomStats"`
}

func (a *App) handleStatistics(w http.ResponseWriter, r *http.Request) {
	byRole, err := a.users.CountByRole(r.Context())
	if err != nil {
		a.logger.Error("Failed to count users", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	public, private, err := a.rooms.CountByVisibility(r.Context())
	if err != nil {
		a.logger.Error("Failed to count rooms", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	stats := statisticsView{UsersByRole: map[string]int64{"guest": 0, "member": 0, "admin": 0}}
	for role, count := range byRole {
		stats.UsersByRole[role] = count
		stats.TotalUsers += count
	}
	stats.TotalRooms = public + private
	stats.RoomStats.Public = public
	stats.RoomStats.Private = private
	writeJSON(w, http.StatusOK, stats)
}
