package store

import (
	"context"
	"errors"
	"testing"
)

func newTestRepos(t *testing.T) (*UserRepository, *RoomRepository) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return NewUserRepository(db), NewRoomRepository(db)
}

func TestUserCreateAndFind(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	user := &User{Username: "ada", PasswordHash: "hash", Role: "member"}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID == "" {
		t.Fatal("Create did not assign an ID")
	}

	byID, err := users.FindByID(ctx, user.ID)
	if err != nil || byID.Username != "ada" {
		t.Fatalf("FindByID: %v, %+v", err, byID)
	}
	byName, err := users.FindByUsername(ctx, "ada")
	if err != nil || byName.ID != user.ID {
		t.Fatalf("FindByUsername: %v, %+v", err, byName)
	}

	if _, err := users.FindByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestUserDuplicateUsername(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	if err := users.Create(ctx, &User{Username: "ada", PasswordHash: "h", Role: "member"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err := users.Create(ctx, &User{Username: "ada", PasswordHash: "h2", Role: "guest"})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("Expected ErrUserExists, got %v", err)
	}
}

func TestRoomLifecycle(t *testing.T) {
	users, rooms := newTestRepos(t)
	ctx := context.Background()

	creator := &User{Username: "grace", PasswordHash: "h", Role: "admin"}
	if err := users.Create(ctx, creator); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}

	room := &Room{Name: "Staff", IsPrivate: true, PasswordHash: "roomhash", CreatedByID: creator.ID}
	if err := rooms.Create(ctx, room); err != nil {
		t.Fatalf("Create room failed: %v", err)
	}

	got, err := rooms.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if !got.IsPrivate || got.PasswordHash != "roomhash" {
		t.Errorf("GetRoom must expose authorization fields, got %+v", got)
	}

	if err := rooms.Create(ctx, &Room{Name: "Staff"}); !errors.Is(err, ErrRoomExists) {
		t.Errorf("Expected ErrRoomExists, got %v", err)
	}

	updated, err := rooms.Update(ctx, room.ID, map[string]any{"description": "ops only"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Description != "ops only" {
		t.Errorf("Update not applied: %+v", updated)
	}
	if updated.PasswordHash != "" {
		t.Error("Update response leaked the password hash")
	}

	if _, err := rooms.Update(ctx, "missing", map[string]any{"description": "x"}); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}

	if err := rooms.Delete(ctx, room.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := rooms.GetRoom(ctx, room.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound after delete, got %v", err)
	}
	if err := rooms.Delete(ctx, room.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound on double delete, got %v", err)
	}
}

func TestMembership(t *testing.T) {
	users, rooms := newTestRepos(t)
	ctx := context.Background()

	member := &User{Username: "ada", PasswordHash: "h", Role: "member"}
	if err := users.Create(ctx, member); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	room := &Room{Name: "Lobby"}
	if err := rooms.Create(ctx, room); err != nil {
		t.Fatalf("Create room failed: %v", err)
	}

	is, err := rooms.IsMember(ctx, room.ID, member.ID)
	if err != nil || is {
		t.Fatalf("Expected non-member, got %v %v", is, err)
	}

	if err := rooms.AddMember(ctx, room.ID, member.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	// Appending an existing member stays a no-op.
	if err := rooms.AddMember(ctx, room.ID, member.ID); err != nil {
		t.Fatalf("Repeated AddMember failed: %v", err)
	}

	is, err = rooms.IsMember(ctx, room.ID, member.ID)
	if err != nil || !is {
		t.Fatalf("Expected member, got %v %v", is, err)
	}

	listed, err := rooms.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 1 || len(listed[0].Members) != 1 || listed[0].Members[0].Username != "ada" {
		t.Errorf("Unexpected listing: %+v", listed)
	}

	if err := rooms.AddMember(ctx, "missing", member.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}
