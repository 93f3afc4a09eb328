package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// RoomRepository handles room persistence, including the durable membership
// list. The live occupant sets are tracked separately, in memory.
type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(ctx context.Context, room *Room) error {
	result := r.db.WithContext(ctx).Create(room)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrRoomExists
		}
		return result.Error
	}
	return nil
}

func (r *RoomRepository) GetRoom(ctx context.Context, id string) (*Room, error) {
	var room Room
	result := r.db.WithContext(ctx).First(&room, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, result.Error
	}
	return &room, nil
}

// List returns all rooms with their member lists preloaded. Password hashes
// are cleared so handlers can serialize rooms directly.
func (r *RoomRepository) List(ctx context.Context) ([]Room, error) {
	var rooms []Room
	result := r.db.WithContext(ctx).Preload("Members").Preload("CreatedBy").Find(&rooms)
	if result.Error != nil {
		return nil, result.Error
	}
	for i := range rooms {
		rooms[i].PasswordHash = ""
	}
	return rooms, nil
}

func (r *RoomRepository) Update(ctx context.Context, id string, updates map[string]any) (*Room, error) {
	result := r.db.WithContext(ctx).Model(&Room{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrRoomExists
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRoomNotFound
	}
	room, err := r.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	room.PasswordHash = ""
	return room, nil
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&Room{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// AddMember appends the user to the room's durable membership list.
// Appending an existing member is a no-op.
func (r *RoomRepository) AddMember(ctx context.Context, roomID, userID string) error {
	room, err := r.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	user, err := NewUserRepository(r.db).FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(room).Association("Members").Append(user)
}

// CountByVisibility returns the number of public and private rooms.
func (r *RoomRepository) CountByVisibility(ctx context.Context) (public, private int64, err error) {
	result := r.db.WithContext(ctx).Model(&Room{}).Where("is_private = ?", false).Count(&public)
	if result.Error != nil {
		return 0, 0, result.Error
	}
	result = r.db.WithContext(ctx).Model(&Room{}).Where("is_private = ?", true).Count(&private)
	if result.Error != nil {
		return 0, 0, result.Error
	}
	return public, private, nil
}

// IsMember reports whether the user is on the room's durable membership list.
func (r *RoomRepository) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Table("room_members").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}
