// Package store is the persistence gateway. Services depend on it alone
// and never see gorm errors; record-not-found is translated to the
// apperror sentinels at this boundary.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rizzchat/server/internal/apperror"
	"github.com/rizzchat/server/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// User operations

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// UpsertUser inserts the user or, when the id already exists, refreshes
// the profile fields. The is_pro flag is deliberately left out of the
// update set: tier upgrades go through RedeemCodeAndUpgradeUser only.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "first_name", "last_name", "profile_image_url", "updated_at",
		}),
	}).Create(u).Error
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// Chat operations

func (s *Store) ListChatsByOwner(ctx context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&chats).Error; err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

func (s *Store) GetChat(ctx context.Context, id uint64, userID string) (*models.Chat, error) {
	var c models.Chat
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return &c, nil
}

func (s *Store) CreateChat(ctx context.Context, c *models.Chat) error {
	if c.Messages == nil {
		c.Messages = models.MessageList{}
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

// ReplaceChatMessages swaps in the whole message sequence and touches
// updated_at. A non-nil title sets the title in the same update. The
// updated row is returned.
func (s *Store) ReplaceChatMessages(ctx context.Context, id uint64, userID string, msgs models.MessageList, title *string) (*models.Chat, error) {
	updates := map[string]any{
		"messages":   msgs,
		"updated_at": time.Now(),
	}
	if title != nil {
		updates["title"] = *title
	}
	res := s.db.WithContext(ctx).Model(&models.Chat{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update chat: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.ErrNotFound
	}
	return s.GetChat(ctx, id, userID)
}

func (s *Store) DeleteChat(ctx context.Context, id uint64, userID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Chat{})
	if res.Error != nil {
		return fmt.Errorf("delete chat: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

// Redeem code operations

func (s *Store) GetRedeemCode(ctx context.Context, code string) (*models.RedeemCode, error) {
	var rc models.RedeemCode
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&rc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, fmt.Errorf("get redeem code: %w", err)
	}
	return &rc, nil
}

func (s *Store) CreateRedeemCode(ctx context.Context, rc *models.RedeemCode) error {
	if err := s.db.WithContext(ctx).Create(rc).Error; err != nil {
		return fmt.Errorf("create redeem code: %w", err)
	}
	return nil
}

// RedeemCodeAndUpgradeUser marks the code used and upgrades the user in
// one transaction. The used flag transition is the atomic gate: the
// compare-and-set on used=false wins for exactly one caller, and if the
// tier upgrade fails the whole transaction rolls back so the code stays
// redeemable.
func (s *Store) RedeemCodeAndUpgradeUser(ctx context.Context, code, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.RedeemCode{}).
			Where("code = ? AND used = ?", code, false).
			Updates(map[string]any{
				"used":       true,
				"used_by_id": userID,
				"used_at":    now,
			})
		if res.Error != nil {
			return fmt.Errorf("mark code used: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.ErrInvalidCode
		}

		var u models.User
		if err := tx.Where("id = ?", userID).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{"is_pro": true, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("upgrade user: %w", err)
		}
		return nil
	})
}
