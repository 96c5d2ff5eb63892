// Package redeem exchanges one-time codes for a permanent pro upgrade.
package redeem

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rizzchat/server/internal/apperror"
	"github.com/rizzchat/server/internal/common"
	"github.com/rizzchat/server/internal/models"
	"github.com/rizzchat/server/internal/sl"
	"github.com/rizzchat/server/internal/store"
)

// Publisher emits an upgrade event after a successful redemption. The
// event is best-effort; a publish failure never undoes the redemption.
type Publisher interface {
	PublishUpgrade(ctx context.Context, userID, code string) error
}

type Service struct {
	store  *store.Store
	events Publisher
	log    *slog.Logger
}

// NewService accepts a nil publisher; redemption then simply skips the
// event.
func NewService(st *store.Store, events Publisher, log *slog.Logger) *Service {
	return &Service{store: st, events: events, log: log}
}

// Normalize maps a raw code to its canonical form: trimmed, lower-case.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Redeem marks the code used and upgrades the user atomically. A code is
// redeemable exactly once; the second attempt fails with ErrInvalidCode
// no matter who tries.
func (s *Service) Redeem(ctx context.Context, code, userID string) error {
	norm := Normalize(code)
	if norm == "" {
		return apperror.ErrInvalidInput
	}

	if err := s.store.RedeemCodeAndUpgradeUser(ctx, norm, userID); err != nil {
		return err
	}

	if s.events != nil {
		if err := s.events.PublishUpgrade(ctx, userID, norm); err != nil {
			s.log.Warn("publish upgrade event failed",
				slog.String("user_id", userID), sl.Err(err))
		}
	}
	return nil
}

// CreateCode registers a new redeemable code. A blank code gets a
// generated ULID. Duplicates are rejected.
func (s *Service) CreateCode(ctx context.Context, code string) (*models.RedeemCode, error) {
	norm := Normalize(code)
	if norm == "" {
		id, err := common.NewULID()
		if err != nil {
			return nil, err
		}
		norm = strings.ToLower(id)
	}

	if _, err := s.store.GetRedeemCode(ctx, norm); err == nil {
		return nil, apperror.ErrInvalidInput
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	rc := &models.RedeemCode{Code: norm}
	if err := s.store.CreateRedeemCode(ctx, rc); err != nil {
		return nil, err
	}
	return rc, nil
}
