// Package chat orchestrates the conversation round-trip: quota
// enforcement, the completion-provider call, and the append of the
// user/assistant message pair.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rizzchat/server/internal/ai"
	"github.com/rizzchat/server/internal/apperror"
	"github.com/rizzchat/server/internal/models"
	"github.com/rizzchat/server/internal/quota"
	"github.com/rizzchat/server/internal/sl"
	"github.com/rizzchat/server/internal/store"
)

type Service struct {
	store    *store.Store
	provider ai.Provider
	quota    *quota.Engine
	log      *slog.Logger
}

func NewService(st *store.Store, provider ai.Provider, q *quota.Engine, log *slog.Logger) *Service {
	return &Service{store: st, provider: provider, quota: q, log: log}
}

// checkQuota loads the user's tier and full chat history and re-runs the
// quota count. It is evaluated on every call, never cached, so concurrent
// sends across multiple chats cannot jointly exceed the cap.
func (s *Service) checkQuota(ctx context.Context, userID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	chats, err := s.store.ListChatsByOwner(ctx, userID)
	if err != nil {
		return err
	}
	if !s.quota.Allowed(user.IsPro, chats, time.Now()) {
		return apperror.ErrQuotaExceeded
	}
	return nil
}

func (s *Service) CreateChat(ctx context.Context, userID string) (*models.Chat, error) {
	if err := s.checkQuota(ctx, userID); err != nil {
		return nil, err
	}

	chat := &models.Chat{
		UserID:   userID,
		Title:    models.DefaultChatTitle,
		Messages: models.MessageList{},
	}
	if err := s.store.CreateChat(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// SendMessage runs one round-trip. The user message and the assistant
// reply are persisted together or not at all: a provider failure leaves
// the chat untouched, with no orphaned user-only turn.
func (s *Service) SendMessage(ctx context.Context, chatID uint64, userID, text string) (*models.Message, *models.Chat, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, apperror.ErrInvalidInput
	}

	chat, err := s.store.GetChat(ctx, chatID, userID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.checkQuota(ctx, userID); err != nil {
		return nil, nil, err
	}

	userMsg := models.Message{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}

	providerMsgs := make([]ai.Message, 0, len(chat.Messages)+1)
	for _, m := range chat.Messages {
		providerMsgs = append(providerMsgs, ai.Message{Role: m.Role, Content: m.Content})
	}
	providerMsgs = append(providerMsgs, ai.Message{Role: userMsg.Role, Content: userMsg.Content})

	reply, err := s.provider.Chat(ctx, providerMsgs)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperror.ErrGenerationFailed, err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, nil, apperror.ErrGenerationFailed
	}

	assistantMsg := models.Message{
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	}

	// first round-trip derives the title; failure falls back silently to
	// the placeholder and never blocks the message
	var title *string
	if len(chat.Messages) == 0 {
		t, err := s.provider.GenerateTitle(ctx, text)
		if err != nil || strings.TrimSpace(t) == "" {
			if err != nil {
				s.log.Warn("title generation failed, keeping placeholder",
					slog.Uint64("chat_id", chatID), sl.Err(err))
			}
		} else {
			title = &t
		}
	}

	updated := append(append(models.MessageList{}, chat.Messages...), userMsg, assistantMsg)
	saved, err := s.store.ReplaceChatMessages(ctx, chatID, userID, updated, title)
	if err != nil {
		return nil, nil, err
	}

	return &assistantMsg, saved, nil
}

func (s *Service) ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	return s.store.ListChatsByOwner(ctx, userID)
}

func (s *Service) GetChat(ctx context.Context, chatID uint64, userID string) (*models.Chat, error) {
	return s.store.GetChat(ctx, chatID, userID)
}

func (s *Service) DeleteChat(ctx context.Context, chatID uint64, userID string) error {
	return s.store.DeleteChat(ctx, chatID, userID)
}
