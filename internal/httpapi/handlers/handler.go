package handlers

import (
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/rizzchat/server/internal/ai"
	"github.com/rizzchat/server/internal/chat"
	"github.com/rizzchat/server/internal/config"
	"github.com/rizzchat/server/internal/email"
	"github.com/rizzchat/server/internal/quota"
	"github.com/rizzchat/server/internal/redeem"
	"github.com/rizzchat/server/internal/store"
	"github.com/rizzchat/server/internal/store/redisstore"
)

type Handler struct {
	Cfg         config.Config
	Store       *store.Store
	Redis       *redisstore.Store
	SMTPSetting email.SMTPConfig
	ChatSvc     *chat.Service
	RedeemSvc   *redeem.Service
	Log         *slog.Logger
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, events redeem.Publisher, log *slog.Logger) *Handler {
	st := store.New(db)

	var provider ai.Provider
	switch strings.ToLower(cfg.AIProvider) {
	case "", "openai":
		provider = ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "ollama":
		provider = ai.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel)
	default:
		panic(fmt.Sprintf("unsupported AI_PROVIDER=%q", cfg.AIProvider))
	}

	engine := quota.NewEngine(cfg.QuotaDailyLimit)

	return &Handler{
		Cfg:   cfg,
		Store: st,
		Redis: rds,
		SMTPSetting: email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		},
		ChatSvc:   chat.NewService(st, provider, engine, log),
		RedeemSvc: redeem.NewService(st, events, log),
		Log:       log,
	}
}
