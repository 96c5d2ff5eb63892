package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rizzchat/server/internal/apperror"
	"github.com/rizzchat/server/internal/common"
	"github.com/rizzchat/server/internal/sl"
)

// failFromError maps the service error taxonomy onto HTTP statuses.
func (h *Handler) failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40404, "chat not found")
	case errors.Is(err, apperror.ErrQuotaExceeded):
		common.Fail(c, http.StatusTooManyRequests, 42901,
			"Daily message limit reached. Upgrade to Pro for unlimited messages.")
	case errors.Is(err, apperror.ErrInvalidInput):
		common.Fail(c, http.StatusBadRequest, 10002, "message is required")
	case errors.Is(err, apperror.ErrGenerationFailed):
		common.Fail(c, http.StatusBadGateway, 50201, "failed to generate chat response")
	default:
		h.Log.Error("chat handler error", sl.Err(err))
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}

func chatIDFromParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid chat id")
		return 0, false
	}
	return id, true
}

func (h *Handler) ListChats(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	chats, err := h.ChatSvc.ListChats(c.Request.Context(), uid)
	if err != nil {
		h.failFromError(c, err)
		return
	}
	common.OK(c, chats)
}

func (h *Handler) GetChat(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	id, ok := chatIDFromParam(c)
	if !ok {
		return
	}

	chat, err := h.ChatSvc.GetChat(c.Request.Context(), id, uid)
	if err != nil {
		h.failFromError(c, err)
		return
	}
	common.OK(c, chat)
}

func (h *Handler) CreateChat(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	chat, err := h.ChatSvc.CreateChat(c.Request.Context(), uid)
	if err != nil {
		h.failFromError(c, err)
		return
	}
	common.OK(c, chat)
}

type sendMessageReq struct {
	Message string `json:"message"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	id, ok := chatIDFromParam(c)
	if !ok {
		return
	}

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	msg, chat, err := h.ChatSvc.SendMessage(c.Request.Context(), id, uid, req.Message)
	if err != nil {
		h.failFromError(c, err)
		return
	}

	common.OK(c, gin.H{
		"message": msg,
		"chat":    chat,
	})
}

func (h *Handler) DeleteChat(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	id, ok := chatIDFromParam(c)
	if !ok {
		return
	}

	if err := h.ChatSvc.DeleteChat(c.Request.Context(), id, uid); err != nil {
		h.failFromError(c, err)
		return
	}
	common.OK(c, gin.H{"deleted": true})
}
