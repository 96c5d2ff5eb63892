package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rizzchat/server/internal/apperror"
	"github.com/rizzchat/server/internal/common"
	"github.com/rizzchat/server/internal/sl"
)

type redeemReq struct {
	Code string `json:"code"`
}

func (h *Handler) Redeem(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req redeemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	err := h.RedeemSvc.Redeem(c.Request.Context(), req.Code, uid)
	switch {
	case err == nil:
		common.OK(c, gin.H{
			"message": "Code redeemed successfully! You now have Pro access.",
		})
	case errors.Is(err, apperror.ErrInvalidCode),
		errors.Is(err, apperror.ErrInvalidInput):
		common.Fail(c, http.StatusBadRequest, 10030, "Invalid or already used code")
	case errors.Is(err, apperror.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40401, "user not found")
	default:
		h.Log.Error("redeem failed", sl.Err(err))
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}

type createCodeReq struct {
	Code string `json:"code"`
}

// CreateCode is the admin operation behind POST /api/admin/codes.
func (h *Handler) CreateCode(c *gin.Context) {
	var req createCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	rc, err := h.RedeemSvc.CreateCode(c.Request.Context(), req.Code)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidInput) {
			common.Fail(c, http.StatusBadRequest, 10031, "code already exists")
			return
		}
		h.Log.Error("create code failed", sl.Err(err))
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	common.OK(c, rc)
}
