package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rizzchat/server/internal/common"
	"github.com/rizzchat/server/internal/config"
	"github.com/rizzchat/server/internal/httpapi/handlers"
	"github.com/rizzchat/server/internal/httpapi/middleware"
	"github.com/rizzchat/server/internal/redeem"
	"github.com/rizzchat/server/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, events redeem.Publisher, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, rds, events, log)

	r.GET("/ping", h.Ping)

	// captcha + local accounts
	r.POST("/captcha", h.SendCaptcha)
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)

	authGroup := r.Group("/api")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/auth/user", h.GetAuthUser)

	authGroup.GET("/chats", h.ListChats)
	authGroup.POST("/chats", h.CreateChat)
	authGroup.GET("/chats/:id", h.GetChat)
	authGroup.POST("/chats/:id/messages", h.SendMessage)
	authGroup.DELETE("/chats/:id", h.DeleteChat)

	authGroup.POST("/redeem", h.Redeem)

	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.AdminRequired(cfg.AdminToken))
	adminGroup.POST("/codes", h.CreateCode)

	return r
}
