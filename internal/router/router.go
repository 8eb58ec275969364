package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.portal/internal/config"
	"sudooom.portal/internal/handler"
	"sudooom.portal/internal/health"
	"sudooom.portal/internal/jwt"
	"sudooom.portal/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	jwtService *jwt.Service,
	healthChecker *health.Checker,
	conversationHandler *handler.ConversationHandler,
	messageHandler *handler.MessageHandler,
	feedHandler *handler.FeedHandler,
	notificationHandler *handler.NotificationHandler,
	blobHandler *handler.BlobHandler,
) *gin.Engine {
	// 设置 Gin 模式
	gin.SetMode(cfg.App.Mode)

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.HTTP.AllowedOrigins))

	// 探活端点
	r.GET("/health", gin.WrapH(healthChecker))
	r.GET("/ready", func(c *gin.Context) {
		if healthChecker.IsHealthy(c.Request.Context()) {
			c.String(http.StatusOK, "ok")
		} else {
			c.String(http.StatusServiceUnavailable, "not ready")
		}
	})

	// 附件下载（URL 不可猜测，由消息引用分发）
	r.GET("/blobs/*key", blobHandler.Serve)

	// API v1
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtService))
	{
		conversations := v1.Group("/conversations")
		{
			conversations.POST("/open", conversationHandler.Open)
			conversations.GET("/:id/messages", conversationHandler.History)
			conversations.POST("/:id/messages", messageHandler.Send)
			conversations.POST("/:id/attachments", messageHandler.SendAttachment)
			conversations.GET("/:id/feed", feedHandler.Stream)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/count", notificationHandler.Count)
			notifications.DELETE("/:id", notificationHandler.Dismiss)
		}
	}

	return r
}
