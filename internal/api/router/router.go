package router

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/snapgram/config"
	"github.com/d60-Lab/snapgram/internal/api/handler"
	"github.com/d60-Lab/snapgram/internal/api/middleware"
	"github.com/d60-Lab/snapgram/internal/repository"
	"github.com/d60-Lab/snapgram/internal/token"
)

const serviceName = "snapgram"

// New 组装 gin 引擎：请求 ID、压缩、链路追踪、sentry 恢复、身份解析
func New(cfg *config.Config, h *handler.Handler, codec *token.Codec, users repository.UserRepository) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: false}))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.CurrentUser(codec, users))

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/refresh", h.Refresh)
			auth.POST("/logout", h.Logout)
		}

		userGroup := v1.Group("/users")
		{
			userGroup.GET("/me", middleware.RequireUser(), h.Me)
		}

		relations := v1.Group("/relations")
		{
			relations.POST("/follow", middleware.RequireUser(), h.Follow)
			relations.GET("/status", h.FollowStatus)
			relations.GET("/:user_id/followers", h.ListFollowers)
			relations.GET("/:user_id/following", h.ListFollowing)
			relations.GET("/:user_id/count", h.FollowCounts)
		}
	}

	return r
}
