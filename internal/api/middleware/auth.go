package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/snapgram/internal/model"
	"github.com/d60-Lab/snapgram/internal/repository"
	"github.com/d60-Lab/snapgram/internal/token"
	"github.com/d60-Lab/snapgram/pkg/logger"
	"github.com/d60-Lab/snapgram/pkg/response"
)

const (
	// AccessCookie / RefreshCookie 两个令牌各自独立的 cookie
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	principalKey = "principal"
	userKey      = "current_user"
)

// CurrentUser 解析请求主体。坏令牌不打断请求：解不出来就当匿名继续走，
// 允不允许匿名由下游的 RequireUser/RequireAdmin 决定。
func CurrentUser(codec *token.Codec, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			c.Next()
			return
		}

		p, err := codec.Decode(raw, token.KindAccess)
		if err != nil {
			logger.Warn("access token rejected", zap.Error(err))
			c.Next()
			return
		}

		u, err := users.FindByID(c.Request.Context(), p.ID)
		if err != nil {
			logger.Error("identity lookup failed", zap.Uint("id", p.ID), zap.Error(err))
			c.Next()
			return
		}
		if u == nil {
			// 令牌有效但身份已注销
			c.Next()
			return
		}

		c.Set(principalKey, p)
		c.Set(userKey, u)
		c.Next()
	}
}

// RequireUser 授权边界：没有主体直接 401
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c); !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin 管理端边界：非 admin 角色 403
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		if p.Role != token.RoleAdmin {
			response.Forbidden(c, "admin only")
			c.Abort()
			return
		}
		c.Next()
	}
}

// PrincipalFrom 取出请求主体；匿名请求返回 (zero, false)
func PrincipalFrom(c *gin.Context) (token.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return token.Principal{}, false
	}
	p, ok := v.(token.Principal)
	return p, ok
}

// UserFrom 取出已解析的用户实体
func UserFrom(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok
}

// cookie 优先，Authorization: Bearer 兜底
func extractToken(c *gin.Context) string {
	if v, err := c.Cookie(AccessCookie); err == nil && v != "" {
		return v
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
