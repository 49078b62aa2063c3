package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/snapgram/internal/cache"
	"github.com/d60-Lab/snapgram/internal/service"
	"github.com/d60-Lab/snapgram/internal/token"
	"github.com/d60-Lab/snapgram/pkg/response"
)

var errInvalidUserID = errors.New("invalid user id")

// Handler HTTP 处理器集合
type Handler struct {
	sessionSvc service.SessionService
	relSvc     service.RelationshipService
	followers  *cache.FollowerCache
	codec      *token.Codec
}

func New(sessionSvc service.SessionService, relSvc service.RelationshipService, followers *cache.FollowerCache, codec *token.Codec) *Handler {
	return &Handler{sessionSvc: sessionSvc, relSvc: relSvc, followers: followers, codec: codec}
}

// fail 把服务层的哨兵错误翻译成传输层状态码
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFollowSelf), errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrUserExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
