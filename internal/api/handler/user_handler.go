package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/snapgram/internal/api/middleware"
	"github.com/d60-Lab/snapgram/pkg/response"
)

// Me 返回当前登录用户
// @Summary 当前用户
// @Tags 用户
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/users/me [get]
func (h *Handler) Me(c *gin.Context) {
	u, ok := middleware.UserFrom(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	response.Success(c, u)
}
