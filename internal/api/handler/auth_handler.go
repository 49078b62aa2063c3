package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/snapgram/internal/api/middleware"
	"github.com/d60-Lab/snapgram/internal/service"
	"github.com/d60-Lab/snapgram/internal/token"
	"github.com/d60-Lab/snapgram/pkg/response"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 注册并直接建立会话
// @Summary 用户注册
// @Tags 会话
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, pair, err := h.sessionSvc.Register(c.Request.Context(), req.Name, req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setTokenCookies(c, pair)
	response.Created(c, gin.H{"user": u, "tokens": pair})
}

// Login 登录，签发 access/refresh 令牌对
// @Summary 用户登录
// @Tags 会话
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录凭证"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, pair, err := h.sessionSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setTokenCookies(c, pair)
	response.Success(c, gin.H{"user": u, "tokens": pair})
}

// Refresh 用 refresh 令牌轮转出新令牌对
// @Summary 刷新令牌
// @Tags 会话
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	raw, err := c.Cookie(middleware.RefreshCookie)
	if err != nil || raw == "" {
		response.Unauthorized(c, "no refresh token")
		return
	}
	pair, err := h.sessionSvc.Refresh(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setTokenCookies(c, pair)
	response.Success(c, gin.H{"tokens": pair})
}

// Logout 退出登录。令牌无状态，这里只能清客户端 cookie，
// 已签发的令牌在各自过期前依然可验。
// @Summary 退出登录
// @Tags 会话
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(middleware.AccessCookie, "", -1, "/", "", false, true)
	c.SetCookie(middleware.RefreshCookie, "", -1, "/", "", false, true)
	response.Success(c, nil)
}

func (h *Handler) setTokenCookies(c *gin.Context, pair *service.TokenPair) {
	c.SetCookie(middleware.AccessCookie, pair.Access, int(h.codec.TTL(token.KindAccess).Seconds()), "/", "", false, true)
	c.SetCookie(middleware.RefreshCookie, pair.Refresh, int(h.codec.TTL(token.KindRefresh).Seconds()), "/", "", false, true)
}
