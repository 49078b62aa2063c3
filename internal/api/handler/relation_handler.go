package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/snapgram/internal/api/middleware"
	"github.com/d60-Lab/snapgram/internal/model"
	"github.com/d60-Lab/snapgram/pkg/response"
)

type followRequest struct {
	FollowingID uint   `json:"following_id" binding:"required"`
	Status      string `json:"status" binding:"required"`
}

// Follow 对目标用户施加一次状态迁移（follow/unfollow/block），幂等
// @Summary 关注/取关/拉黑
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "目标与期望状态"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/relations/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	view, err := h.relSvc.Follow(c.Request.Context(), p.ID, req.FollowingID, model.FollowStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, view)
}

// FollowStatus 查看者对目标的关系视图。匿名查看者恒为 not_following，
// 查看自己恒为 self。
// @Summary 查询关注状态
// @Tags 关系链
// @Param subject_id query int true "目标用户ID"
// @Success 200 {object} response.Response
// @Router /api/v1/relations/status [get]
func (h *Handler) FollowStatus(c *gin.Context) {
	subjectID, err := strconv.ParseUint(c.Query("subject_id"), 10, 64)
	if err != nil || subjectID == 0 {
		response.BadRequest(c, "invalid subject_id")
		return
	}

	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		// 匿名：没有任何关系可言，也永远不是 self
		response.Success(c, gin.H{"status": model.StatusNotFollowing})
		return
	}

	status, err := h.relSvc.GetFollowStatus(c.Request.Context(), p.ID, uint(subjectID))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"status": status})
}

// ListFollowers 查询某用户的粉丝（经 Redis 粉丝页缓存）
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param user_id path int true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.followers.FetchFollowers(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFollowing 查询某用户关注的人（只含 status=follow）
// @Summary 查询关注列表
// @Tags 关系链
// @Param user_id path int true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.relSvc.GetFollowing(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// FollowCounts 粉丝数与关注数
// @Summary 粉丝/关注计数
// @Tags 关系链
// @Param user_id path int true "用户ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/count [get]
func (h *Handler) FollowCounts(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	followers, following, err := h.relSvc.CountFollowersAndFollowing(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"followers": followers, "following": following})
}

func parseUserID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidUserID
	}
	return uint(id), nil
}
