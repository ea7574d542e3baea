package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fanout-timeline/pkg/middleware"
	"github.com/d60-Lab/fanout-timeline/pkg/response"
)

type targetRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type instanceRequest struct {
	Host string `json:"host" binding:"required,hostname"`
}

// relate 当前用户对目标用户执行一次关系变更
func (h *Handler) relate(c *gin.Context, op func(ctx context.Context, from, to string) error) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := op(c.Request.Context(), middleware.ViewerID(c), req.UserID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Follow 关注
// @Summary 关注用户（同时写粉丝表）
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body targetRequest true "目标用户"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/follow [post]
func (h *Handler) Follow(c *gin.Context) { h.relate(c, h.relService.Follow) }

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body targetRequest true "目标用户"
// @Success 200 {object} response.Response
// @Router /api/v1/relations/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) { h.relate(c, h.relService.Unfollow) }

// Mute 屏蔽
// @Summary 屏蔽用户
// @Tags 关系链
// @Accept json
// @Security BearerAuth
// @Param request body targetRequest true "目标用户"
// @Success 200 {object} response.Response
// @Router /api/v1/relations/mute [post]
func (h *Handler) Mute(c *gin.Context) { h.relate(c, h.relService.Mute) }

// @Summary 取消屏蔽
// @Tags 关系链
// @Security BearerAuth
// @Param request body targetRequest true "目标用户"
// @Success 200 {object} response.Response
// @Router /api/v1/relations/unmute [post]
func (h *Handler) Unmute(c *gin.Context) { h.relate(c, h.relService.Unmute) }

// @Summary 屏蔽用户的转发
// @Tags 关系链
// @Security BearerAuth
// @Param request body targetRequest true "目标用户"
// @Success 200 {object} response.Response
// @Router /api/v1/relations/renote-mute [post]
func (h *Handler) MuteRenotes(c *gin.Context) { h.relate(c, h.relService.MuteRenotes) }

// @Summary 取消屏蔽转发
// @Tags 关系链
// @Security BearerAuth
// @Param request body targetRequest true "目标用户"
// @Success 200 {object} response.Response
// @Router /api/v1/relations/renote-unmute [post]
func (h *Handler) UnmuteRenotes(c *gin.Context) { h.relate(c, h.relService.UnmuteRenotes) }

// Block 拉黑
// @Summary 拉黑用户
// @Tags 关系链
// @Security BearerAuth
// @Param request body targetRequest true "目标用户"
// @Success 200 {object} response.Response
// @Router /api/v1/relations/block [post]
func (h *Handler) Block(c *gin.Context) { h.relate(c, h.relService.Block) }

// @Summary 取消拉黑
// @Tags 关系链
// @Security BearerAuth
// @Param request body targetRequest true "目标用户"
// @Success 200 {object} response.Response
// @Router /api/v1/relations/unblock [post]
func (h *Handler) Unblock(c *gin.Context) { h.relate(c, h.relService.Unblock) }

func (h *Handler) instance(c *gin.Context, op func(ctx context.Context, userID, host string) error) {
	var req instanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := op(c.Request.Context(), middleware.ViewerID(c), req.Host); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// MuteInstance 屏蔽实例
// @Summary 屏蔽整个实例
// @Tags 关系链
// @Security BearerAuth
// @Param request body instanceRequest true "实例域名"
// @Success 200 {object} response.Response
// @Router /api/v1/relations/instance-mute [post]
func (h *Handler) MuteInstance(c *gin.Context) { h.instance(c, h.relService.MuteInstance) }

// @Summary 取消屏蔽实例
// @Tags 关系链
// @Security BearerAuth
// @Param request body instanceRequest true "实例域名"
// @Success 200 {object} response.Response
// @Router /api/v1/relations/instance-unmute [post]
func (h *Handler) UnmuteInstance(c *gin.Context) { h.instance(c, h.relService.UnmuteInstance) }

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	userID := c.Param("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.relService.ListFollowing(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFans 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/fans [get]
func (h *Handler) ListFans(c *gin.Context) {
	userID := c.Param("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.relService.ListFans(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
