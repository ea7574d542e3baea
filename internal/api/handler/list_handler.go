package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/service"
	"github.com/d60-Lab/fanout-timeline/pkg/middleware"
	"github.com/d60-Lab/fanout-timeline/pkg/response"
)

type createListRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type memberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// CreateList 新建列表
// @Summary 新建用户列表
// @Tags 列表
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createListRequest true "列表名"
// @Success 200 {object} response.Response{data=model.UserList}
// @Router /api/v1/lists [post]
func (h *Handler) CreateList(c *gin.Context) {
	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	list, err := h.lists.Create(c.Request.Context(), middleware.ViewerID(c), req.Name)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}

// ownList 只有所有者能改成员
func (h *Handler) ownList(c *gin.Context) (string, bool) {
	listID := c.Param("list_id")
	list, err := h.lists.FindByID(c.Request.Context(), listID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && list.UserID != middleware.ViewerID(c)) {
		response.NotFound(c, service.ErrNoSuchList.Error())
		return "", false
	}
	if err != nil {
		response.InternalError(c, err)
		return "", false
	}
	return listID, true
}

// AddListMember 加成员；之后成员的新帖才会推到列表
// @Summary 添加列表成员
// @Tags 列表
// @Accept json
// @Security BearerAuth
// @Param list_id path string true "列表ID"
// @Param request body memberRequest true "成员"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/lists/{list_id}/members [post]
func (h *Handler) AddListMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	listID, ok := h.ownList(c)
	if !ok {
		return
	}
	if err := h.lists.AddMember(c.Request.Context(), listID, req.UserID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// RemoveListMember 移除成员
// @Summary 移除列表成员
// @Tags 列表
// @Security BearerAuth
// @Param list_id path string true "列表ID"
// @Param user_id path string true "成员ID"
// @Success 200 {object} response.Response
// @Router /api/v1/lists/{list_id}/members/{user_id} [delete]
func (h *Handler) RemoveListMember(c *gin.Context) {
	listID, ok := h.ownList(c)
	if !ok {
		return
	}
	if err := h.lists.RemoveMember(c.Request.Context(), listID, c.Param("user_id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}
