package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fanout-timeline/internal/model"
	"github.com/d60-Lab/fanout-timeline/internal/service"
	"github.com/d60-Lab/fanout-timeline/pkg/middleware"
	"github.com/d60-Lab/fanout-timeline/pkg/response"
)

type createPostRequest struct {
	Text           *string          `json:"text" binding:"omitempty,max=3000"`
	Visibility     model.Visibility `json:"visibility" binding:"omitempty,oneof=public home followers specified"`
	VisibleUserIDs []string         `json:"visibleUserIds" binding:"omitempty,dive,required"`
	FileIDs        []string         `json:"fileIds" binding:"omitempty,max=16,dive,required"`
	HasPoll        bool             `json:"hasPoll"`
	ReplyID        *string          `json:"replyId" binding:"omitempty,postid"`
	RenoteID       *string          `json:"renoteId" binding:"omitempty,postid"`
	ChannelID      *string          `json:"channelId"`
}

// CreatePost 发帖，扇出异步完成
// @Summary 发帖
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "帖子内容"
// @Success 200 {object} response.Response{data=model.Post}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.publisher.Publish(c.Request.Context(), service.PublishInput{
		AuthorID:       middleware.ViewerID(c),
		Text:           req.Text,
		Visibility:     req.Visibility,
		VisibleUserIDs: req.VisibleUserIDs,
		FileIDs:        req.FileIDs,
		HasPoll:        req.HasPoll,
		ReplyID:        req.ReplyID,
		RenoteID:       req.RenoteID,
		ChannelID:      req.ChannelID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, post)
}
