package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fanout-timeline/internal/service"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
	"github.com/d60-Lab/fanout-timeline/pkg/middleware"
	"github.com/d60-Lab/fanout-timeline/pkg/response"
)

// timelineRequest 各时间线共用的分页与开关参数。postid 规则在 router 注册
type timelineRequest struct {
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=100"`
	SinceID      string `form:"sinceId" binding:"omitempty,postid"`
	UntilID      string `form:"untilId" binding:"omitempty,postid"`
	SinceDate    int64  `form:"sinceDate" binding:"omitempty,min=0"`
	UntilDate    int64  `form:"untilDate" binding:"omitempty,min=0"`
	AllowPartial bool   `form:"allowPartial"`

	WithFiles             bool  `form:"withFiles"`
	WithRenotes           *bool `form:"withRenotes"`
	IncludeMyRenotes      *bool `form:"includeMyRenotes"`
	IncludeRenotedMyNotes *bool `form:"includeRenotedMyNotes"`
	IncludeLocalRenotes   *bool `form:"includeLocalRenotes"`
	ExcludeReplies        bool  `form:"excludeReplies"`
	ExcludePureRenotes    bool  `form:"excludePureRenotes"`

	WithReplies      bool `form:"withReplies"`
	WithChannelNotes bool `form:"withChannelNotes"`
}

func orDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (r timelineRequest) query(viewerID string) service.TimelineQuery {
	f := timeline.DefaultFlags()
	f.WithFiles = r.WithFiles
	f.WithRenotes = orDefault(r.WithRenotes, f.WithRenotes)
	f.IncludeMyRenotes = orDefault(r.IncludeMyRenotes, f.IncludeMyRenotes)
	f.IncludeRenotedMyNotes = orDefault(r.IncludeRenotedMyNotes, f.IncludeRenotedMyNotes)
	f.IncludeLocalRenotes = orDefault(r.IncludeLocalRenotes, f.IncludeLocalRenotes)
	f.ExcludeReplies = r.ExcludeReplies
	f.ExcludePureRenotes = r.ExcludePureRenotes
	return service.TimelineQuery{
		ViewerID:         viewerID,
		UntilID:          timeline.Cursor(r.UntilID, r.UntilDate),
		SinceID:          timeline.Cursor(r.SinceID, r.SinceDate),
		Limit:            r.Limit,
		AllowPartial:     r.AllowPartial,
		Flags:            f,
		WithReplies:      r.WithReplies,
		WithChannelNotes: r.WithChannelNotes,
	}
}

func bindTimeline(c *gin.Context) (service.TimelineQuery, bool) {
	var req timelineRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return service.TimelineQuery{}, false
	}
	return req.query(middleware.ViewerID(c)), true
}

// HomeTimeline 首页时间线
// @Summary 首页时间线（自己 + 关注的人）
// @Tags 时间线
// @Produce json
// @Security BearerAuth
// @Param limit query int false "数量" default(10)
// @Param sinceId query string false "只返回比该 id 新的帖子"
// @Param untilId query string false "只返回比该 id 旧的帖子"
// @Param sinceDate query int false "unix 毫秒，sinceId 缺省时使用"
// @Param untilDate query int false "unix 毫秒，untilId 缺省时使用"
// @Param allowPartial query bool false "过滤后有结果即返回"
// @Param withFiles query bool false "只看带附件的帖子"
// @Param withRenotes query bool false "包含转发" default(true)
// @Param excludePureRenotes query bool false "排除纯转发"
// @Success 200 {object} response.Response{data=[]model.Post}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/timelines/home [get]
func (h *Handler) HomeTimeline(c *gin.Context) {
	q, ok := bindTimeline(c)
	if !ok {
		return
	}
	posts, err := h.timelines.Home(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, posts)
}

// LocalTimeline 本地时间线
// @Summary 本地公开时间线
// @Tags 时间线
// @Produce json
// @Param limit query int false "数量" default(10)
// @Param sinceId query string false "只返回比该 id 新的帖子"
// @Param untilId query string false "只返回比该 id 旧的帖子"
// @Param withFiles query bool false "只看带附件的帖子"
// @Success 200 {object} response.Response{data=[]model.Post}
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/timelines/local [get]
func (h *Handler) LocalTimeline(c *gin.Context) {
	q, ok := bindTimeline(c)
	if !ok {
		return
	}
	posts, err := h.timelines.Local(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, posts)
}

// UserTimeline 某个用户的帖子
// @Summary 用户时间线
// @Tags 时间线
// @Produce json
// @Param user_id path string true "用户ID"
// @Param limit query int false "数量" default(10)
// @Param sinceId query string false "只返回比该 id 新的帖子"
// @Param untilId query string false "只返回比该 id 旧的帖子"
// @Param withReplies query bool false "包含回复"
// @Param withChannelNotes query bool false "包含频道帖"
// @Param withFiles query bool false "只看带附件的帖子"
// @Success 200 {object} response.Response{data=[]model.Post}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{user_id}/notes [get]
func (h *Handler) UserTimeline(c *gin.Context) {
	q, ok := bindTimeline(c)
	if !ok {
		return
	}
	posts, err := h.timelines.User(c.Request.Context(), c.Param("user_id"), q)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, posts)
}

// ListTimeline 列表时间线
// @Summary 列表时间线（仅列表所有者）
// @Tags 时间线
// @Produce json
// @Security BearerAuth
// @Param list_id path string true "列表ID"
// @Param limit query int false "数量" default(10)
// @Param sinceId query string false "只返回比该 id 新的帖子"
// @Param untilId query string false "只返回比该 id 旧的帖子"
// @Success 200 {object} response.Response{data=[]model.Post}
// @Failure 404 {object} response.Response
// @Router /api/v1/lists/{list_id}/notes [get]
func (h *Handler) ListTimeline(c *gin.Context) {
	q, ok := bindTimeline(c)
	if !ok {
		return
	}
	posts, err := h.timelines.List(c.Request.Context(), c.Param("list_id"), q)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, posts)
}

// ChannelTimeline 频道时间线
// @Summary 频道时间线
// @Tags 时间线
// @Produce json
// @Param channel_id path string true "频道ID"
// @Param limit query int false "数量" default(10)
// @Param sinceId query string false "只返回比该 id 新的帖子"
// @Param untilId query string false "只返回比该 id 旧的帖子"
// @Success 200 {object} response.Response{data=[]model.Post}
// @Failure 404 {object} response.Response
// @Router /api/v1/channels/{channel_id}/notes [get]
func (h *Handler) ChannelTimeline(c *gin.Context) {
	q, ok := bindTimeline(c)
	if !ok {
		return
	}
	posts, err := h.timelines.Channel(c.Request.Context(), c.Param("channel_id"), q)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, posts)
}
