package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/service"
	"github.com/d60-Lab/fanout-timeline/pkg/response"
)

// Handler HTTP 入口，聚合各服务
type Handler struct {
	timelines  service.TimelineService
	publisher  *service.Publisher
	relService service.RelationshipService
	lists      repository.ListRepository
}

func New(timelines service.TimelineService, publisher *service.Publisher, relService service.RelationshipService, lists repository.ListRepository) *Handler {
	return &Handler{timelines: timelines, publisher: publisher, relService: relService, lists: lists}
}

// fail 把服务层错误映射到响应码
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoSuchUser),
		errors.Is(err, service.ErrNoSuchList),
		errors.Is(err, service.ErrNoSuchChannel),
		errors.Is(err, service.ErrNoSuchReply),
		errors.Is(err, service.ErrNoSuchRenote),
		errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidCursor),
		errors.Is(err, service.ErrFollowSelf),
		errors.Is(err, service.ErrEmptyPost),
		errors.Is(err, service.ErrMissingVisible):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrColdStoreUnavailable):
		response.ServiceUnavailable(c, err)
	default:
		response.InternalError(c, err)
	}
}
