package api

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/fanout-timeline/docs"

	"github.com/d60-Lab/fanout-timeline/config"
	"github.com/d60-Lab/fanout-timeline/internal/api/handler"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
	"github.com/d60-Lab/fanout-timeline/pkg/middleware"
)

// RegisterValidators 注册自定义校验规则：postid 要求规范的 UUIDv7 字符串
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("postid", func(fl validator.FieldLevel) bool {
			return timeline.ValidID(fl.Field().String())
		})
	}
}

// NewRouter 组装路由
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(), otelgin.Middleware(cfg.Tracing.ServiceName), gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.RequireViewer(cfg.JWT.Secret)
	optional := middleware.OptionalViewer(cfg.JWT.Secret)

	v1 := r.Group("/api/v1", middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	{
		v1.GET("/timelines/home", auth, h.HomeTimeline)
		v1.GET("/timelines/local", optional, h.LocalTimeline)
		v1.GET("/users/:user_id/notes", optional, h.UserTimeline)
		v1.GET("/channels/:channel_id/notes", optional, h.ChannelTimeline)

		v1.POST("/posts", auth, h.CreatePost)

		lists := v1.Group("/lists", auth)
		lists.POST("", h.CreateList)
		lists.GET("/:list_id/notes", h.ListTimeline)
		lists.POST("/:list_id/members", h.AddListMember)
		lists.DELETE("/:list_id/members/:user_id", h.RemoveListMember)

		rel := v1.Group("/relations")
		rel.POST("/follow", auth, h.Follow)
		rel.POST("/unfollow", auth, h.Unfollow)
		rel.POST("/mute", auth, h.Mute)
		rel.POST("/unmute", auth, h.Unmute)
		rel.POST("/renote-mute", auth, h.MuteRenotes)
		rel.POST("/renote-unmute", auth, h.UnmuteRenotes)
		rel.POST("/block", auth, h.Block)
		rel.POST("/unblock", auth, h.Unblock)
		rel.POST("/instance-mute", auth, h.MuteInstance)
		rel.POST("/instance-unmute", auth, h.UnmuteInstance)
		rel.GET("/:user_id/following", h.ListFollowing)
		rel.GET("/:user_id/fans", h.ListFans)
	}
	return r
}
