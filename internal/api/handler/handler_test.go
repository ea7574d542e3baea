package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fanout-timeline/internal/model"
	"github.com/d60-Lab/fanout-timeline/internal/service"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
	"github.com/d60-Lab/fanout-timeline/pkg/response"
)

func init() { gin.SetMode(gin.TestMode) }

// fakeTimelines 记录收到的查询，按需返回错误
type fakeTimelines struct {
	last  service.TimelineQuery
	scope string
	posts []*model.Post
	err   error
}

func (f *fakeTimelines) record(scope string, q service.TimelineQuery) ([]*model.Post, error) {
	f.scope, f.last = scope, q
	return f.posts, f.err
}

func (f *fakeTimelines) Home(_ context.Context, q service.TimelineQuery) ([]*model.Post, error) {
	return f.record("home", q)
}

func (f *fakeTimelines) User(_ context.Context, id string, q service.TimelineQuery) ([]*model.Post, error) {
	return f.record("user:"+id, q)
}

func (f *fakeTimelines) List(_ context.Context, id string, q service.TimelineQuery) ([]*model.Post, error) {
	return f.record("list:"+id, q)
}

func (f *fakeTimelines) Local(_ context.Context, q service.TimelineQuery) ([]*model.Post, error) {
	return f.record("local", q)
}

func (f *fakeTimelines) Channel(_ context.Context, id string, q service.TimelineQuery) ([]*model.Post, error) {
	return f.record("channel:"+id, q)
}

func newTestRouter(tl service.TimelineService) *gin.Engine {
	h := New(tl, nil, nil, nil)
	r := gin.New()
	r.GET("/home", func(c *gin.Context) { c.Set("viewer_id", "me"); c.Next() }, h.HomeTimeline)
	r.GET("/users/:user_id/notes", h.UserTimeline)
	r.GET("/channels/:channel_id/notes", h.ChannelTimeline)
	return r
}

func get(r http.Handler, url string) (*httptest.ResponseRecorder, response.Response) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	var body response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestTimelineQueryBinding(t *testing.T) {
	registerPostID(t)
	id, err := timeline.NewID()
	require.NoError(t, err)
	tl := &fakeTimelines{posts: []*model.Post{}}
	r := newTestRouter(tl)

	w, _ := get(r, fmt.Sprintf("/home?limit=5&untilId=%s&sinceDate=1700000000000&withFiles=true&withRenotes=false&allowPartial=true", id))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "home", tl.scope)
	assert.Equal(t, "me", tl.last.ViewerID)
	assert.Equal(t, 5, tl.last.Limit)
	assert.Equal(t, id, tl.last.UntilID)
	assert.Equal(t, timeline.Cursor("", 1700000000000), tl.last.SinceID)
	assert.True(t, tl.last.AllowPartial)
	assert.True(t, tl.last.Flags.WithFiles)
	assert.False(t, tl.last.Flags.WithRenotes)
	assert.True(t, tl.last.Flags.IncludeMyRenotes)
	assert.False(t, tl.last.Flags.ExcludePureRenotes)

	w, _ = get(r, "/home?excludePureRenotes=true&excludeReplies=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, tl.last.Flags.ExcludePureRenotes)
	assert.True(t, tl.last.Flags.ExcludeReplies)

	w, _ = get(r, "/users/u1/notes?withReplies=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user:u1", tl.scope)
	assert.Equal(t, "", tl.last.ViewerID)
	assert.True(t, tl.last.WithReplies)
}

func TestTimelineQueryValidation(t *testing.T) {
	registerPostID(t)
	r := newTestRouter(&fakeTimelines{})
	for _, url := range []string{
		"/home?limit=101",
		"/home?untilId=abc",
		"/home?sinceId=0190A0B1-0000-7000-8000-000000000000",
		"/home?sinceDate=-1",
	} {
		w, _ := get(r, url)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
	}
}

func TestTimelineErrorMapping(t *testing.T) {
	registerPostID(t)
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrNoSuchChannel, http.StatusNotFound},
		{service.ErrInvalidCursor, http.StatusBadRequest},
		{fmt.Errorf("%w: boom", service.ErrColdStoreUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := newTestRouter(&fakeTimelines{err: tt.err})
			w, body := get(r, "/channels/c1/notes")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.status, body.Code)
		})
	}
}
