package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fanout-timeline/config"
	"github.com/d60-Lab/fanout-timeline/internal/api/handler"
	"github.com/d60-Lab/fanout-timeline/internal/model"
	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/service"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
	"github.com/d60-Lab/fanout-timeline/pkg/database"
	"github.com/d60-Lab/fanout-timeline/pkg/middleware"
)

const secret = "test-secret"

type app struct {
	router *gin.Engine
	users  repository.UserRepository
	worker *service.FanoutWorker
}

func newApp(t *testing.T) *app {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: gin.TestMode},
		JWT:     config.JWTConfig{Secret: secret},
		Tracing: config.TracingConfig{ServiceName: "test"},
	}

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	lists := repository.NewListRepository(db)
	follows := repository.NewFollowRepository(db)
	fans := repository.NewFanRepository(db)
	relRepo := repository.NewRelationRepository(db)

	fanout := service.NewFanoutTimelineService(repository.NewTimelineStore(rdb), timeline.DefaultCacheLimits(), service.DefaultKeyTTL)
	social := service.NewSocialGraphCache(rdb, relRepo, follows, time.Minute)
	endpoint := service.NewFanoutTimelineEndpointService(fanout, posts, social)
	timelines := service.NewTimelineService(endpoint, posts, users, lists, repository.NewChannelRepository(db), follows)
	rels := service.NewRelationshipService(follows, fans, relRepo, users, social, nil)

	h := handler.New(timelines, service.NewPublisher(db), rels, lists)
	return &app{
		router: NewRouter(cfg, h),
		users:  users,
		worker: service.NewFanoutWorker(db, fans, lists, fanout, 1, 100, 100, 0),
	}
}

func (a *app) user(t *testing.T, name string) (string, string) {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, a.users.Create(context.Background(), &model.User{ID: id, Username: name}))
	token, err := middleware.IssueToken(secret, id, time.Hour)
	require.NoError(t, err)
	return id, token
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func (a *app) do(t *testing.T, method, url, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func TestPublishFollowAndReadHome(t *testing.T) {
	a := newApp(t)
	alice, aliceToken := a.user(t, "alice")
	bob, bobToken := a.user(t, "bob")

	code, _ := a.do(t, http.MethodPost, "/api/v1/relations/follow", aliceToken, map[string]string{"user_id": bob})
	require.Equal(t, http.StatusOK, code)

	code, env := a.do(t, http.MethodPost, "/api/v1/posts", bobToken, map[string]any{"text": "hello"})
	require.Equal(t, http.StatusOK, code)
	var created model.Post
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, bob, created.UserID)

	_, err := a.worker.ProcessOnce(context.Background())
	require.NoError(t, err)

	code, env = a.do(t, http.MethodGet, "/api/v1/timelines/home", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	var home []model.Post
	require.NoError(t, json.Unmarshal(env.Data, &home))
	require.Len(t, home, 1)
	assert.Equal(t, created.ID, home[0].ID)

	code, env = a.do(t, http.MethodGet, "/api/v1/relations/"+bob+"/fans", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), alice)
}

func TestRoutesRequireViewer(t *testing.T) {
	a := newApp(t)
	code, _ := a.do(t, http.MethodGet, "/api/v1/timelines/home", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(t, http.MethodGet, "/api/v1/timelines/local", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.do(t, http.MethodGet, "/api/v1/users/nobody/notes", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListRoutes(t *testing.T) {
	a := newApp(t)
	_, aliceToken := a.user(t, "alice")
	bob, bobToken := a.user(t, "bob")

	code, env := a.do(t, http.MethodPost, "/api/v1/lists", aliceToken, map[string]string{"name": "friends"})
	require.Equal(t, http.StatusOK, code)
	var list model.UserList
	require.NoError(t, json.Unmarshal(env.Data, &list))

	code, _ = a.do(t, http.MethodPost, "/api/v1/lists/"+list.ID+"/members", bobToken, map[string]string{"user_id": bob})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(t, http.MethodPost, "/api/v1/lists/"+list.ID+"/members", aliceToken, map[string]string{"user_id": bob})
	require.Equal(t, http.StatusOK, code)

	a.do(t, http.MethodPost, "/api/v1/posts", bobToken, map[string]any{"text": "for the list"})
	_, err := a.worker.ProcessOnce(context.Background())
	require.NoError(t, err)

	code, env = a.do(t, http.MethodGet, "/api/v1/lists/"+list.ID+"/notes", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	var notes []model.Post
	require.NoError(t, json.Unmarshal(env.Data, &notes))
	assert.Len(t, notes, 1)

	code, _ = a.do(t, http.MethodGet, "/api/v1/lists/"+list.ID+"/notes", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newApp(t)
	code, _ := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, code)
}
