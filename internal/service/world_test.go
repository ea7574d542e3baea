package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fanout-timeline/internal/model"
	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
	"github.com/d60-Lab/fanout-timeline/pkg/database"
)

// world 真实仓储（内存 sqlite）+ miniredis 组装的完整服务
type world struct {
	mr        *miniredis.Miniredis
	rdb       *redis.Client
	users     repository.UserRepository
	channels  repository.ChannelRepository
	lists     repository.ListRepository
	posts     repository.PostRepository
	fans      repository.FanRepository
	fanout    *FanoutTimelineService
	social    *SocialGraphCache
	rels      RelationshipService
	publisher *Publisher
	worker    *FanoutWorker
	timelines TimelineService
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	w := &world{
		mr:       mr,
		rdb:      rdb,
		users:    repository.NewUserRepository(db),
		channels: repository.NewChannelRepository(db),
		lists:    repository.NewListRepository(db),
		posts:    repository.NewPostRepository(db),
		fans:     repository.NewFanRepository(db),
	}
	follows := repository.NewFollowRepository(db)
	relRepo := repository.NewRelationRepository(db)

	w.fanout = NewFanoutTimelineService(repository.NewTimelineStore(rdb), timeline.DefaultCacheLimits(), DefaultKeyTTL)
	w.social = NewSocialGraphCache(rdb, relRepo, follows, 0)
	w.rels = NewRelationshipService(follows, w.fans, relRepo, w.users, w.social, nil)
	w.publisher = NewPublisher(db)
	w.worker = NewFanoutWorker(db, w.fans, w.lists, w.fanout, 1, 2, 16, 0)
	endpoint := NewFanoutTimelineEndpointService(w.fanout, w.posts, w.social)
	w.timelines = NewTimelineService(endpoint, w.posts, w.users, w.lists, w.channels, follows)
	return w
}

func (w *world) user(t *testing.T, name string, host *string) string {
	t.Helper()
	u := &model.User{ID: uuid.NewString(), Username: name, Host: host}
	require.NoError(t, w.users.Create(context.Background(), u))
	return u.ID
}

func (w *world) publish(t *testing.T, in PublishInput) string {
	t.Helper()
	if in.Text == nil && len(in.FileIDs) == 0 && in.RenoteID == nil {
		in.Text = sp("hello")
	}
	p, err := w.publisher.Publish(context.Background(), in)
	require.NoError(t, err)
	return p.ID
}

// drain 处理完所有 pending 事件
func (w *world) drain(t *testing.T) {
	t.Helper()
	for {
		n, err := w.worker.ProcessOnce(context.Background())
		require.NoError(t, err)
		if n == 0 {
			return
		}
	}
}

func postIDsOf(posts []*model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
