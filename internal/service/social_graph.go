package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
	"github.com/d60-Lab/fanout-timeline/pkg/logger"
	"github.com/d60-Lab/fanout-timeline/pkg/metrics"
)

const (
	relMuted          = "muted"
	relRenoteMuted    = "renote_muted"
	relBlockedBy      = "blocked_by"
	relMutedInstances = "muted_instances"
	relFollowing      = "following"
)

var relationKinds = []string{relMuted, relRenoteMuted, relBlockedBy, relMutedInstances, relFollowing}

// SocialGraphCache 观看者关系集合，逐类以 JSON 缓存在 redis
type SocialGraphCache struct {
	rdb        redis.UniversalClient
	relRepo    repository.RelationRepository
	followRepo repository.FollowRepository
	ttl        time.Duration
}

func NewSocialGraphCache(rdb redis.UniversalClient, relRepo repository.RelationRepository, followRepo repository.FollowRepository, ttl time.Duration) *SocialGraphCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SocialGraphCache{rdb: rdb, relRepo: relRepo, followRepo: followRepo, ttl: ttl}
}

func relationKey(kind, viewerID string) string {
	return fmt.Sprintf("relations:%s:%s", kind, viewerID)
}

// Relations 并发加载五类集合；匿名观看者返回空集合
func (c *SocialGraphCache) Relations(ctx context.Context, viewerID string) (*timeline.Relations, error) {
	rel := &timeline.Relations{}
	if viewerID == "" {
		return rel, nil
	}

	type loader struct {
		kind string
		load func(context.Context, string) ([]string, error)
		dst  *timeline.Set
	}
	loaders := []loader{
		{relMuted, c.relRepo.MutedIDs, &rel.Muted},
		{relRenoteMuted, c.relRepo.RenoteMutedIDs, &rel.RenoteMuted},
		{relBlockedBy, c.relRepo.BlockerIDs, &rel.BlockedBy},
		{relMutedInstances, c.relRepo.MutedInstances, &rel.MutedInstances},
		{relFollowing, c.followRepo.FolloweeIDs, &rel.Following},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(loaders))
	for i, l := range loaders {
		wg.Add(1)
		go func(i int, l loader) {
			defer wg.Done()
			ids, err := c.cached(ctx, l.kind, viewerID, l.load)
			if err != nil {
				errs[i] = fmt.Errorf("load %s: %w", l.kind, err)
				return
			}
			*l.dst = timeline.NewSet(ids...)
		}(i, l)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return rel, nil
}

func (c *SocialGraphCache) cached(ctx context.Context, kind, viewerID string, load func(context.Context, string) ([]string, error)) ([]string, error) {
	key := relationKey(kind, viewerID)
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var ids []string
		if uErr := json.Unmarshal(data, &ids); uErr == nil {
			metrics.RelationCacheLookups.WithLabelValues("hit").Inc()
			return ids, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Warn("relation cache unavailable", zap.String("key", key), zap.Error(err))
	}
	metrics.RelationCacheLookups.WithLabelValues("miss").Inc()

	ids, err := load(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	if payload, err := json.Marshal(ids); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			logger.Warn("relation cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return ids, nil
}

// Invalidate 关系变化后删除该观看者的缓存
func (c *SocialGraphCache) Invalidate(ctx context.Context, viewerIDs ...string) error {
	keys := make([]string, 0, len(viewerIDs)*len(relationKinds))
	for _, v := range viewerIDs {
		for _, k := range relationKinds {
			keys = append(keys, relationKey(k, v))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
