package service

import (
	"context"
	"time"

	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
)

// DefaultKeyTTL 活跃时间线在每次读取后续期的时长
const DefaultKeyTTL = 7 * 24 * time.Hour

// FanoutTimelineService 按 timeline.Key 操作缓存：容量裁剪、批量读取、续期
type FanoutTimelineService struct {
	store  repository.TimelineStore
	limits timeline.CacheLimits
	ttl    time.Duration
}

func NewFanoutTimelineService(store repository.TimelineStore, limits timeline.CacheLimits, ttl time.Duration) *FanoutTimelineService {
	if ttl <= 0 {
		ttl = DefaultKeyTTL
	}
	return &FanoutTimelineService{store: store, limits: limits, ttl: ttl}
}

func (s *FanoutTimelineService) Limits() timeline.CacheLimits { return s.limits }

// PushAll 把新帖 id 推到 key 头部，超出容量的旧 id 被裁掉。可重复调用，去重在读侧完成。
func (s *FanoutTimelineService) PushAll(ctx context.Context, key timeline.Key, id string) error {
	return s.store.PushAll(ctx, key.String(), s.limits.CapOf(key), id)
}

// Fill 重建写入：ids 新的在前，只保留容量内最新的部分；写初始化标记并续期
func (s *FanoutTimelineService) Fill(ctx context.Context, key timeline.Key, ids []string) error {
	name := key.String()
	capacity := s.limits.CapOf(key)
	if len(ids) > capacity {
		ids = ids[:capacity]
	}
	oldestFirst := make([]string, len(ids))
	for i, id := range ids {
		oldestFirst[len(ids)-1-i] = id
	}
	if err := s.store.PushAll(ctx, name, capacity, oldestFirst...); err != nil {
		return err
	}
	if err := s.store.MarkInitialized(ctx, name, s.ttl); err != nil {
		return err
	}
	return s.store.KeyExpire(ctx, name, s.ttl)
}

func (s *FanoutTimelineService) Get(ctx context.Context, key timeline.Key, untilID, sinceID string) ([]string, error) {
	return s.store.Get(ctx, key.String(), untilID, sinceID)
}

// GetMulti 每个 key 一个结果，合并由调用方负责
func (s *FanoutTimelineService) GetMulti(ctx context.Context, keys []timeline.Key, untilID, sinceID string) ([][]string, error) {
	return s.store.GetMulti(ctx, timeline.Strings(keys), untilID, sinceID)
}

func (s *FanoutTimelineService) IsExists(ctx context.Context, key timeline.Key) (bool, error) {
	return s.store.IsExists(ctx, key.String())
}

func (s *FanoutTimelineService) KeyExpire(ctx context.Context, key timeline.Key) error {
	return s.store.KeyExpire(ctx, key.String(), s.ttl)
}
