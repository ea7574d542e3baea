package repository

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// initSuffix 空列表会被 redis 删除，用标记 key 表示“已初始化但为空”
const initSuffix = ":init"

// TimelineStore 时间线 id 列表（最新在前）
type TimelineStore interface {
	// PushAll ids 按从旧到新给出，写入后裁剪到 maxLen
	PushAll(ctx context.Context, key string, maxLen int, ids ...string) error
	// Get 返回 (sinceID, untilID) 开区间内的 id，新的在前；key 不存在返回空
	Get(ctx context.Context, key, untilID, sinceID string) ([]string, error)
	GetMulti(ctx context.Context, keys []string, untilID, sinceID string) ([][]string, error)
	IsExists(ctx context.Context, key string) (bool, error)
	KeyExpire(ctx context.Context, key string, ttl time.Duration) error
	MarkInitialized(ctx context.Context, key string, ttl time.Duration) error
}

type redisTimelineStore struct {
	rdb redis.UniversalClient
}

func NewTimelineStore(rdb redis.UniversalClient) TimelineStore {
	return &redisTimelineStore{rdb: rdb}
}

func (s *redisTimelineStore) PushAll(ctx context.Context, key string, maxLen int, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	pipe := s.rdb.Pipeline()
	pipe.LPush(ctx, key, interfaceSlice(ids)...)
	pipe.LTrim(ctx, key, 0, int64(maxLen-1))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisTimelineStore) Get(ctx context.Context, key, untilID, sinceID string) ([]string, error) {
	ids, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return window(ids, untilID, sinceID), nil
}

func (s *redisTimelineStore) GetMulti(ctx context.Context, keys []string, untilID, sinceID string) ([][]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.StringSliceCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.LRange(ctx, k, 0, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}
	out := make([][]string, len(keys))
	for i, cmd := range cmds {
		ids, err := cmd.Result()
		if err != nil && err != redis.Nil {
			return nil, err
		}
		out[i] = window(ids, untilID, sinceID)
	}
	return out, nil
}

func (s *redisTimelineStore) IsExists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key, key+initSuffix).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisTimelineStore) KeyExpire(ctx context.Context, key string, ttl time.Duration) error {
	pipe := s.rdb.Pipeline()
	pipe.Expire(ctx, key, ttl)
	pipe.Expire(ctx, key+initSuffix, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisTimelineStore) MarkInitialized(ctx context.Context, key string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key+initSuffix, "1", ttl).Err()
}

// window 过滤开区间并按新到旧排序
func window(ids []string, untilID, sinceID string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if untilID != "" && id >= untilID {
			continue
		}
		if sinceID != "" && id <= sinceID {
			continue
		}
		out = append(out, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

func interfaceSlice(strs []string) []interface{} {
	result := make([]interface{}, len(strs))
	for i, s := range strs {
		result[i] = s
	}
	return result
}
