package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/pkg/logger"
)

func TestSocialGraphCacheServesFromRedis(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	alice := w.user(t, "alice", nil)
	bob := w.user(t, "bob", nil)
	relRepo := repository.NewRelationRepository(w.publisher.db)
	require.NoError(t, relRepo.Mute(ctx, alice, bob))

	rel, err := w.social.Relations(ctx, alice)
	require.NoError(t, err)
	assert.True(t, rel.Muted.Has(bob))
	assert.True(t, w.mr.Exists(relationKey(relMuted, alice)))

	// 绕过服务直接改库，缓存仍返回旧值，直到失效
	require.NoError(t, relRepo.Unmute(ctx, alice, bob))
	rel, err = w.social.Relations(ctx, alice)
	require.NoError(t, err)
	assert.True(t, rel.Muted.Has(bob))

	require.NoError(t, w.social.Invalidate(ctx, alice))
	rel, err = w.social.Relations(ctx, alice)
	require.NoError(t, err)
	assert.False(t, rel.Muted.Has(bob))
}

func TestSocialGraphCacheAnonymous(t *testing.T) {
	w := newWorld(t)
	rel, err := w.social.Relations(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, rel.Muted)
	assert.Empty(t, w.mr.Keys())
}

func TestSocialGraphCacheFallsBackToStoreWhenRedisFails(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	alice := w.user(t, "alice", nil)
	bob := w.user(t, "bob", nil)
	require.NoError(t, w.rels.Follow(ctx, alice, bob))

	core, logs := observer.New(zap.WarnLevel)
	prev := logger.L()
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(prev) })

	w.mr.SetError("redis down")
	defer w.mr.SetError("")
	rel, err := w.social.Relations(ctx, alice)
	require.NoError(t, err)
	assert.True(t, rel.Following.Has(bob))

	assert.NotZero(t, logs.FilterMessage("relation cache unavailable").Len())
	assert.NotZero(t, logs.FilterMessage("relation cache write failed").Len())
}
