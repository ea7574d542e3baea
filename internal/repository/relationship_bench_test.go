package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/d60-Lab/fanout-timeline/internal/model"
)

func seedUsers(b *testing.B, repo UserRepository, n int) []string {
	b.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("u%04d", i)
		if err := repo.Create(context.Background(), &model.User{ID: ids[i], Username: ids[i]}); err != nil {
			b.Fatalf("seed users: %v", err)
		}
	}
	return ids
}

func BenchmarkFollowWrite_And_FanRedundancy(b *testing.B) {
	db := newTestDB(b)
	followRepo := NewFollowRepository(db)
	fanRepo := NewFanRepository(db)
	ctx := context.Background()
	users := seedUsers(b, NewUserRepository(db), 1000)

	rng := rand.New(rand.NewSource(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rng.Intn(len(users))]
		to := users[rng.Intn(len(users))]
		if from == to {
			continue
		}
		_ = followRepo.Create(ctx, from, to)
		_ = fanRepo.Create(ctx, to, from)
	}
}

// 一个用户有 N 个粉丝、关注 N 个人：扇出按页拉粉丝，首页冷查询取全量关注
func BenchmarkQueryFansAndFollowing(b *testing.B) {
	db := newTestDB(b)
	followRepo := NewFollowRepository(db)
	fanRepo := NewFanRepository(db)
	ctx := context.Background()

	const N = 5000
	users := seedUsers(b, NewUserRepository(db), N+1)
	u0 := users[0]
	for _, uid := range users[1:] {
		_ = followRepo.Create(ctx, uid, u0)
		_ = fanRepo.Create(ctx, u0, uid)
		_ = followRepo.Create(ctx, u0, uid)
		_ = fanRepo.Create(ctx, uid, u0)
	}

	b.ResetTimer()
	b.Run("ListFans", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = fanRepo.ListFans(ctx, u0, 0, 500)
		}
	})

	b.Run("ListFollowing", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = followRepo.ListFollowings(ctx, u0, 0, 50)
		}
	})

	b.Run("FolloweeIDs", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = followRepo.FolloweeIDs(ctx, u0)
		}
	})
}
