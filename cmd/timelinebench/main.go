package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/fanout-timeline/config"
	"github.com/d60-Lab/fanout-timeline/internal/model"
	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/service"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
	"github.com/d60-Lab/fanout-timeline/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			return v
		}
	}
	return def
}

// 写扩散压测：一个作者 N 个粉丝，发 POSTS 条帖子，测发帖事务、扇出落地和首页读取（命中 / 重建）
func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.AutoMigrate(db); err != nil {
		panic(err)
	}
	rdb := must(database.InitRedis(ctx, cfg))
	defer rdb.Close()

	N := envInt("N", 20000)
	POSTS := envInt("POSTS", 100)
	WORKERS := envInt("WORKERS", 8)
	BATCH := envInt("BATCH", 1000)
	CLAIM := envInt("CLAIM", 64)
	READS := envInt("READS", 200)

	// 本地压测前清表
	if db.Dialector.Name() == "postgres" {
		_ = db.Exec("TRUNCATE TABLE outbox, posts, fans, follows, users RESTART IDENTITY CASCADE").Error
	}
	_ = rdb.FlushDB(ctx).Err()

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	lists := repository.NewListRepository(db)
	follows := repository.NewFollowRepository(db)
	fans := repository.NewFanRepository(db)
	relRepo := repository.NewRelationRepository(db)

	fanout := service.NewFanoutTimelineService(repository.NewTimelineStore(rdb), timeline.LimitsFromConfig(cfg.Timeline), cfg.Timeline.KeyTTL)
	social := service.NewSocialGraphCache(rdb, relRepo, follows, cfg.Timeline.RelationsTTL)
	endpoint := service.NewFanoutTimelineEndpointService(fanout, posts, social)
	timelines := service.NewTimelineService(endpoint, posts, users, lists, repository.NewChannelRepository(db), follows)
	publisher := service.NewPublisher(db)

	author := model.User{ID: uuid.NewString(), Username: "author0"}
	if err := users.Create(ctx, &author); err != nil {
		panic(err)
	}
	seeded := make([]model.User, N)
	for i := range seeded {
		id := uuid.NewString()
		seeded[i] = model.User{ID: id, Username: "u" + id[:8]}
	}
	if err := db.CreateInBatches(&seeded, 1000).Error; err != nil {
		panic(err)
	}
	for i := range seeded {
		_ = follows.Create(ctx, seeded[i].ID, author.ID)
		_ = fans.Create(ctx, author.ID, seeded[i].ID)
	}

	worker := service.NewFanoutWorker(db, fans, lists, fanout, WORKERS, BATCH, CLAIM, 20*time.Millisecond)
	stop := worker.Start()
	defer func() { _ = stop(ctx) }()

	pubDurations := make([]time.Duration, 0, POSTS)
	for i := 0; i < POSTS; i++ {
		text := fmt.Sprintf("hello %d", i)
		st := time.Now()
		if _, err := publisher.Publish(ctx, service.PublishInput{AuthorID: author.ID, Text: &text}); err != nil {
			panic(err)
		}
		pubDurations = append(pubDurations, time.Since(st))
	}

	// 等 outbox 全部 done
	deadline := time.Now().Add(2 * time.Minute)
	var pending int64
	for time.Now().Before(deadline) {
		_ = db.Model(&model.Outbox{}).Where("status <> ?", model.OutboxDone).Count(&pending).Error
		if pending == 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	var done []model.Outbox
	_ = db.Where("status = ?", model.OutboxDone).Find(&done).Error
	land := make([]time.Duration, 0, len(done))
	for _, o := range done {
		if o.ProcessedAt != nil {
			land = append(land, o.ProcessedAt.Sub(o.CreatedAt))
		}
	}

	fmt.Printf("N=%d POSTS=%d WORKERS=%d BATCH=%d CLAIM=%d\n", N, POSTS, WORKERS, BATCH, CLAIM)
	fmt.Printf("Publish tx latency: avg=%v p95=%v p99=%v\n", avg(pubDurations), pct(pubDurations, 0.95), pct(pubDurations, 0.99))
	fmt.Printf("Fanout landing (outbox->done): samples=%d pending=%d avg=%v p95=%v p99=%v\n", len(land), pending, avg(land), pct(land, 0.95), pct(land, 0.99))

	if len(seeded) == 0 {
		return
	}
	read := func(viewer string) time.Duration {
		st := time.Now()
		if _, err := timelines.Home(ctx, service.TimelineQuery{ViewerID: viewer, Limit: 50, Flags: timeline.DefaultFlags()}); err != nil {
			panic(err)
		}
		return time.Since(st)
	}
	hits := make([]time.Duration, 0, READS)
	rebuilds := make([]time.Duration, 0, READS)
	for i := 0; i < READS; i++ {
		viewer := seeded[i%len(seeded)].ID
		hits = append(hits, read(viewer))
	}
	for i := 0; i < READS; i++ {
		viewer := seeded[i%len(seeded)].ID
		key := timeline.Home(viewer, false).String()
		_ = rdb.Del(ctx, key, key+":init").Err()
		rebuilds = append(rebuilds, read(viewer))
	}
	fmt.Printf("Home read, cache hit (limit=50): avg=%v p95=%v p99=%v\n", avg(hits), pct(hits, 0.95), pct(hits, 0.99))
	fmt.Printf("Home read, rebuild (limit=50): avg=%v p95=%v p99=%v\n", avg(rebuilds), pct(rebuilds, 0.95), pct(rebuilds, 0.99))
}
