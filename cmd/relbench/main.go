package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/fanout-timeline/config"
	"github.com/d60-Lab/fanout-timeline/internal/model"
	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/service"
	"github.com/d60-Lab/fanout-timeline/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
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

// run 用 conc 个 goroutine 执行 n 次关注，返回每次耗时与总耗时
func run(n, conc int, follow func(i int)) ([]time.Duration, time.Duration) {
	if conc > n {
		conc = n
	}
	feed := make(chan int, n)
	for i := 0; i < n; i++ {
		feed <- i
	}
	close(feed)

	recs := make([]time.Duration, n)
	var wg sync.WaitGroup
	t0 := time.Now()
	for w := 0; w < conc; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range feed {
				st := time.Now()
				follow(i)
				recs[i] = time.Since(st)
			}
		}()
	}
	wg.Wait()
	return recs, time.Since(t0)
}

// 关注写路径压测：异步冗余 fans（FanReplicator）对比同步双写，附带社交图缓存失效
func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.AutoMigrate(db); err != nil {
		panic(err)
	}
	rdb := must(database.InitRedis(ctx, cfg))
	defer rdb.Close()

	N := envInt("N", 10000)
	CONC := envInt("CONC", 1)
	PAGE := envInt("PAGE", 50)

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	relRepo := repository.NewRelationRepository(db)
	social := service.NewSocialGraphCache(rdb, relRepo, followRepo, cfg.Timeline.RelationsTTL)

	replicator := service.NewFanReplicator(fanRepo, 100000)
	stop := replicator.Start(8)
	asyncSvc := service.NewRelationshipService(followRepo, fanRepo, relRepo, userRepo, social, replicator)
	syncSvc := service.NewRelationshipService(followRepo, fanRepo, relRepo, userRepo, social, nil)

	// u0 是大 V，其余用户先异步关注 u0，再由 u0 同步回关
	celeb := model.User{ID: uuid.NewString(), Username: "celeb"}
	if err := userRepo.Create(ctx, &celeb); err != nil {
		panic(err)
	}
	users := make([]model.User, N)
	for i := range users {
		id := uuid.NewString()
		users[i] = model.User{ID: id, Username: "u" + id[:8]}
	}
	if err := db.CreateInBatches(&users, 1000).Error; err != nil {
		panic(err)
	}

	maxQ := 0
	quitSample := make(chan struct{})
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if q := replicator.QueueLen(); q > maxQ {
					maxQ = q
				}
			case <-quitSample:
				return
			}
		}
	}()

	asyncRecs, asyncDur := run(N, CONC, func(i int) { _ = asyncSvc.Follow(ctx, users[i].ID, celeb.ID) })
	close(quitSample)

	drainStart := time.Now()
	_ = stop(ctx)
	drainDur := time.Since(drainStart)

	syncRecs, syncDur := run(N, CONC, func(i int) { _ = syncSvc.Follow(ctx, celeb.ID, users[i].ID) })

	q0 := time.Now()
	_, _ = fanRepo.ListFans(ctx, celeb.ID, 0, PAGE)
	fansDur := time.Since(q0)
	q1 := time.Now()
	_, _ = followRepo.ListFollowings(ctx, celeb.ID, 0, PAGE)
	follDur := time.Since(q1)
	fans, _ := fanRepo.Count(ctx, celeb.ID)

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", N, CONC, PAGE)
	fmt.Printf("Async follow total: %v, per op: %v, p50: %v, p95: %v, p99: %v, maxQueue=%d, drain=%v\n",
		asyncDur, asyncDur/time.Duration(N), pct(asyncRecs, 0.50), pct(asyncRecs, 0.95), pct(asyncRecs, 0.99), maxQ, drainDur)
	fmt.Printf("Sync follow total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		syncDur, syncDur/time.Duration(N), pct(syncRecs, 0.50), pct(syncRecs, 0.95), pct(syncRecs, 0.99))
	fmt.Printf("Fan rows landed: %d/%d\n", fans, N)
	fmt.Printf("Query fans(%d) latency: %v\n", PAGE, fansDur)
	fmt.Printf("Query following(%d) latency: %v\n", PAGE, follDur)
}
