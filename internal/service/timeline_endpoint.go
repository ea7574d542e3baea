package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/fanout-timeline/internal/model"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
	"github.com/d60-Lab/fanout-timeline/pkg/logger"
	"github.com/d60-Lab/fanout-timeline/pkg/metrics"
)

const (
	// 过滤存活率按上一批估计，但一次最多取剩余需求的三倍
	overFetchFactor = 1.1
	maxOverFetch    = 3.0
)

// FallbackQuery 冷查询参数；Init 表示重建用的初始批次
type FallbackQuery struct {
	UntilID string
	SinceID string
	Limit   int
	Init    bool
}

// FallbackFunc 由调用方绑定到具体的冷查询形状，返回 id 倒序
type FallbackFunc func(ctx context.Context, q FallbackQuery) ([]*model.Post, error)

// RebuildFunc 加载单个 key 的重建内容（与观看者无关），id 倒序，最多 limit 条
type RebuildFunc func(ctx context.Context, key timeline.Key, limit int) ([]*model.Post, error)

// TimelineOptions 一次时间线读取
type TimelineOptions struct {
	ViewerID     string
	Keys         []timeline.Key
	UntilID      string
	SinceID      string
	Limit        int
	AllowPartial bool

	Flags                timeline.Flags
	IgnoreAuthorFromMute bool
	Predicates           []timeline.Predicate
	// RelationPredicates 依赖关系集合的附加条件（如 followers 可见性），关系集合到手后再构造
	RelationPredicates func(rel *timeline.Relations) []timeline.Predicate

	DBFallback FallbackFunc
	// Rebuild 为空时用 DBFallback(Init=true) 的结果填充所有待重建的 key
	Rebuild      RebuildFunc
	RebuildLimit int
}

// PostFinder 按 id 回表
type PostFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]*model.Post, error)
}

// RelationSource 观看者关系集合
type RelationSource interface {
	Relations(ctx context.Context, viewerID string) (*timeline.Relations, error)
}

// FanoutTimelineEndpointService 时间线读路径：缓存候选、过滤、自适应多取、冷存储补齐与重建
type FanoutTimelineEndpointService struct {
	timelines *FanoutTimelineService
	posts     PostFinder
	social    RelationSource
	tracer    trace.Tracer
}

func NewFanoutTimelineEndpointService(timelines *FanoutTimelineService, posts PostFinder, social RelationSource) *FanoutTimelineEndpointService {
	return &FanoutTimelineEndpointService{
		timelines: timelines,
		posts:     posts,
		social:    social,
		tracer:    otel.Tracer("github.com/d60-Lab/fanout-timeline/internal/service"),
	}
}

// Timeline 返回过滤后的一页帖子，按方向排好序，长度不超过 Limit
func (s *FanoutTimelineEndpointService) Timeline(ctx context.Context, opts TimelineOptions) ([]*model.Post, error) {
	ctx, span := s.tracer.Start(ctx, "timeline.read", trace.WithAttributes(
		attribute.Int("timeline.keys", len(opts.Keys)),
		attribute.Int("timeline.limit", opts.Limit),
	))
	defer span.End()

	posts, outcome, err := s.read(ctx, opts)
	metrics.TimelineReads.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("timeline.outcome", outcome), attribute.Int("timeline.results", len(posts)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if posts == nil {
		posts = []*model.Post{}
	}
	return posts, nil
}

func (s *FanoutTimelineEndpointService) read(ctx context.Context, opts TimelineOptions) ([]*model.Post, string, error) {
	if opts.Limit <= 0 {
		return nil, metrics.OutcomeHit, nil
	}
	prepend := opts.SinceID != "" && opts.UntilID == ""

	results, err := s.timelines.GetMulti(ctx, opts.Keys, opts.UntilID, opts.SinceID)
	if err != nil {
		logger.Warn("timeline store unavailable, reading cold store",
			zap.Strings("keys", timeline.Strings(opts.Keys)), zap.Error(err))
		posts, err := s.fallback(ctx, opts, opts.UntilID, opts.SinceID, opts.Limit)
		return posts, metrics.OutcomeStoreError, err
	}
	candidates := mergeIDs(results, prepend)

	// 窗口内为空的 key 可能从未初始化，只对这些 key 查存在性
	var empty []timeline.Key
	for i, k := range opts.Keys {
		if len(results[i]) == 0 {
			empty = append(empty, k)
		}
	}
	pending, err := s.uninitialized(ctx, empty)
	if err != nil {
		logger.Warn("timeline existence check failed",
			zap.Strings("keys", timeline.Strings(empty)), zap.Error(err))
		if len(candidates) == 0 {
			posts, err := s.fallback(ctx, opts, opts.UntilID, opts.SinceID, opts.Limit)
			return posts, metrics.OutcomeStoreError, err
		}
		pending = nil
	}

	if len(candidates) == 0 && len(pending) == 0 {
		posts, err := s.fallback(ctx, opts, opts.UntilID, opts.SinceID, opts.Limit)
		return posts, metrics.OutcomeFallback, err
	}

	outcome := metrics.OutcomeHit
	fromCache := len(candidates) > 0
	exhaustive := false
	known := map[string]*model.Post{}
	if len(pending) > 0 {
		outcome = metrics.OutcomeRebuild
		var rebuilt []*model.Post
		rebuilt, exhaustive, err = s.rebuild(ctx, opts, pending)
		if err != nil {
			return nil, outcome, err
		}
		for _, p := range rebuilt {
			if _, dup := known[p.ID]; dup || !inWindow(p.ID, opts.UntilID, opts.SinceID) {
				continue
			}
			known[p.ID] = p
			candidates = append(candidates, p.ID)
		}
		candidates = mergeIDs([][]string{candidates}, prepend)
	}
	if fromCache {
		s.refreshTTL(ctx, opts.Keys)
	}

	c := consumer{
		limit:        opts.Limit,
		allowPartial: opts.AllowPartial,
		prepend:      prepend,
		pipeline:     s.startPipeline(ctx, opts),
		load: func(ctx context.Context, batch []string) ([]*model.Post, error) {
			return s.hydrate(ctx, batch, known)
		},
	}
	acc, last, done, err := c.run(ctx, candidates)
	if err != nil {
		return nil, outcome, err
	}
	if done {
		return acc, outcome, nil
	}
	if !fromCache && exhaustive && len(pending) == len(opts.Keys) {
		// 所有 key 都刚重建且批次都没装满容量，冷存储里不会有更多
		if prepend {
			reverse(acc)
		}
		return acc, outcome, nil
	}
	if outcome == metrics.OutcomeHit {
		outcome = metrics.OutcomePartialFallback
	}
	posts, err := s.complete(ctx, opts, prepend, acc, last)
	return posts, outcome, err
}

// complete 候选耗尽后从最后消费的 id 继续向冷存储要剩余的条数
func (s *FanoutTimelineEndpointService) complete(ctx context.Context, opts TimelineOptions, prepend bool, acc []*model.Post, last string) ([]*model.Post, error) {
	until, since := opts.UntilID, opts.SinceID
	if last != "" {
		if prepend {
			since = last
		} else {
			until = last
		}
	}
	cold, err := s.fallback(ctx, opts, until, since, opts.Limit-len(acc))
	if err != nil {
		return nil, err
	}
	if prepend {
		reverse(acc)
		return append(cold, acc...), nil
	}
	return append(acc, cold...), nil
}

// uninitialized 并发检查可重建 key 的存在性
func (s *FanoutTimelineEndpointService) uninitialized(ctx context.Context, keys []timeline.Key) ([]timeline.Key, error) {
	var eligible []timeline.Key
	for _, k := range keys {
		if k.Rebuildable() {
			eligible = append(eligible, k)
		}
	}
	exists := make([]bool, len(eligible))
	errs := make([]error, len(eligible))
	var wg sync.WaitGroup
	for i, k := range eligible {
		wg.Add(1)
		go func(i int, k timeline.Key) {
			defer wg.Done()
			exists[i], errs[i] = s.timelines.IsExists(ctx, k)
		}(i, k)
	}
	wg.Wait()

	var pending []timeline.Key
	for i, k := range eligible {
		if errs[i] != nil {
			return nil, errs[i]
		}
		if !exists[i] {
			pending = append(pending, k)
		}
	}
	return pending, nil
}

// rebuild 每个未初始化的 key 各自加载、各自写入并打上初始化标记。
// exhaustive 表示每个批次都没装满容量。
func (s *FanoutTimelineEndpointService) rebuild(ctx context.Context, opts TimelineOptions, pending []timeline.Key) ([]*model.Post, bool, error) {
	limits := s.timelines.Limits()
	limitOf := func(k timeline.Key) int {
		if opts.RebuildLimit > 0 {
			return opts.RebuildLimit
		}
		return limits.CapOf(k)
	}

	if opts.Rebuild == nil {
		limit := limitOf(pending[0])
		posts, err := s.fallbackInit(ctx, opts, limit)
		if err != nil {
			return nil, false, err
		}
		ids := postIDs(posts)
		for _, k := range pending {
			s.fill(ctx, k, ids)
		}
		return posts, len(posts) < limit, nil
	}

	batches := make([][]*model.Post, len(pending))
	errs := make([]error, len(pending))
	var wg sync.WaitGroup
	for i, k := range pending {
		wg.Add(1)
		go func(i int, k timeline.Key) {
			defer wg.Done()
			batches[i], errs[i] = opts.Rebuild(ctx, k, limitOf(k))
		}(i, k)
	}
	wg.Wait()

	exhaustive := true
	var all []*model.Post
	for i, k := range pending {
		if errs[i] != nil {
			return nil, false, fmt.Errorf("%w: rebuild %s: %w", ErrColdStoreUnavailable, k, errs[i])
		}
		s.fill(ctx, k, postIDs(batches[i]))
		if len(batches[i]) >= limitOf(k) {
			exhaustive = false
		}
		all = append(all, batches[i]...)
	}
	return all, exhaustive, nil
}

func (s *FanoutTimelineEndpointService) fill(ctx context.Context, key timeline.Key, ids []string) {
	metrics.TimelineRebuilds.WithLabelValues(key.Kind.String()).Inc()
	if err := s.timelines.Fill(ctx, key, ids); err != nil {
		logger.Warn("timeline rebuild write failed", zap.String("key", key.String()), zap.Error(err))
		return
	}
	logger.Info("timeline rebuilt", zap.String("key", key.String()), zap.Int("ids", len(ids)))
}

func (s *FanoutTimelineEndpointService) fallbackInit(ctx context.Context, opts TimelineOptions, limit int) ([]*model.Post, error) {
	if opts.DBFallback == nil {
		return nil, nil
	}
	posts, err := opts.DBFallback(ctx, FallbackQuery{Limit: limit, Init: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColdStoreUnavailable, err)
	}
	return posts, nil
}

func (s *FanoutTimelineEndpointService) fallback(ctx context.Context, opts TimelineOptions, untilID, sinceID string, limit int) ([]*model.Post, error) {
	if opts.DBFallback == nil || limit <= 0 {
		return nil, nil
	}
	posts, err := opts.DBFallback(ctx, FallbackQuery{UntilID: untilID, SinceID: sinceID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColdStoreUnavailable, err)
	}
	return posts, nil
}

func (s *FanoutTimelineEndpointService) refreshTTL(ctx context.Context, keys []timeline.Key) {
	for _, k := range keys {
		if !k.RefreshTTL() {
			continue
		}
		if err := s.timelines.KeyExpire(ctx, k); err != nil {
			logger.Warn("timeline ttl refresh failed", zap.String("key", k.String()), zap.Error(err))
		}
	}
}

// hydrate 回表，重建时已经拿到的帖子直接复用；缓存里有但冷存储里没有的 id 直接丢弃
func (s *FanoutTimelineEndpointService) hydrate(ctx context.Context, ids []string, known map[string]*model.Post) ([]*model.Post, error) {
	posts := make([]*model.Post, 0, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := known[id]; ok {
			posts = append(posts, p)
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return posts, nil
	}
	found, err := s.posts.FindByIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColdStoreUnavailable, err)
	}
	posts = append(posts, found...)
	if ghosts := len(ids) - len(posts); ghosts > 0 {
		metrics.GhostIDs.Add(float64(ghosts))
		logger.Debug("dropped ghost ids", zap.Int("count", ghosts))
	}
	return posts, nil
}

// startPipeline 关系集合与第一批回表并发加载
func (s *FanoutTimelineEndpointService) startPipeline(ctx context.Context, opts TimelineOptions) func() (*timeline.Pipeline, error) {
	var (
		pl   *timeline.Pipeline
		err  error
		done = make(chan struct{})
	)
	go func() {
		defer close(done)
		var rel *timeline.Relations
		if opts.ViewerID != "" && s.social != nil {
			rel, err = s.social.Relations(ctx, opts.ViewerID)
			if err != nil {
				err = fmt.Errorf("%w: relations: %w", ErrColdStoreUnavailable, err)
				return
			}
		}
		extra := opts.Predicates
		if opts.RelationPredicates != nil {
			in := rel
			if in == nil {
				in = &timeline.Relations{}
			}
			extra = append(append([]timeline.Predicate(nil), extra...), opts.RelationPredicates(in)...)
		}
		pl = timeline.Build(opts.ViewerID, rel, opts.Flags, opts.IgnoreAuthorFromMute, extra...)
	}()
	return func() (*timeline.Pipeline, error) {
		<-done
		return pl, err
	}
}

// consumer 按自适应批大小消费候选 id
type consumer struct {
	limit        int
	allowPartial bool
	prepend      bool
	pipeline     func() (*timeline.Pipeline, error)
	load         func(ctx context.Context, ids []string) ([]*model.Post, error)
}

// run 返回累计结果、最后消费的 id，以及是否已满足停止条件。
// 满足时结果已截断并按最终顺序排列；未满足时结果保持消费顺序。
func (c consumer) run(ctx context.Context, candidates []string) ([]*model.Post, string, bool, error) {
	var (
		acc  []*model.Post
		last string
		read int
		rate = 1.0
		pl   *timeline.Pipeline
	)
	for read < len(candidates) {
		remaining := c.limit - len(acc)
		count := int(math.Ceil(float64(remaining) * math.Min(overFetchFactor/rate, maxOverFetch)))
		if count < 1 {
			count = 1
		}
		end := read + count
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[read:end]
		read = end
		last = batch[len(batch)-1]

		posts, err := c.load(ctx, batch)
		if err != nil {
			return nil, "", false, err
		}
		if pl == nil {
			if pl, err = c.pipeline(); err != nil {
				return nil, "", false, err
			}
		}
		kept := make([]*model.Post, 0, len(posts))
		for _, p := range posts {
			if p != nil && pl.Keep(p) {
				kept = append(kept, p)
			}
		}
		sortPosts(kept, c.prepend)
		acc = append(acc, kept...)
		rate = float64(len(kept)) / float64(len(batch))

		if (c.allowPartial && len(acc) > 0) || len(acc) >= c.limit {
			if len(acc) > c.limit {
				acc = acc[:c.limit]
			}
			if c.prepend {
				reverse(acc)
			}
			return acc, last, true, nil
		}
	}
	return acc, last, false, nil
}

// mergeIDs 多个 key 的结果去重后按方向排序
func mergeIDs(results [][]string, prepend bool) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ids := range results {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sortIDs(out, prepend)
	return out
}

func sortIDs(ids []string, prepend bool) {
	if prepend {
		sort.Strings(ids)
		return
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
}

func sortPosts(posts []*model.Post, prepend bool) {
	sort.Slice(posts, func(i, j int) bool {
		if prepend {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].ID > posts[j].ID
	})
}

func inWindow(id, untilID, sinceID string) bool {
	return (untilID == "" || id < untilID) && (sinceID == "" || id > sinceID)
}

func reverse(posts []*model.Post) {
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
}

func postIDs(posts []*model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
