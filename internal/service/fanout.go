package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/fanout-timeline/internal/model"
	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
	"github.com/d60-Lab/fanout-timeline/pkg/logger"
	"github.com/d60-Lab/fanout-timeline/pkg/metrics"
)

// DefaultReclaimAfter processing 超过该时长视为 worker 已失联，重新 claim
const DefaultReclaimAfter = 5 * time.Minute

// FanoutWorker 从 outbox 拉取发帖事件，把帖子 id 推到作者、粉丝、列表、本地和频道时间线
type FanoutWorker struct {
	db           *gorm.DB
	fanRepo      repository.FanRepository
	listRepo     repository.ListRepository
	timelines    *FanoutTimelineService
	batchSize    int
	claimLimit   int
	pollInterval time.Duration
	reclaimAfter time.Duration
	workers      int
}

func NewFanoutWorker(db *gorm.DB, fanRepo repository.FanRepository, listRepo repository.ListRepository, timelines *FanoutTimelineService, workers, batchSize, claimLimit int, pollInterval time.Duration) *FanoutWorker {
	if workers <= 0 {
		workers = 4
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	if claimLimit <= 0 {
		claimLimit = 128
	}
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	return &FanoutWorker{
		db: db, fanRepo: fanRepo, listRepo: listRepo, timelines: timelines,
		workers: workers, batchSize: batchSize, claimLimit: claimLimit, pollInterval: pollInterval,
		reclaimAfter: DefaultReclaimAfter,
	}
}

// WithReclaimAfter 设置 processing 事件的重新 claim 超时
func (w *FanoutWorker) WithReclaimAfter(d time.Duration) *FanoutWorker {
	if d > 0 {
		w.reclaimAfter = d
	}
	return w
}

// Start 启动若干 worker 轮询处理 outbox；返回停止函数，等待在途批次结束
func (w *FanoutWorker) Start() func(context.Context) error {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(stop)
		}()
	}
	return func(ctx context.Context) error {
		close(stop)
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *FanoutWorker) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := w.ProcessOnce(context.Background()); err != nil {
				logger.Warn("fanout batch failed", zap.Error(err))
			}
		}
	}
}

// claim 把一批 pending 事件（以及 claim 超时的 processing 事件）置为 processing。
// postgres 上用 SKIP LOCKED 让多实例并行
func (w *FanoutWorker) claim(ctx context.Context) ([]model.Outbox, error) {
	var batch []model.Outbox
	now := time.Now().UTC()
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := `SELECT id, post_id, author_id, status, created_at FROM outbox
			WHERE status = ? OR (status = ? AND claimed_at < ?)
			ORDER BY created_at LIMIT ?`
		if tx.Dialector.Name() == "postgres" {
			q += ` FOR UPDATE SKIP LOCKED`
		}
		if err := tx.Raw(q, model.OutboxPending, model.OutboxProcessing, now.Add(-w.reclaimAfter), w.claimLimit).Scan(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, b := range batch {
			ids[i] = b.ID
		}
		return tx.Model(&model.Outbox{}).Where("id IN ?", ids).
			Updates(map[string]any{"status": model.OutboxProcessing, "claimed_at": now}).Error
	})
	return batch, err
}

// ProcessOnce claim 一批事件并扇出，返回处理的事件数
func (w *FanoutWorker) ProcessOnce(ctx context.Context) (int, error) {
	batch, err := w.claim(ctx)
	if err != nil {
		return 0, err
	}
	for _, b := range batch {
		pushed, err := w.fanout(ctx, b)
		if err != nil {
			// 退回 pending，下一轮重试；PushAll 对同一 id 重复推送只会多一条，读路径会去重
			logger.Warn("fanout failed", zap.String("post", b.PostID), zap.Error(err))
			if err := w.db.WithContext(ctx).Model(&model.Outbox{}).Where("id = ?", b.ID).
				Update("status", model.OutboxPending).Error; err != nil {
				// 留在 processing，超时后由 claim 重新拾起
				logger.Warn("fanout reset failed", zap.String("post", b.PostID), zap.Error(err))
			}
			continue
		}
		now := time.Now()
		if err := w.db.WithContext(ctx).Model(&model.Outbox{}).
			Where("id = ?", b.ID).
			Updates(map[string]any{"status": model.OutboxDone, "processed_at": now, "push_count": pushed}).Error; err != nil {
			return 0, err
		}
		metrics.FanoutLag.Observe(time.Since(b.CreatedAt).Seconds())
		logger.Debug("fanout done", zap.String("post", b.PostID), zap.Int64("pushes", pushed))
	}
	return len(batch), nil
}

func (w *FanoutWorker) fanout(ctx context.Context, b model.Outbox) (int64, error) {
	var post model.Post
	if err := w.db.WithContext(ctx).First(&post, "id = ?", b.PostID).Error; err != nil {
		return 0, fmt.Errorf("load post: %w", err)
	}
	listIDs, err := w.listRepo.ListIDsContaining(ctx, post.UserID)
	if err != nil {
		return 0, fmt.Errorf("load lists: %w", err)
	}

	var pushed int64
	push := func(keys []timeline.Key) error {
		for _, k := range keys {
			if err := w.timelines.PushAll(ctx, k, post.ID); err != nil {
				return err
			}
			pushed++
			metrics.FanoutPushes.Inc()
		}
		return nil
	}

	if err := push(AuthorKeys(&post, listIDs)); err != nil {
		return pushed, err
	}
	if !ReachesHome(&post) {
		return pushed, nil
	}
	for offset := 0; ; offset += w.batchSize {
		fans, err := w.fanRepo.ListFans(ctx, post.UserID, offset, w.batchSize)
		if err != nil {
			return pushed, fmt.Errorf("load fans: %w", err)
		}
		for _, f := range fans {
			if err := push(HomeKeysFor(&post, f.FanID)); err != nil {
				return pushed, err
			}
		}
		if len(fans) < w.batchSize {
			return pushed, nil
		}
	}
}

func replyToOther(p *model.Post) bool {
	return p.ReplyUserID != nil && *p.ReplyUserID != p.UserID
}

// ReachesHome 频道帖不进首页
func ReachesHome(p *model.Post) bool { return p.ChannelID == nil }

// AuthorKeys 与粉丝无关的目标：作者自己的用户/首页时间线、所在列表、本地和频道时间线
func AuthorKeys(p *model.Post, listIDs []string) []timeline.Key {
	remote := !p.IsLocal()
	files := len(p.FileIDs) > 0
	var keys []timeline.Key

	switch {
	case p.ChannelID != nil:
		keys = append(keys, timeline.UserWithChannel(p.UserID, remote), timeline.Channel(*p.ChannelID))
		return keys
	case replyToOther(p):
		keys = append(keys, timeline.UserWithReplies(p.UserID, remote))
	default:
		keys = append(keys, timeline.User(p.UserID, remote, false))
		if files {
			keys = append(keys, timeline.User(p.UserID, remote, true))
		}
	}

	if !remote {
		keys = append(keys, HomeKeysFor(p, p.UserID)...)
	}

	if p.Visibility != model.VisibilitySpecified && !replyToOther(p) {
		for _, id := range listIDs {
			keys = append(keys, timeline.UserList(id, false))
			if files {
				keys = append(keys, timeline.UserList(id, true))
			}
		}
	}

	if p.IsLocal() && p.Visibility == model.VisibilityPublic {
		if replyToOther(p) {
			keys = append(keys, timeline.LocalWithReplyTo(*p.ReplyUserID))
		} else {
			keys = append(keys, timeline.Local(false))
			if files {
				keys = append(keys, timeline.Local(true))
			}
		}
	}
	return keys
}

// HomeKeysFor 推到某个粉丝首页的 key；不可见或不该出现时返回 nil
func HomeKeysFor(p *model.Post, ownerID string) []timeline.Key {
	if !ReachesHome(p) {
		return nil
	}
	if ownerID != p.UserID && p.Visibility == model.VisibilitySpecified && !timeline.NewSet(p.VisibleUserIDs...).Has(ownerID) {
		return nil
	}
	// 回复别人的帖子只进被回复者的首页，与首页冷查询的回复条件一致
	if replyToOther(p) && *p.ReplyUserID != ownerID {
		return nil
	}
	keys := []timeline.Key{timeline.Home(ownerID, false)}
	if len(p.FileIDs) > 0 {
		keys = append(keys, timeline.Home(ownerID, true))
	}
	return keys
}
