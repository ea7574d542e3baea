package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/fanout-timeline/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Page 游标分页，边界都是开区间
type Page struct {
	SinceID string
	UntilID string
	Limit   int
}

// Scope 组合进冷查询的条件
type Scope func(*gorm.DB) *gorm.DB

// PostRepository 帖子的权威存储
type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// FindByIDs 按 id 批量回表，不存在的 id 直接缺席，不保证顺序
	FindByIDs(ctx context.Context, ids []string) ([]*model.Post, error)
	// Range 按 id 倒序返回；只给 SinceID 时取紧挨着 SinceID 的 Limit 条，再倒序返回
	Range(ctx context.Context, page Page, scopes ...Scope) ([]*model.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).Preload("Reply").Preload("Channel").Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var res []*model.Post
	err := r.db.WithContext(ctx).Preload("Reply").Preload("Channel").Where("id IN ?", ids).Find(&res).Error
	return res, err
}

func (r *postRepository) Range(ctx context.Context, page Page, scopes ...Scope) ([]*model.Post, error) {
	q := r.db.WithContext(ctx).Model(&model.Post{}).Preload("Reply").Preload("Channel")
	for _, s := range scopes {
		q = s(q)
	}
	if page.UntilID != "" {
		q = q.Where("posts.id < ?", page.UntilID)
	}
	if page.SinceID != "" {
		q = q.Where("posts.id > ?", page.SinceID)
	}
	asc := page.SinceID != "" && page.UntilID == ""
	if asc {
		q = q.Order("posts.id ASC")
	} else {
		q = q.Order("posts.id DESC")
	}
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}

	var res []*model.Post
	if err := q.Find(&res).Error; err != nil {
		return nil, err
	}
	if asc {
		for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
			res[i], res[j] = res[j], res[i]
		}
	}
	return res, nil
}

// ---- scopes ----

const pureRenoteSQL = "(posts.renote_id IS NOT NULL AND posts.text IS NULL AND posts.file_count = 0 AND posts.has_poll = false)"

// AuthoredBy 作者在给定集合内
func AuthoredBy(userIDs ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if len(userIDs) == 1 {
			return db.Where("posts.user_id = ?", userIDs[0])
		}
		return db.Where("posts.user_id IN ?", userIDs)
	}
}

// ListMembers 作者是列表成员
func ListMembers(listID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.user_id IN (SELECT user_id FROM user_list_memberships WHERE user_list_id = ?)", listID)
	}
}

func InChannel(channelID string) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where("posts.channel_id = ?", channelID) }
}

func NoChannel() Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where("posts.channel_id IS NULL") }
}

func OnlyChannel() Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where("posts.channel_id IS NOT NULL") }
}

func ChannelNotSensitive() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(posts.channel_id IS NULL OR posts.channel_id NOT IN (SELECT id FROM channels WHERE is_sensitive = ?))", true)
	}
}

func WithFiles() Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where("posts.file_count > 0") }
}

func NotReply() Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where("posts.reply_id IS NULL") }
}

// OnlyReplies 回复他人的帖子
func OnlyReplies() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.reply_id IS NOT NULL AND posts.reply_user_id <> posts.user_id")
	}
}

// ReplyToSelfOr 非回复、自回复，或回复给 userIDs 中的人
func ReplyToSelfOr(userIDs ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if len(userIDs) == 0 {
			return db.Where("(posts.reply_id IS NULL OR posts.reply_user_id = posts.user_id)")
		}
		return db.Where("(posts.reply_id IS NULL OR posts.reply_user_id = posts.user_id OR posts.reply_user_id IN ?)", userIDs)
	}
}

// LocalPublic 本地用户的公开帖
func LocalPublic() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.user_host IS NULL AND posts.visibility = ?", model.VisibilityPublic)
	}
}

// VisibleTo 观看者能看到的帖子；viewerID 为空时只有 public/home
func VisibleTo(viewerID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == "" {
			return db.Where("posts.visibility IN ?", []model.Visibility{model.VisibilityPublic, model.VisibilityHome})
		}
		return db.Where(`(posts.visibility IN ?
			OR posts.user_id = ?
			OR (posts.visibility = ? AND posts.user_id IN (SELECT followee_id FROM follows WHERE follower_id = ?))
			OR (posts.visibility = ? AND posts.visible_user_ids LIKE ?))`,
			[]model.Visibility{model.VisibilityPublic, model.VisibilityHome},
			viewerID,
			model.VisibilityFollowers, viewerID,
			model.VisibilitySpecified, `%"`+viewerID+`"%`)
	}
}

// NotMutedBy 排除观看者屏蔽的用户（作者、被回复者、被转发者）与实例；观看者自己的帖子不受影响
func NotMutedBy(viewerID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		const muted = "SELECT mutee_id FROM mutings WHERE muter_id = ?"
		const hosts = "SELECT host FROM instance_mutes WHERE user_id = ?"
		return db.
			Where("(posts.user_id = ? OR posts.user_id NOT IN ("+muted+"))", viewerID, viewerID).
			Where("(posts.user_id = ? OR posts.reply_user_id IS NULL OR posts.reply_user_id NOT IN ("+muted+"))", viewerID, viewerID).
			Where("(posts.user_id = ? OR posts.renote_user_id IS NULL OR posts.renote_user_id NOT IN ("+muted+"))", viewerID, viewerID).
			Where("(posts.user_id = ? OR posts.user_host IS NULL OR posts.user_host NOT IN ("+hosts+"))", viewerID, viewerID)
	}
}

// NotBlocking 排除拉黑了观看者的用户；观看者自己的帖子不受影响
func NotBlocking(viewerID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		const blockers = "SELECT blocker_id FROM blockings WHERE blockee_id = ?"
		return db.
			Where("(posts.user_id = ? OR posts.user_id NOT IN ("+blockers+"))", viewerID, viewerID).
			Where("(posts.user_id = ? OR posts.reply_user_id IS NULL OR posts.reply_user_id NOT IN ("+blockers+"))", viewerID, viewerID).
			Where("(posts.user_id = ? OR posts.renote_user_id IS NULL OR posts.renote_user_id NOT IN ("+blockers+"))", viewerID, viewerID)
	}
}

// NoMutedRenotes 排除被屏蔽转发的用户的纯转发
func NoMutedRenotes(viewerID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("NOT ("+pureRenoteSQL+" AND posts.user_id IN (SELECT mutee_id FROM renote_mutings WHERE muter_id = ?))", viewerID)
	}
}

func NoPureRenotes() Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where("NOT " + pureRenoteSQL) }
}

// NotMyRenotes 排除观看者自己的纯转发
func NotMyRenotes(viewerID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("NOT (posts.user_id = ? AND "+pureRenoteSQL+")", viewerID)
	}
}

// NotRenotesOf 排除对 userID 帖子的纯转发
func NotRenotesOf(userID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("NOT (posts.renote_user_id IS NOT NULL AND posts.renote_user_id = ? AND "+pureRenoteSQL+")", userID)
	}
}

// NoLocalRenotes 排除转发本地帖子的纯转发
func NoLocalRenotes() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("NOT (posts.renote_user_host IS NULL AND " + pureRenoteSQL + ")")
	}
}
