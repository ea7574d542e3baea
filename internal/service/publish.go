package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/fanout-timeline/internal/model"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
)

var (
	ErrEmptyPost      = errors.New("post has no content")
	ErrNoSuchReply    = errors.New("reply target not found")
	ErrNoSuchRenote   = errors.New("renote target not found")
	ErrMissingVisible = errors.New("specified post needs visible users")
)

// PublishInput 发帖参数
type PublishInput struct {
	AuthorID       string
	Text           *string
	Visibility     model.Visibility
	VisibleUserIDs []string
	FileIDs        []string
	HasPoll        bool
	ReplyID        *string
	RenoteID       *string
	ChannelID      *string
}

// Publisher 负责事务内写 posts + outbox
type Publisher struct{ db *gorm.DB }

func NewPublisher(db *gorm.DB) *Publisher { return &Publisher{db: db} }

// Publish 在一个事务内落地 Post 与 Outbox 事件，扇出由 FanoutWorker 异步完成
func (p *Publisher) Publish(ctx context.Context, in PublishInput) (*model.Post, error) {
	if in.Text == nil && len(in.FileIDs) == 0 && in.RenoteID == nil && !in.HasPoll {
		return nil, ErrEmptyPost
	}
	if in.Visibility == "" {
		in.Visibility = model.VisibilityPublic
	}
	if in.Visibility == model.VisibilitySpecified && len(in.VisibleUserIDs) == 0 {
		return nil, ErrMissingVisible
	}

	id, err := timeline.NewID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	post := &model.Post{
		ID:             id,
		UserID:         in.AuthorID,
		Text:           in.Text,
		Visibility:     in.Visibility,
		VisibleUserIDs: in.VisibleUserIDs,
		FileIDs:        in.FileIDs,
		HasPoll:        in.HasPoll,
		ReplyID:        in.ReplyID,
		RenoteID:       in.RenoteID,
		ChannelID:      in.ChannelID,
		CreatedAt:      now,
	}
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author model.User
		if err := tx.First(&author, "id = ?", in.AuthorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoSuchUser
			}
			return err
		}
		post.UserHost = author.Host

		if in.ReplyID != nil {
			var reply model.Post
			if err := tx.First(&reply, "id = ?", *in.ReplyID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNoSuchReply
				}
				return err
			}
			post.ReplyUserID = &reply.UserID
			post.ReplyUserHost = reply.UserHost
		}
		if in.RenoteID != nil {
			var renote model.Post
			if err := tx.First(&renote, "id = ?", *in.RenoteID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNoSuchRenote
				}
				return err
			}
			post.RenoteUserID = &renote.UserID
			post.RenoteUserHost = renote.UserHost
		}
		if in.ChannelID != nil {
			var ch model.Channel
			if err := tx.First(&ch, "id = ?", *in.ChannelID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNoSuchChannel
				}
				return err
			}
		}

		if err := tx.Omit("Reply", "Channel").Create(post).Error; err != nil {
			return err
		}
		out := &model.Outbox{ID: uuid.New().String(), PostID: post.ID, AuthorID: in.AuthorID, CreatedAt: now, Status: model.OutboxPending}
		return tx.Create(out).Error
	})
	if err != nil {
		if errors.Is(err, ErrNoSuchUser) || errors.Is(err, ErrNoSuchReply) ||
			errors.Is(err, ErrNoSuchRenote) || errors.Is(err, ErrNoSuchChannel) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrColdStoreUnavailable, err)
	}
	return post, nil
}
