package model

import (
	"time"

	"gorm.io/gorm"
)

// Visibility 帖子可见范围
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityHome      Visibility = "home"
	VisibilityFollowers Visibility = "followers"
	VisibilitySpecified Visibility = "specified"
)

// Post 帖子（时间线条目）。ID 为 UUIDv7，字典序即时间序。
// reply / renote 的作者与实例做了冗余，过滤时不需要 join。
type Post struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string     `gorm:"type:varchar(36);index:idx_post_user;not null" json:"userId"`
	UserHost       *string    `gorm:"type:varchar(128);index" json:"userHost,omitempty"`
	Text           *string    `gorm:"type:text" json:"text,omitempty"`
	Visibility     Visibility `gorm:"type:varchar(16);not null;default:public" json:"visibility"`
	VisibleUserIDs []string   `gorm:"serializer:json;type:text" json:"visibleUserIds,omitempty"`
	FileIDs        []string   `gorm:"serializer:json;type:text" json:"fileIds"`
	FileCount      int        `gorm:"not null;default:0" json:"-"`
	HasPoll        bool       `gorm:"not null;default:false" json:"hasPoll"`

	ReplyID       *string `gorm:"type:varchar(36);index" json:"replyId,omitempty"`
	ReplyUserID   *string `gorm:"type:varchar(36)" json:"replyUserId,omitempty"`
	ReplyUserHost *string `gorm:"type:varchar(128)" json:"-"`

	RenoteID       *string `gorm:"type:varchar(36);index" json:"renoteId,omitempty"`
	RenoteUserID   *string `gorm:"type:varchar(36)" json:"renoteUserId,omitempty"`
	RenoteUserHost *string `gorm:"type:varchar(128)" json:"-"`

	ChannelID *string `gorm:"type:varchar(36);index" json:"channelId,omitempty"`

	Reply   *Post    `gorm:"foreignKey:ReplyID" json:"reply,omitempty"`
	Channel *Channel `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Post) TableName() string { return "posts" }

// BeforeSave 维护 file_count，供冷存储按“有附件”过滤
func (p *Post) BeforeSave(*gorm.DB) error {
	p.FileCount = len(p.FileIDs)
	return nil
}

// IsLocal 作者是否为本实例用户
func (p *Post) IsLocal() bool { return p.UserHost == nil }
