package model

import "time"

// Muting A 屏蔽 B 的帖子
type Muting struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	MuterID   string `gorm:"type:varchar(36);uniqueIndex:ux_muting_pair;not null"`
	MuteeID   string `gorm:"type:varchar(36);uniqueIndex:ux_muting_pair;not null"`
	CreatedAt time.Time
}

func (Muting) TableName() string { return "mutings" }

// RenoteMuting 只屏蔽 B 的纯转发
type RenoteMuting struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	MuterID   string `gorm:"type:varchar(36);uniqueIndex:ux_renote_muting_pair;not null"`
	MuteeID   string `gorm:"type:varchar(36);uniqueIndex:ux_renote_muting_pair;not null"`
	CreatedAt time.Time
}

func (RenoteMuting) TableName() string { return "renote_mutings" }

// Blocking A 拉黑 B；时间线过滤关心的是“谁拉黑了我”
type Blocking struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	BlockerID string `gorm:"type:varchar(36);uniqueIndex:ux_blocking_pair;not null"`
	BlockeeID string `gorm:"type:varchar(36);index:idx_blocking_blockee;uniqueIndex:ux_blocking_pair;not null"`
	CreatedAt time.Time
}

func (Blocking) TableName() string { return "blockings" }

// InstanceMute 用户屏蔽整个实例
type InstanceMute struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);uniqueIndex:ux_instance_mute;not null"`
	Host      string `gorm:"type:varchar(128);uniqueIndex:ux_instance_mute;not null"`
	CreatedAt time.Time
}

func (InstanceMute) TableName() string { return "instance_mutes" }
