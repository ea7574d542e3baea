package model

import "time"

// Follow 关注关系（A 关注 B），home 时间线冷查询与可见性判断的依据
type Follow struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	FollowerID string `gorm:"type:varchar(36);index:idx_follow_follower;uniqueIndex:ux_follow_pair;not null"`
	FolloweeID string `gorm:"type:varchar(36);index:idx_follow_followee;uniqueIndex:ux_follow_pair;not null"`
	CreatedAt  time.Time
}

func (Follow) TableName() string { return "follows" }
