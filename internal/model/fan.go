package model

import "time"

// Fan 粉丝关系（B 的粉丝是 A），冗余自 Follow，供写扩散按作者分页拉取粉丝
type Fan struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_fan_user;uniqueIndex:ux_fan_pair;not null"`
	FanID     string `gorm:"type:varchar(36);uniqueIndex:ux_fan_pair;not null"`
	CreatedAt time.Time
}

func (Fan) TableName() string { return "fans" }
