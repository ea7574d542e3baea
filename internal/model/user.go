package model

import "time"

// User 用户；Host 为空表示本地用户
type User struct {
	ID        string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username  string  `gorm:"type:varchar(64);index;not null" json:"username"`
	Host      *string `gorm:"type:varchar(128);index" json:"host,omitempty"`
	CreatedAt time.Time
}

func (User) TableName() string { return "users" }

// IsRemote 是否为其他实例的用户
func (u *User) IsRemote() bool { return u.Host != nil }

// Channel 频道
type Channel struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string `gorm:"type:varchar(128);not null" json:"name"`
	IsSensitive bool   `gorm:"not null;default:false" json:"isSensitive"`
	CreatedAt   time.Time
}

func (Channel) TableName() string { return "channels" }
