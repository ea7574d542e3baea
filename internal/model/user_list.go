package model

import "time"

// UserList 用户自建列表
type UserList struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string `gorm:"type:varchar(36);index;not null" json:"userId"`
	Name      string `gorm:"type:varchar(128);not null" json:"name"`
	CreatedAt time.Time
}

func (UserList) TableName() string { return "user_lists" }

// UserListMembership 列表成员
type UserListMembership struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	UserListID string `gorm:"type:varchar(36);uniqueIndex:ux_list_member;not null"`
	UserID     string `gorm:"type:varchar(36);index:idx_list_member_user;uniqueIndex:ux_list_member;not null"`
	CreatedAt  time.Time
}

func (UserListMembership) TableName() string { return "user_list_memberships" }
