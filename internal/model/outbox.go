package model

import "time"

const (
	OutboxPending    = "pending"
	OutboxProcessing = "processing"
	OutboxDone       = "done"
)

// Outbox 发帖事件，与 Post 同事务落地，由 FanoutWorker 扇出到各时间线 key
type Outbox struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	PostID      string    `gorm:"type:varchar(36);uniqueIndex"`
	AuthorID    string    `gorm:"type:varchar(36);index:idx_outbox_author"`
	Status      string    `gorm:"type:varchar(16);index"`
	CreatedAt   time.Time `gorm:"index"`
	ClaimedAt   *time.Time
	ProcessedAt *time.Time
	PushCount   int64
}

func (Outbox) TableName() string { return "outbox" }

// All 需要 AutoMigrate 的模型
func All() []interface{} {
	return []interface{}{
		&User{}, &Channel{}, &Post{}, &Follow{}, &Fan{},
		&Muting{}, &RenoteMuting{}, &Blocking{}, &InstanceMute{},
		&UserList{}, &UserListMembership{}, &Outbox{},
	}
}
