package timeline

import (
	"time"

	"github.com/google/uuid"
)

// NewID 生成帖子 id（UUIDv7，字符串字典序与创建时间一致）
func NewID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// IDFromTime 生成 t 对应毫秒的最小 v7 id，用于把 sinceDate/untilDate 换成游标
func IDFromTime(t time.Time) string {
	ms := uint64(t.UnixMilli())
	var u uuid.UUID
	u[0] = byte(ms >> 40)
	u[1] = byte(ms >> 32)
	u[2] = byte(ms >> 24)
	u[3] = byte(ms >> 16)
	u[4] = byte(ms >> 8)
	u[5] = byte(ms)
	u[6] = 0x70
	u[8] = 0x80
	return u.String()
}

// ValidID 游标必须是规范格式的 uuid 字符串
func ValidID(s string) bool {
	u, err := uuid.Parse(s)
	return err == nil && u.String() == s
}

// Cursor 解析 id 与日期两种游标，id 优先；dateMs 为 0 表示未提供
func Cursor(id string, dateMs int64) string {
	if id != "" {
		return id
	}
	if dateMs > 0 {
		return IDFromTime(time.UnixMilli(dateMs))
	}
	return ""
}
