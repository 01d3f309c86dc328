// pkg/model/notification.go
package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"time"
)

// NotificationRecord 通知投递记录
type NotificationRecord struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string     `gorm:"type:uuid;not null;index" json:"user_id"`
	AlertID   string     `gorm:"type:uuid;not null;index" json:"alert_id"`
	Channel   string     `gorm:"type:varchar(20);not null" json:"channel"`         // inApp, telegram
	Status    string     `gorm:"type:varchar(20);default:'pending'" json:"status"` // pending, sent, failed
	SentAt    *time.Time `json:"sent_at"`
	Error     string     `json:"error"`
	CreatedAt time.Time  `json:"created_at"`
}

func (n *NotificationRecord) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// ChannelLink 外部通知渠道绑定
// 用户需要先带外绑定（例如 telegram chat_id）才能通过该渠道接收提醒
type ChannelLink struct {
	UserID    string    `gorm:"type:uuid;not null;primaryKey" json:"user_id"`
	Channel   string    `gorm:"type:varchar(20);not null;primaryKey" json:"channel"`
	Target    string    `gorm:"not null" json:"target"` // 渠道内目标标识，如 telegram chat_id
	Enabled   bool      `gorm:"default:true" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
