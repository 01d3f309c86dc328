// pkg/model/baseline.go
package model

import "time"

// 监控基线默认冷却时间（秒）
const DefaultBaselineCooldownSec = 600

// MonitorBaseline 新进入检测基线
// 按 (user_id, filter_signature) 唯一，不同签名的基线互不影响；
// MemberIDs 是上次评估观察到的成员快照
type MonitorBaseline struct {
	UserID          string    `gorm:"type:uuid;not null;primaryKey" json:"user_id"`
	FilterSignature string    `gorm:"type:varchar(64);not null;primaryKey" json:"filter_signature"`
	MemberIDs       []string  `gorm:"serializer:json;type:jsonb" json:"member_ids"`
	Enabled         bool      `gorm:"default:true" json:"enabled"`
	CooldownSeconds int       `gorm:"default:600" json:"cooldown_seconds"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (MonitorBaseline) TableName() string {
	return "monitor_baselines"
}
