// pkg/model/event.go
package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"time"
)

// AlertType 提醒类型枚举
type AlertType string

const (
	AlertTypeEntrant AlertType = "entrant" // 新进入筛选集
	AlertTypeSpike   AlertType = "spike"   // 成交量放量
)

// MaxEventQueryLimit 事件历史单次查询硬上限
const MaxEventQueryLimit = 500

// AlertStatus 提醒状态
type AlertStatus string

const (
	StatusTriggered AlertStatus = "triggered"
	StatusDelivered AlertStatus = "delivered"
	StatusDismissed AlertStatus = "dismissed"
	StatusSnoozed   AlertStatus = "snoozed"
)

// AlertEvent 提醒事件
// 创建后不可变，只允许修改 Status 和 DeliveredChannels；
// TriggeredAt 和各数值字段是触发时刻的事实，永不修改
type AlertEvent struct {
	ID                string      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string      `gorm:"type:uuid;not null;index" json:"user_id"`
	RuleID            string      `gorm:"type:uuid;index" json:"rule_id,omitempty"` // 弱引用，规则删除后悬空
	Type              AlertType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Symbol            string      `gorm:"type:varchar(20);index" json:"symbol"`
	Timeframe         string      `gorm:"type:varchar(10)" json:"timeframe,omitempty"`          // 仅 spike
	Threshold         float64     `gorm:"type:decimal(10,4)" json:"threshold,omitempty"`        // 仅 spike
	Ratio             float64     `gorm:"type:decimal(10,4)" json:"ratio,omitempty"`            // 仅 spike
	CurrentVolume     float64     `json:"current_volume,omitempty"`                             // 仅 spike
	BaselineVolume    float64     `json:"baseline_volume,omitempty"`                            // 仅 spike
	FilterContext     *FilterSet  `gorm:"serializer:json;type:jsonb" json:"filter_context,omitempty"` // 仅 entrant
	TriggeredAt       time.Time   `gorm:"index:idx_triggered_at" json:"triggered_at"`
	DeliveredChannels []string    `gorm:"serializer:json;type:jsonb" json:"delivered_channels"`
	Status            AlertStatus `gorm:"type:varchar(20);default:'triggered';index" json:"status"`

	// 通知记录
	Notifications []NotificationRecord `gorm:"foreignKey:AlertID" json:"notifications,omitempty"`
}

func (a *AlertEvent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (AlertEvent) TableName() string {
	return "alert_events"
}
