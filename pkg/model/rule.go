// pkg/model/rule.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 规则默认值
const (
	DefaultBaselineWindow  = 20
	DefaultRuleCooldownSec = 300
)

// AlertRule 放量提醒规则
// 每条规则属于创建它的用户，按 symbol × timeframes × thresholds 评估
type AlertRule struct {
	ID              string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Symbol          string    `gorm:"type:varchar(20);not null;index" json:"symbol"`
	Timeframes      []string  `gorm:"serializer:json;type:jsonb" json:"timeframes"`       // 周期集合，如 ["1h","4h"]
	Thresholds      []float64 `gorm:"serializer:json;type:jsonb" json:"thresholds"`       // 倍数阈值集合，通常 [2,3]
	BaselineWindow  int       `gorm:"default:20" json:"baseline_window"`                  // 基线窗口（已收盘K线数）
	CooldownSeconds int       `gorm:"default:300" json:"cooldown_seconds"`                // 冷却时间（秒）
	Enabled         bool      `gorm:"default:true" json:"enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (r *AlertRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Prepare 创建前规整并校验规则
// 符号转大写，基线窗口和冷却时间缺省时取默认值；校验失败不产生任何副作用
func (r *AlertRule) Prepare() error {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if r.Symbol == "" {
		return NewValidationError("symbol", "不能为空")
	}
	if len(r.Timeframes) == 0 {
		return NewValidationError("timeframes", "不能为空")
	}
	if len(r.Thresholds) == 0 {
		return NewValidationError("thresholds", "不能为空")
	}
	for _, t := range r.Thresholds {
		if t <= 0 {
			return NewValidationError("thresholds", "必须为正数")
		}
	}
	if r.CooldownSeconds < 0 {
		return NewValidationError("cooldown_seconds", "不能为负数")
	}
	if r.BaselineWindow < 0 {
		return NewValidationError("baseline_window", "不能为负数")
	}
	if r.BaselineWindow == 0 {
		r.BaselineWindow = DefaultBaselineWindow
	}
	if r.CooldownSeconds == 0 {
		r.CooldownSeconds = DefaultRuleCooldownSec
	}
	return nil
}

// RuleUpdate 规则部分更新字段
// nil 表示不修改该字段；不可变字段（ID、UserID、CreatedAt）不在此列
type RuleUpdate struct {
	Symbol          *string    `json:"symbol,omitempty"`
	Timeframes      *[]string  `json:"timeframes,omitempty"`
	Thresholds      *[]float64 `json:"thresholds,omitempty"`
	BaselineWindow  *int       `json:"baseline_window,omitempty"`
	CooldownSeconds *int       `json:"cooldown_seconds,omitempty"`
	Enabled         *bool      `json:"enabled,omitempty"`
}
