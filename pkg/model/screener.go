// pkg/model/screener.go
package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"time"
)

// ScreenerConfig 用户保存的筛选器
// 调度器遍历启用的筛选器，拉取行情快照后触发新进入评估
type ScreenerConfig struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Filters   FilterSet `gorm:"serializer:json;type:jsonb" json:"filters"`
	Enabled   bool      `gorm:"default:true" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *ScreenerConfig) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
