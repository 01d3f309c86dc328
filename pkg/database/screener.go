// pkg/database/screener.go
package database

import (
	"fmt"

	"gorm.io/gorm"

	"CoinRadar/pkg/model"
)

type ScreenerDB struct {
	db *gorm.DB
}

func (p *Postgres) Screener() *ScreenerDB {
	return &ScreenerDB{db: p.db}
}

// SaveScreener 保存筛选器配置（新建或覆盖）
func (s *ScreenerDB) SaveScreener(screener *model.ScreenerConfig) error {
	if err := s.db.Save(screener).Error; err != nil {
		return fmt.Errorf("保存筛选器失败: %w", err)
	}
	return nil
}

func (s *ScreenerDB) ListScreenersByUser(userID string) ([]*model.ScreenerConfig, error) {
	var screeners []*model.ScreenerConfig
	err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&screeners).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户筛选器失败: %w", err)
	}
	return screeners, nil
}

// ListEnabledScreeners 获取全部启用的筛选器，调度器遍历用
func (s *ScreenerDB) ListEnabledScreeners() ([]*model.ScreenerConfig, error) {
	var screeners []*model.ScreenerConfig
	err := s.db.Where("enabled = ?", true).Find(&screeners).Error
	if err != nil {
		return nil, fmt.Errorf("查询启用筛选器失败: %w", err)
	}
	return screeners, nil
}

// DeleteScreener 删除筛选器配置，幂等
func (s *ScreenerDB) DeleteScreener(id string) error {
	if err := s.db.Delete(&model.ScreenerConfig{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("删除筛选器失败: %w", err)
	}
	return nil
}
