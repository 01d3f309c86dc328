// pkg/database/link.go
package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"CoinRadar/pkg/model"
)

type ChannelLinkDB struct {
	db *gorm.DB
}

func (p *Postgres) ChannelLink() *ChannelLinkDB {
	return &ChannelLinkDB{db: p.db}
}

// SaveChannelLink 保存渠道绑定，按 (user_id, channel) 覆盖
func (c *ChannelLinkDB) SaveChannelLink(link *model.ChannelLink) error {
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "channel"}},
		UpdateAll: true,
	}).Create(link).Error
	if err != nil {
		return fmt.Errorf("保存渠道绑定失败: %w", err)
	}
	return nil
}

func (c *ChannelLinkDB) GetChannelLink(userID, channel string) (*model.ChannelLink, error) {
	var link model.ChannelLink
	err := c.db.First(&link, "user_id = ? AND channel = ?", userID, channel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("渠道绑定 %s/%s: %w", userID, channel, model.ErrNotFound)
		}
		return nil, fmt.Errorf("获取渠道绑定失败: %w", err)
	}
	return &link, nil
}
