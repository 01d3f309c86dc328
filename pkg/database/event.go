// pkg/database/event.go
package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"CoinRadar/pkg/model"
)

type EventDB struct {
	db *gorm.DB
}

func (p *Postgres) Event() *EventDB {
	return &EventDB{db: p.db}
}

// AppendEvent 追加提醒事件
func (e *EventDB) AppendEvent(event *model.AlertEvent) error {
	if err := e.db.Create(event).Error; err != nil {
		return fmt.Errorf("保存提醒事件失败: %w", err)
	}
	return nil
}

// ListEventsByUser 按触发时间倒序查询，limit受硬上限约束
func (e *EventDB) ListEventsByUser(userID string, limit int) ([]*model.AlertEvent, error) {
	if limit <= 0 || limit > model.MaxEventQueryLimit {
		limit = model.MaxEventQueryLimit
	}

	var events []*model.AlertEvent
	err := e.db.Where("user_id = ?", userID).
		Order("triggered_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户提醒事件失败: %w", err)
	}
	return events, nil
}

// UpdateEventDelivery 记录投递结果，只修改状态和投递渠道
func (e *EventDB) UpdateEventDelivery(id string, channels []string, status model.AlertStatus) error {
	result := e.db.Model(&model.AlertEvent{}).
		Where("id = ?", id).
		Select("delivered_channels", "status").
		Updates(model.AlertEvent{DeliveredChannels: channels, Status: status})
	if result.Error != nil {
		return fmt.Errorf("更新投递结果失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("事件 %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// UpdateEventStatus 修改事件状态（已读/忽略/稍后提醒）
func (e *EventDB) UpdateEventStatus(id string, status model.AlertStatus) error {
	result := e.db.Model(&model.AlertEvent{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("更新事件状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("事件 %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// GetEventByID 获取单个事件
func (e *EventDB) GetEventByID(id string) (*model.AlertEvent, error) {
	var event model.AlertEvent
	err := e.db.First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("事件 %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("获取事件失败: %w", err)
	}
	return &event, nil
}

// SaveNotification 保存通知投递记录
func (e *EventDB) SaveNotification(record *model.NotificationRecord) error {
	if err := e.db.Create(record).Error; err != nil {
		return fmt.Errorf("保存通知记录失败: %w", err)
	}
	return nil
}

// CountEventsSince 统计时间段内的事件数量
func (e *EventDB) CountEventsSince(userID string, since time.Time) (int64, error) {
	var count int64
	err := e.db.Model(&model.AlertEvent{}).
		Where("user_id = ? AND triggered_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}
