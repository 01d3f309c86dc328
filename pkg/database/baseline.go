// pkg/database/baseline.go
package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"CoinRadar/pkg/model"
)

type BaselineDB struct {
	db *gorm.DB
}

func (p *Postgres) Baseline() *BaselineDB {
	return &BaselineDB{db: p.db}
}

// GetOrCreateBaseline 获取基线，不存在时创建空基线；第二个返回值表示是否新建
func (b *BaselineDB) GetOrCreateBaseline(userID, signature string) (*model.MonitorBaseline, bool, error) {
	var baseline model.MonitorBaseline
	var created bool

	err := b.db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&baseline, "user_id = ? AND filter_signature = ?", userID, signature).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("获取基线失败: %w", err)
		}

		baseline = model.MonitorBaseline{
			UserID:          userID,
			FilterSignature: signature,
			MemberIDs:       []string{},
			Enabled:         true,
			CooldownSeconds: model.DefaultBaselineCooldownSec,
			UpdatedAt:       time.Now(),
		}
		if err := tx.Create(&baseline).Error; err != nil {
			return fmt.Errorf("创建基线失败: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &baseline, created, nil
}

// DiffAndReplaceMembers 行锁内对比更新前快照并覆盖
// 差值始终基于更新前的快照，替换在同一事务内提交
func (b *BaselineDB) DiffAndReplaceMembers(userID, signature string, currentIDs []string) ([]string, error) {
	var newIDs []string

	err := b.db.Transaction(func(tx *gorm.DB) error {
		var baseline model.MonitorBaseline
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&baseline, "user_id = ? AND filter_signature = ?", userID, signature).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("基线 %s/%s: %w", userID, signature, model.ErrNotFound)
			}
			return fmt.Errorf("获取基线失败: %w", err)
		}

		previous := make(map[string]struct{}, len(baseline.MemberIDs))
		for _, id := range baseline.MemberIDs {
			previous[id] = struct{}{}
		}

		newIDs = make([]string, 0)
		for _, id := range currentIDs {
			if _, seen := previous[id]; !seen {
				newIDs = append(newIDs, id)
			}
		}

		baseline.MemberIDs = append([]string(nil), currentIDs...)
		baseline.UpdatedAt = time.Now()
		if err := tx.Save(&baseline).Error; err != nil {
			return fmt.Errorf("覆盖基线快照失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newIDs, nil
}

// SetBaselineEnabled 更新基线开关与冷却配置，不触碰成员快照
func (b *BaselineDB) SetBaselineEnabled(userID, signature string, enabled bool, cooldownSeconds int) error {
	updates := map[string]interface{}{
		"enabled":    enabled,
		"updated_at": time.Now(),
	}
	if cooldownSeconds > 0 {
		updates["cooldown_seconds"] = cooldownSeconds
	}

	result := b.db.Model(&model.MonitorBaseline{}).
		Where("user_id = ? AND filter_signature = ?", userID, signature).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("更新基线配置失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("基线 %s/%s: %w", userID, signature, model.ErrNotFound)
	}
	return nil
}
