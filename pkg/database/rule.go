// pkg/database/rule.go
package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"CoinRadar/pkg/model"
)

type RuleDB struct {
	db *gorm.DB
}

func (p *Postgres) Rule() *RuleDB {
	return &RuleDB{db: p.db}
}

// CreateRule 创建规则，校验失败不落库
func (r *RuleDB) CreateRule(rule *model.AlertRule) error {
	if err := rule.Prepare(); err != nil {
		return err
	}
	if err := r.db.Create(rule).Error; err != nil {
		return fmt.Errorf("保存规则失败: %w", err)
	}
	return nil
}

func (r *RuleDB) GetRule(id string) (*model.AlertRule, error) {
	var rule model.AlertRule
	err := r.db.First(&rule, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("规则 %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("获取规则失败: %w", err)
	}
	return &rule, nil
}

// UpdateRule 合并部分字段，整行校验后写回
func (r *RuleDB) UpdateRule(id string, update model.RuleUpdate) (*model.AlertRule, error) {
	var merged *model.AlertRule
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var rule model.AlertRule
		if err := tx.First(&rule, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("规则 %s: %w", id, model.ErrNotFound)
			}
			return fmt.Errorf("获取规则失败: %w", err)
		}

		if update.Symbol != nil {
			rule.Symbol = strings.ToUpper(strings.TrimSpace(*update.Symbol))
		}
		if update.Timeframes != nil {
			rule.Timeframes = *update.Timeframes
		}
		if update.Thresholds != nil {
			rule.Thresholds = *update.Thresholds
		}
		if update.BaselineWindow != nil {
			rule.BaselineWindow = *update.BaselineWindow
		}
		if update.CooldownSeconds != nil {
			rule.CooldownSeconds = *update.CooldownSeconds
		}
		if update.Enabled != nil {
			rule.Enabled = *update.Enabled
		}

		if err := rule.Prepare(); err != nil {
			return err
		}
		rule.UpdatedAt = time.Now()

		if err := tx.Save(&rule).Error; err != nil {
			return fmt.Errorf("更新规则失败: %w", err)
		}
		merged = &rule
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// DeleteRule 删除规则，幂等；历史事件保留悬空的 rule_id
func (r *RuleDB) DeleteRule(id string) error {
	if err := r.db.Delete(&model.AlertRule{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("删除规则失败: %w", err)
	}
	return nil
}

// ListRuleUserIDs 获取拥有启用规则的用户ID列表，放量扫描遍历用
func (r *RuleDB) ListRuleUserIDs() ([]string, error) {
	var userIDs []string
	err := r.db.Model(&model.AlertRule{}).
		Where("enabled = ?", true).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("查询规则用户失败: %w", err)
	}
	return userIDs, nil
}

func (r *RuleDB) ListRulesByUser(userID string) ([]*model.AlertRule, error) {
	var rules []*model.AlertRule
	err := r.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户规则失败: %w", err)
	}
	return rules, nil
}
