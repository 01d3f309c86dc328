// pkg/engine/stores.go
package engine

import (
	"CoinRadar/pkg/model"
)

// 渠道名称
const (
	ChannelInApp    = "inApp"
	ChannelTelegram = "telegram"
)

// RuleStore 放量规则存储
type RuleStore interface {
	CreateRule(rule *model.AlertRule) error
	GetRule(id string) (*model.AlertRule, error)
	UpdateRule(id string, update model.RuleUpdate) (*model.AlertRule, error)
	DeleteRule(id string) error
	ListRulesByUser(userID string) ([]*model.AlertRule, error)
}

// BaselineStore 监控基线存储
type BaselineStore interface {
	// GetOrCreateBaseline 返回已有基线，不存在时创建空基线；第二个返回值表示是否新建
	GetOrCreateBaseline(userID, signature string) (*model.MonitorBaseline, bool, error)
	// DiffAndReplaceMembers 对比更新前快照计算新成员，并原子地用当前集合覆盖快照
	DiffAndReplaceMembers(userID, signature string, currentIDs []string) ([]string, error)
	// SetBaselineEnabled 更新基线开关与冷却配置，不触碰成员快照
	SetBaselineEnabled(userID, signature string, enabled bool, cooldownSeconds int) error
}

// EventLog 提醒事件日志（追加写，按用户倒序查询）
// 事件创建后只允许修改 Status 和 DeliveredChannels
type EventLog interface {
	AppendEvent(event *model.AlertEvent) error
	ListEventsByUser(userID string, limit int) ([]*model.AlertEvent, error)
	UpdateEventDelivery(id string, channels []string, status model.AlertStatus) error
	UpdateEventStatus(id string, status model.AlertStatus) error
}

// Notifier 通知路由
// Deliver 对不可用渠道返回false，从不panic或报错中断评估
type Notifier interface {
	Deliver(userID, channel string, event *model.AlertEvent) bool
	Status(userID, channel string) bool
	Channels() []string
}

// dispatch 投递提醒事件：inApp始终尝试，其余已启用渠道依次尝试
// 返回实际投递成功的渠道列表
func dispatch(notifier Notifier, event *model.AlertEvent) []string {
	delivered := make([]string, 0, 2)
	if notifier == nil {
		return delivered
	}

	if notifier.Deliver(event.UserID, ChannelInApp, event) {
		delivered = append(delivered, ChannelInApp)
	}

	for _, channel := range notifier.Channels() {
		if channel == ChannelInApp {
			continue
		}
		if !notifier.Status(event.UserID, channel) {
			continue
		}
		if notifier.Deliver(event.UserID, channel, event) {
			delivered = append(delivered, channel)
		}
	}

	return delivered
}
