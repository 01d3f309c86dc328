// pkg/repository/repository.go
package repository

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"CoinRadar/pkg/model"
)

// Repository 内存数据仓库
// 与 pkg/database 实现同一组存储接口，进程内存储，不持久化；
// 评估器测试和无数据库部署使用这个实现
type Repository struct {
	mutex     sync.RWMutex
	rules     map[string]*model.AlertRule
	baselines map[string]*model.MonitorBaseline // key: user_id|filter_signature
	events    []*model.AlertEvent
	eventByID map[string]*model.AlertEvent
	screeners map[string]*model.ScreenerConfig
	links     map[string]*model.ChannelLink // key: user_id|channel
	records   []*model.NotificationRecord
}

// NewRepository 创建内存数据仓库
func NewRepository() *Repository {
	return &Repository{
		rules:     make(map[string]*model.AlertRule),
		baselines: make(map[string]*model.MonitorBaseline),
		events:    make([]*model.AlertEvent, 0),
		eventByID: make(map[string]*model.AlertEvent),
		screeners: make(map[string]*model.ScreenerConfig),
		links:     make(map[string]*model.ChannelLink),
		records:   make([]*model.NotificationRecord, 0),
	}
}

func baselineKey(userID, signature string) string {
	return userID + "|" + signature
}

func linkKey(userID, channel string) string {
	return userID + "|" + channel
}

// ---- 规则存储 ----

// CreateRule 创建规则，分配ID并打时间戳
func (r *Repository) CreateRule(rule *model.AlertRule) error {
	if err := rule.Prepare(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	r.rules[rule.ID] = rule
	return nil
}

// GetRule 按ID获取规则
func (r *Repository) GetRule(id string) (*model.AlertRule, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	rule, exists := r.rules[id]
	if !exists {
		return nil, fmt.Errorf("规则 %s: %w", id, model.ErrNotFound)
	}
	return rule, nil
}

// UpdateRule 合并部分字段并更新时间戳
func (r *Repository) UpdateRule(id string, update model.RuleUpdate) (*model.AlertRule, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	rule, exists := r.rules[id]
	if !exists {
		return nil, fmt.Errorf("规则 %s: %w", id, model.ErrNotFound)
	}

	merged := *rule
	if update.Symbol != nil {
		merged.Symbol = strings.ToUpper(strings.TrimSpace(*update.Symbol))
	}
	if update.Timeframes != nil {
		merged.Timeframes = *update.Timeframes
	}
	if update.Thresholds != nil {
		merged.Thresholds = *update.Thresholds
	}
	if update.BaselineWindow != nil {
		merged.BaselineWindow = *update.BaselineWindow
	}
	if update.CooldownSeconds != nil {
		merged.CooldownSeconds = *update.CooldownSeconds
	}
	if update.Enabled != nil {
		merged.Enabled = *update.Enabled
	}

	if err := merged.Prepare(); err != nil {
		return nil, err
	}
	merged.UpdatedAt = time.Now()

	r.rules[id] = &merged
	return &merged, nil
}

// DeleteRule 删除规则
// 幂等：重复删除不算错误；历史事件中的 rule_id 悬空，读取方按"规则已删除"展示
func (r *Repository) DeleteRule(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.rules, id)
	return nil
}

// ListRulesByUser 获取用户的全部规则，按创建时间排序
func (r *Repository) ListRulesByUser(userID string) ([]*model.AlertRule, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*model.AlertRule, 0)
	for _, rule := range r.rules {
		if rule.UserID == userID {
			result = append(result, rule)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// ListRuleUserIDs 获取拥有启用规则的用户ID列表，放量扫描遍历用
func (r *Repository) ListRuleUserIDs() ([]string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	seen := make(map[string]struct{})
	result := make([]string, 0)
	for _, rule := range r.rules {
		if !rule.Enabled {
			continue
		}
		if _, exists := seen[rule.UserID]; exists {
			continue
		}
		seen[rule.UserID] = struct{}{}
		result = append(result, rule.UserID)
	}
	sort.Strings(result)
	return result, nil
}

// ---- 基线存储 ----

// GetOrCreateBaseline 获取基线，不存在时创建空基线
func (r *Repository) GetOrCreateBaseline(userID, signature string) (*model.MonitorBaseline, bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := baselineKey(userID, signature)
	if baseline, exists := r.baselines[key]; exists {
		return baseline, false, nil
	}

	baseline := &model.MonitorBaseline{
		UserID:          userID,
		FilterSignature: signature,
		MemberIDs:       []string{},
		Enabled:         true,
		CooldownSeconds: model.DefaultBaselineCooldownSec,
		UpdatedAt:       time.Now(),
	}
	r.baselines[key] = baseline
	return baseline, true, nil
}

// DiffAndReplaceMembers 对比更新前快照计算新成员，并用当前集合覆盖快照
// 差值基于更新前的快照；无论下游是否发提醒，快照都会前移
func (r *Repository) DiffAndReplaceMembers(userID, signature string, currentIDs []string) ([]string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := baselineKey(userID, signature)
	baseline, exists := r.baselines[key]
	if !exists {
		return nil, fmt.Errorf("基线 %s: %w", key, model.ErrNotFound)
	}

	previous := make(map[string]struct{}, len(baseline.MemberIDs))
	for _, id := range baseline.MemberIDs {
		previous[id] = struct{}{}
	}

	newIDs := make([]string, 0)
	for _, id := range currentIDs {
		if _, seen := previous[id]; !seen {
			newIDs = append(newIDs, id)
		}
	}

	baseline.MemberIDs = append([]string(nil), currentIDs...)
	baseline.UpdatedAt = time.Now()
	return newIDs, nil
}

// SetBaselineEnabled 更新基线开关与冷却配置，不触碰成员快照
func (r *Repository) SetBaselineEnabled(userID, signature string, enabled bool, cooldownSeconds int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := baselineKey(userID, signature)
	baseline, exists := r.baselines[key]
	if !exists {
		return fmt.Errorf("基线 %s: %w", key, model.ErrNotFound)
	}

	baseline.Enabled = enabled
	if cooldownSeconds > 0 {
		baseline.CooldownSeconds = cooldownSeconds
	}
	baseline.UpdatedAt = time.Now()
	return nil
}

// ---- 事件日志 ----

// AppendEvent 追加提醒事件
func (r *Repository) AppendEvent(event *model.AlertEvent) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	r.events = append(r.events, event)
	r.eventByID[event.ID] = event
	return nil
}

// ListEventsByUser 按触发时间倒序返回用户事件，limit受硬上限约束
func (r *Repository) ListEventsByUser(userID string, limit int) ([]*model.AlertEvent, error) {
	if limit <= 0 || limit > model.MaxEventQueryLimit {
		limit = model.MaxEventQueryLimit
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*model.AlertEvent, 0)
	for i := len(r.events) - 1; i >= 0 && len(result) < limit; i-- {
		if r.events[i].UserID == userID {
			result = append(result, r.events[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TriggeredAt.After(result[j].TriggeredAt)
	})
	return result, nil
}

// UpdateEventDelivery 记录投递结果，只修改状态和投递渠道
func (r *Repository) UpdateEventDelivery(id string, channels []string, status model.AlertStatus) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	event, exists := r.eventByID[id]
	if !exists {
		return fmt.Errorf("事件 %s: %w", id, model.ErrNotFound)
	}
	event.DeliveredChannels = append([]string(nil), channels...)
	event.Status = status
	return nil
}

// UpdateEventStatus 修改事件状态（已读/忽略/稍后提醒）
func (r *Repository) UpdateEventStatus(id string, status model.AlertStatus) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	event, exists := r.eventByID[id]
	if !exists {
		return fmt.Errorf("事件 %s: %w", id, model.ErrNotFound)
	}
	event.Status = status
	return nil
}

// ---- 筛选器存储 ----

// SaveScreener 保存筛选器配置
func (r *Repository) SaveScreener(screener *model.ScreenerConfig) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	if screener.ID == "" {
		screener.ID = uuid.New().String()
		screener.CreatedAt = now
	}
	screener.UpdatedAt = now
	r.screeners[screener.ID] = screener
	return nil
}

// ListScreenersByUser 获取用户的筛选器配置
func (r *Repository) ListScreenersByUser(userID string) ([]*model.ScreenerConfig, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*model.ScreenerConfig, 0)
	for _, screener := range r.screeners {
		if screener.UserID == userID {
			result = append(result, screener)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// ListEnabledScreeners 获取全部启用的筛选器，调度器遍历用
func (r *Repository) ListEnabledScreeners() ([]*model.ScreenerConfig, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*model.ScreenerConfig, 0)
	for _, screener := range r.screeners {
		if screener.Enabled {
			result = append(result, screener)
		}
	}
	return result, nil
}

// DeleteScreener 删除筛选器配置，幂等
func (r *Repository) DeleteScreener(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.screeners, id)
	return nil
}

// ---- 渠道绑定 ----

// SaveChannelLink 保存渠道绑定
func (r *Repository) SaveChannelLink(link *model.ChannelLink) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	if existing, exists := r.links[linkKey(link.UserID, link.Channel)]; exists {
		link.CreatedAt = existing.CreatedAt
	} else {
		link.CreatedAt = now
	}
	link.UpdatedAt = now
	r.links[linkKey(link.UserID, link.Channel)] = link
	return nil
}

// SaveNotification 保存通知投递记录
func (r *Repository) SaveNotification(record *model.NotificationRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	r.records = append(r.records, record)
	return nil
}

// ListNotificationsByAlert 获取某个事件的通知记录
func (r *Repository) ListNotificationsByAlert(alertID string) ([]*model.NotificationRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*model.NotificationRecord, 0)
	for _, record := range r.records {
		if record.AlertID == alertID {
			result = append(result, record)
		}
	}
	return result, nil
}

// GetChannelLink 获取渠道绑定
func (r *Repository) GetChannelLink(userID, channel string) (*model.ChannelLink, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	link, exists := r.links[linkKey(userID, channel)]
	if !exists {
		return nil, fmt.Errorf("渠道绑定 %s/%s: %w", userID, channel, model.ErrNotFound)
	}
	return link, nil
}
