// pkg/engine/entrant.go
package engine

import (
	"fmt"
	"log"
	"strings"
	"time"

	"CoinRadar/pkg/model"
)

// EntrantEvaluator 新进入评估器
// 对比当前筛选集与基线快照，检测新进入的币种并在冷却允许时发出提醒
type EntrantEvaluator struct {
	baselines    BaselineStore
	cooldowns    *CooldownTracker
	events       EventLog
	notifier     Notifier
	seedFirstRun bool
	now          func() time.Time
}

// EntrantOption 评估器可选配置
type EntrantOption func(*EntrantEvaluator)

// WithSeedFirstRun 控制全新签名首次评估的行为
// true（默认）：首次评估只建立基线快照，不发提醒；
// false：按字面的空集差值处理，当前所有成员都视为新进入
func WithSeedFirstRun(seed bool) EntrantOption {
	return func(e *EntrantEvaluator) {
		e.seedFirstRun = seed
	}
}

// WithEntrantClock 注入时钟（测试用）
func WithEntrantClock(now func() time.Time) EntrantOption {
	return func(e *EntrantEvaluator) {
		e.now = now
	}
}

// NewEntrantEvaluator 创建新进入评估器
func NewEntrantEvaluator(
	baselines BaselineStore,
	cooldowns *CooldownTracker,
	events EventLog,
	notifier Notifier,
	opts ...EntrantOption,
) *EntrantEvaluator {
	e := &EntrantEvaluator{
		baselines:    baselines,
		cooldowns:    cooldowns,
		events:       events,
		notifier:     notifier,
		seedFirstRun: true,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate 执行一次新进入评估，返回实际发出的提醒数量
// 基线快照无论是否发提醒都会前移，投递失败不会导致同一成员下次被重复检测
func (e *EntrantEvaluator) Evaluate(
	userID string,
	currentIDs []string,
	filters model.FilterSet,
	lookup map[string]model.CoinInfo,
) (int, error) {
	signature := filters.Signature()

	baseline, created, err := e.baselines.GetOrCreateBaseline(userID, signature)
	if err != nil {
		return 0, fmt.Errorf("获取监控基线失败: %w", err)
	}

	// 快照始终前移，禁用状态下也要保持基线最新
	newIDs, err := e.baselines.DiffAndReplaceMembers(userID, signature, currentIDs)
	if err != nil {
		return 0, fmt.Errorf("更新基线快照失败: %w", err)
	}

	if !baseline.Enabled {
		return 0, nil
	}

	if created && e.seedFirstRun {
		log.Printf("筛选器 %s 首次评估，建立基线（%d 个成员），不发提醒", signature[:12], len(currentIDs))
		return 0, nil
	}

	cooldown := time.Duration(baseline.CooldownSeconds) * time.Second
	now := e.now()
	fired := 0

	for _, id := range newIDs {
		info, exists := lookup[id]
		if !exists {
			log.Printf("成员 %s 缺少展示信息，跳过", id)
			continue
		}

		symbol := strings.ToUpper(info.Symbol)
		if !e.cooldowns.TryFire(entrantCooldownKey(userID, symbol, signature), cooldown, now) {
			continue
		}

		filterCtx := filters
		event := &model.AlertEvent{
			UserID:            userID,
			Type:              model.AlertTypeEntrant,
			Symbol:            symbol,
			FilterContext:     &filterCtx,
			TriggeredAt:       now,
			DeliveredChannels: []string{},
			Status:            model.StatusTriggered,
		}

		// 先落日志再投递，投递失败也能在事件历史中看到触发记录
		if err := e.events.AppendEvent(event); err != nil {
			log.Printf("写入提醒事件失败: 用户=%s 币种=%s 错误=%v", userID, symbol, err)
			continue
		}

		if delivered := dispatch(e.notifier, event); len(delivered) > 0 {
			if err := e.events.UpdateEventDelivery(event.ID, delivered, model.StatusDelivered); err != nil {
				log.Printf("更新投递结果失败: 事件=%s 错误=%v", event.ID, err)
			}
		}

		log.Printf("新进入提醒: 用户=%s 币种=%s (%s)", userID, symbol, info.Name)
		fired++
	}

	return fired, nil
}
