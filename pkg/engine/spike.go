// pkg/engine/spike.go
package engine

import (
	"log"
	"sort"
	"time"

	"CoinRadar/pkg/collector"
	"CoinRadar/pkg/model"
)

// SpikeEvaluator 放量评估器
// 对每条启用规则的每个周期，计算最新成交量相对滚动基线的倍数，
// 阈值按降序评估，同一轮只尝试最高命中阈值
type SpikeEvaluator struct {
	rules     RuleStore
	market    collector.MarketData
	cooldowns *CooldownTracker
	events    EventLog
	notifier  Notifier
	now       func() time.Time
}

// SpikeOption 评估器可选配置
type SpikeOption func(*SpikeEvaluator)

// WithSpikeClock 注入时钟（测试用）
func WithSpikeClock(now func() time.Time) SpikeOption {
	return func(s *SpikeEvaluator) {
		s.now = now
	}
}

// NewSpikeEvaluator 创建放量评估器
func NewSpikeEvaluator(
	rules RuleStore,
	market collector.MarketData,
	cooldowns *CooldownTracker,
	events EventLog,
	notifier Notifier,
	opts ...SpikeOption,
) *SpikeEvaluator {
	s := &SpikeEvaluator{
		rules:     rules,
		market:    market,
		cooldowns: cooldowns,
		events:    events,
		notifier:  notifier,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateUser 评估指定用户的全部启用规则，返回实际发出的提醒数量
// 单个(规则, 周期)的行情错误只记录日志，不影响其他规则的评估
func (s *SpikeEvaluator) EvaluateUser(userID string) (int, error) {
	rules, err := s.rules.ListRulesByUser(userID)
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		for _, timeframe := range rule.Timeframes {
			if s.evaluateTimeframe(rule, timeframe) {
				fired++
			}
		}
	}
	return fired, nil
}

// evaluateTimeframe 评估单个(规则, 周期)，返回是否发出提醒
func (s *SpikeEvaluator) evaluateTimeframe(rule *model.AlertRule, timeframe string) bool {
	baselineVolume, err := s.market.AverageVolume(rule.Symbol, timeframe, rule.BaselineWindow)
	if err != nil {
		s.logMarketError(rule, timeframe, "基线成交量", err)
		return false
	}

	currentVolume, err := s.market.LatestVolume(rule.Symbol, timeframe)
	if err != nil {
		s.logMarketError(rule, timeframe, "最新成交量", err)
		return false
	}

	// 基线为零无法计算倍数，不算错误，只是没有信号
	if baselineVolume <= 0 {
		return false
	}

	ratio := currentVolume / baselineVolume

	// 阈值降序评估，只尝试最高命中的那个；
	// 冷却未过时也不回落到更低阈值，避免同一轮放量重复打扰
	thresholds := append([]float64(nil), rule.Thresholds...)
	sort.Sort(sort.Reverse(sort.Float64Slice(thresholds)))

	for _, threshold := range thresholds {
		if ratio < threshold {
			continue
		}

		now := s.now()
		cooldown := time.Duration(rule.CooldownSeconds) * time.Second
		if !s.cooldowns.TryFire(spikeCooldownKey(rule.ID, timeframe, threshold), cooldown, now) {
			return false
		}

		event := &model.AlertEvent{
			UserID:            rule.UserID,
			RuleID:            rule.ID,
			Type:              model.AlertTypeSpike,
			Symbol:            rule.Symbol,
			Timeframe:         timeframe,
			Threshold:         threshold,
			Ratio:             ratio,
			CurrentVolume:     currentVolume,
			BaselineVolume:    baselineVolume,
			TriggeredAt:       now,
			DeliveredChannels: []string{},
			Status:            model.StatusTriggered,
		}

		if err := s.events.AppendEvent(event); err != nil {
			log.Printf("写入放量事件失败: 规则=%s 周期=%s 错误=%v", rule.ID, timeframe, err)
			return false
		}

		if delivered := dispatch(s.notifier, event); len(delivered) > 0 {
			if err := s.events.UpdateEventDelivery(event.ID, delivered, model.StatusDelivered); err != nil {
				log.Printf("更新投递结果失败: 事件=%s 错误=%v", event.ID, err)
			}
		}

		log.Printf("放量提醒: %s %s 倍数=%.2f 阈值=%.1f", rule.Symbol, timeframe, ratio, threshold)
		return true
	}

	return false
}

func (s *SpikeEvaluator) logMarketError(rule *model.AlertRule, timeframe, what string, err error) {
	if collector.IsSymbolNotFound(err) {
		log.Printf("获取%s失败: %s %s 交易对不存在", what, rule.Symbol, timeframe)
		return
	}
	log.Printf("获取%s失败: %s %s 错误=%v", what, rule.Symbol, timeframe, err)
}
