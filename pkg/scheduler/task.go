package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"CoinRadar/pkg/collector"
	"CoinRadar/pkg/engine"
	"CoinRadar/pkg/model"
)

// ScreenerSource 启用筛选器来源
type ScreenerSource interface {
	ListEnabledScreeners() ([]*model.ScreenerConfig, error)
}

// RuleUserSource 放量扫描的用户来源
type RuleUserSource interface {
	ListRuleUserIDs() ([]string, error)
}

// Scheduler 任务调度器
// 周期性触发新进入扫描和放量扫描，评估本身由引擎完成
type Scheduler struct {
	cron      *cron.Cron
	entrant   *engine.EntrantEvaluator
	spike     *engine.SpikeEvaluator
	markets   collector.MembershipSource
	screeners ScreenerSource
	ruleUsers RuleUserSource
	cooldowns *engine.CooldownTracker
}

// NewScheduler 创建任务调度器
func NewScheduler(
	entrant *engine.EntrantEvaluator,
	spike *engine.SpikeEvaluator,
	markets collector.MembershipSource,
	screeners ScreenerSource,
	ruleUsers RuleUserSource,
	cooldowns *engine.CooldownTracker,
) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		entrant:   entrant,
		spike:     spike,
		markets:   markets,
		screeners: screeners,
		ruleUsers: ruleUsers,
		cooldowns: cooldowns,
	}
}

// Start 启动调度器
func (s *Scheduler) Start(entrantInterval, spikeInterval string) error {
	if entrantInterval == "" {
		entrantInterval = "@every 5m"
	}
	if spikeInterval == "" {
		spikeInterval = "@every 1m"
	}

	if _, err := s.cron.AddFunc(entrantInterval, s.RunEntrantScan); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(spikeInterval, s.RunSpikeScan); err != nil {
		return err
	}

	// 定期清理已冷却的key，清理窗口远大于任何规则的冷却时间
	if _, err := s.cron.AddFunc("@every 1h", func() {
		removed := s.cooldowns.Prune(24*time.Hour, time.Now())
		if removed > 0 {
			log.Printf("清理冷却记录 %d 条", removed)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("调度器已启动: 新进入扫描 %s, 放量扫描 %s", entrantInterval, spikeInterval)
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunEntrantScan 执行一轮新进入扫描
// 行情快照每轮只拉取一次，供所有筛选器复用
func (s *Scheduler) RunEntrantScan() {
	coins, err := s.markets.FetchMarkets()
	if err != nil {
		log.Printf("拉取行情快照失败: %v", err)
		return
	}

	screeners, err := s.screeners.ListEnabledScreeners()
	if err != nil {
		log.Printf("加载筛选器失败: %v", err)
		return
	}

	for _, screener := range screeners {
		ids, lookup := collector.ApplyFilter(coins, screener.Filters)
		fired, err := s.entrant.Evaluate(screener.UserID, ids, screener.Filters, lookup)
		if err != nil {
			log.Printf("新进入评估失败: 用户=%s 错误=%v", screener.UserID, err)
			continue
		}
		if fired > 0 {
			log.Printf("新进入扫描: 用户=%s 筛选器=%s 发出 %d 条提醒", screener.UserID, screener.Name, fired)
		}
	}
}

// RunSpikeScan 执行一轮放量扫描
func (s *Scheduler) RunSpikeScan() {
	userIDs, err := s.ruleUsers.ListRuleUserIDs()
	if err != nil {
		log.Printf("加载规则用户失败: %v", err)
		return
	}

	for _, userID := range userIDs {
		fired, err := s.spike.EvaluateUser(userID)
		if err != nil {
			log.Printf("放量评估失败: 用户=%s 错误=%v", userID, err)
			continue
		}
		if fired > 0 {
			log.Printf("放量扫描: 用户=%s 发出 %d 条提醒", userID, fired)
		}
	}
}
