// pkg/engine/cooldown.go
package engine

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// CooldownTracker 冷却跟踪器
// 每个key记录最近一次成功触发的时刻，check-and-set在锁内完成，
// 同一key的并发评估不会同时通过
type CooldownTracker struct {
	mu        sync.Mutex
	lastFired map[string]time.Time
}

// NewCooldownTracker 创建冷却跟踪器
func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{
		lastFired: make(map[string]time.Time),
	}
}

// TryFire 尝试触发
// 无记录或距上次触发已满 cooldown 时返回true并记录now，否则返回false且不改动记录
func (c *CooldownTracker) TryFire(key string, cooldown time.Duration, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last, exists := c.lastFired[key]; exists {
		if now.Sub(last) < cooldown {
			return false
		}
	}
	c.lastFired[key] = now
	return true
}

// Prune 清理过期记录，控制内存占用
// retention 必须不小于系统中使用的最大冷却时间，否则会缩短实际生效的冷却窗口
func (c *CooldownTracker) Prune(retention time.Duration, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, last := range c.lastFired {
		if now.Sub(last) >= retention {
			delete(c.lastFired, key)
			removed++
		}
	}
	return removed
}

// Len 当前跟踪的key数量
func (c *CooldownTracker) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lastFired)
}

// entrantCooldownKey 新进入提醒的冷却key：(用户, 符号, 筛选器签名)
func entrantCooldownKey(userID, symbol, signature string) string {
	return strings.Join([]string{userID, symbol, signature}, "|")
}

// spikeCooldownKey 放量提醒的冷却key：(规则, 周期, 阈值)
func spikeCooldownKey(ruleID, timeframe string, threshold float64) string {
	return strings.Join([]string{ruleID, timeframe, strconv.FormatFloat(threshold, 'g', -1, 64)}, "|")
}
