// pkg/notifier/format.go
package notifier

import (
	"fmt"

	"CoinRadar/pkg/model"
)

// FormatAlertMessage 格式化提醒消息
func FormatAlertMessage(event *model.AlertEvent) string {
	switch event.Type {
	case model.AlertTypeEntrant:
		return formatEntrantMessage(event)
	case model.AlertTypeSpike:
		return formatSpikeMessage(event)
	default:
		return fmt.Sprintf("提醒: %s", event.Symbol)
	}
}

// formatEntrantMessage 新进入提醒消息
func formatEntrantMessage(event *model.AlertEvent) string {
	msg := fmt.Sprintf(`🆕 新币种进入筛选集

💎 币种：%s
⏰ 时间：%s`,
		event.Symbol, event.TriggeredAt.Format("2006-01-02 15:04:05"))

	if event.FilterContext != nil {
		f := event.FilterContext
		msg += fmt.Sprintf(`

📋 筛选条件：
• 市值 ≥ %.0f
• 24h成交量 ≥ %.0f`, f.MinMarketCap, f.MinVolume24h)
		if f.MaxMarketCap > 0 {
			msg += fmt.Sprintf("\n• 市值 ≤ %.0f", f.MaxMarketCap)
		}
		if f.MinVolToMcapPct > 0 {
			msg += fmt.Sprintf("\n• 量/市值 ≥ %.1f%%", f.MinVolToMcapPct)
		}
	}

	return msg
}

// formatSpikeMessage 放量提醒消息
func formatSpikeMessage(event *model.AlertEvent) string {
	return fmt.Sprintf(`🚨 成交量放量提醒

📈 币种：%s
🕐 周期：%s
🔥 放量倍数：%.2fx（阈值 %.1fx）
📊 当前成交量：%.2f
📉 基线成交量：%.2f

⏰ 时间：%s`,
		event.Symbol, event.Timeframe, event.Ratio, event.Threshold,
		event.CurrentVolume, event.BaselineVolume,
		event.TriggeredAt.Format("2006-01-02 15:04:05"))
}
