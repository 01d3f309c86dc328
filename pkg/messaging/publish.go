// pkg/messaging/publish.go
package messaging

import (
	"log"

	"CoinRadar/pkg/engine"
	"CoinRadar/pkg/model"
)

// PublishingEventLog 事件日志装饰器
// 每次成功追加事件后同步发布到提醒事件流，发布失败只记日志，不影响评估
type PublishingEventLog struct {
	inner  engine.EventLog
	client *NATSClient
}

// NewPublishingEventLog 包装事件日志，追加时同时发布到NATS
func NewPublishingEventLog(inner engine.EventLog, client *NATSClient) *PublishingEventLog {
	return &PublishingEventLog{inner: inner, client: client}
}

func (p *PublishingEventLog) AppendEvent(event *model.AlertEvent) error {
	if err := p.inner.AppendEvent(event); err != nil {
		return err
	}

	if p.client != nil && p.client.IsConnected() {
		if err := p.client.PublishAlert(event); err != nil {
			log.Printf("发布提醒事件到NATS失败: %v", err)
		}
	}
	return nil
}

func (p *PublishingEventLog) ListEventsByUser(userID string, limit int) ([]*model.AlertEvent, error) {
	return p.inner.ListEventsByUser(userID, limit)
}

func (p *PublishingEventLog) UpdateEventDelivery(id string, channels []string, status model.AlertStatus) error {
	return p.inner.UpdateEventDelivery(id, channels, status)
}

func (p *PublishingEventLog) UpdateEventStatus(id string, status model.AlertStatus) error {
	return p.inner.UpdateEventStatus(id, status)
}
