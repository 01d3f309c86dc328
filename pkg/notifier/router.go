// pkg/notifier/router.go
package notifier

import (
	"log"
	"time"

	"CoinRadar/pkg/model"
)

// Transport 渠道传输
// Resolve 判断用户在该渠道是否可达（已绑定且启用）并返回渠道内目标标识；
// Send 只负责发送，失败返回false，从不panic
type Transport interface {
	Name() string
	Resolve(userID string) (destination string, ok bool)
	Send(destination, message string) bool
}

// NotificationStore 通知记录存储
type NotificationStore interface {
	SaveNotification(record *model.NotificationRecord) error
}

// Router 通知路由
// 消息格式化在这里完成，传输细节交给各渠道；
// 渠道不可用时 Deliver 返回false，不中断调用方
type Router struct {
	transports map[string]Transport
	order      []string
	records    NotificationStore
}

// NewRouter 创建通知路由
func NewRouter(records NotificationStore, transports ...Transport) *Router {
	r := &Router{
		transports: make(map[string]Transport),
		order:      make([]string, 0, len(transports)),
		records:    records,
	}
	for _, t := range transports {
		r.transports[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return r
}

// Channels 注册的渠道名称列表
func (r *Router) Channels() []string {
	return append([]string(nil), r.order...)
}

// Status 渠道对该用户是否当前可用
func (r *Router) Status(userID, channel string) bool {
	transport, exists := r.transports[channel]
	if !exists {
		return false
	}
	_, ok := transport.Resolve(userID)
	return ok
}

// Deliver 投递事件到指定渠道，返回是否投递成功
func (r *Router) Deliver(userID, channel string, event *model.AlertEvent) bool {
	transport, exists := r.transports[channel]
	if !exists {
		return false
	}

	destination, ok := transport.Resolve(userID)
	if !ok {
		return false
	}

	message := FormatAlertMessage(event)
	sent := transport.Send(destination, message)

	r.record(userID, channel, event, sent)
	if !sent {
		log.Printf("渠道 %s 投递失败: 用户=%s 事件=%s", channel, userID, event.ID)
	}
	return sent
}

// record 写通知投递记录，失败只记日志
func (r *Router) record(userID, channel string, event *model.AlertEvent, sent bool) {
	if r.records == nil {
		return
	}

	record := &model.NotificationRecord{
		UserID:    userID,
		AlertID:   event.ID,
		Channel:   channel,
		Status:    "failed",
		CreatedAt: time.Now(),
	}
	if sent {
		now := time.Now()
		record.Status = "sent"
		record.SentAt = &now
	}

	if err := r.records.SaveNotification(record); err != nil {
		log.Printf("保存通知记录失败: %v", err)
	}
}
