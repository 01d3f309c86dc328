// pkg/messaging/nats.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"CoinRadar/pkg/model"
)

// AlertsStream 提醒事件流名称
const AlertsStream = "ALERTS_STREAM"

// NATSClient NATS JetStream客户端
// 引擎把每个触发的提醒事件发布到 alerts.<user_id>，供下游消费
type NATSClient struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewNATSClient 创建NATS客户端并初始化提醒事件流
func NewNATSClient(natsURL string) (*NATSClient, error) {
	nc, err := nats.Connect(natsURL,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // 无限重连
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS连接断开: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Println("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := &NATSClient{
		conn:      nc,
		jetStream: js,
		ctx:       ctx,
		cancel:    cancel,
	}

	if err := client.setupStream(); err != nil {
		log.Printf("警告: 设置Stream失败: %v", err)
	}

	return client, nil
}

// setupStream 设置提醒事件流
func (c *NATSClient) setupStream() error {
	config := jetstream.StreamConfig{
		Name:        AlertsStream,
		Subjects:    []string{"alerts.*"},
		Description: "提醒事件数据流",
		Retention:   jetstream.LimitsPolicy,
		MaxMsgs:     50000,
		MaxBytes:    50 * 1024 * 1024,   // 50MB
		MaxAge:      7 * 24 * time.Hour, // 保留7天
	}

	_, err := c.jetStream.CreateOrUpdateStream(c.ctx, config)
	if err != nil {
		return fmt.Errorf("创建/更新Stream %s 失败: %w", config.Name, err)
	}
	log.Printf("Stream %s 设置成功", config.Name)
	return nil
}

// PublishAlert 发布提醒事件到 alerts.<user_id>
func (c *NATSClient) PublishAlert(event *model.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化提醒事件失败: %w", err)
	}

	subject := fmt.Sprintf("alerts.%s", event.UserID)
	if _, err := c.jetStream.Publish(c.ctx, subject, payload); err != nil {
		return fmt.Errorf("发布消息到 %s 失败: %w", subject, err)
	}
	return nil
}

// IsConnected 检查连接状态
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close 关闭连接
func (c *NATSClient) Close() error {
	log.Println("正在关闭NATS连接...")
	c.cancel()
	if c.conn != nil {
		c.conn.Close()
	}
	log.Println("NATS连接已关闭")
	return nil
}
