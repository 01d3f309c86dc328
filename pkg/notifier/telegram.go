// pkg/notifier/telegram.go
package notifier

import (
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"CoinRadar/pkg/model"
)

// LinkStore 渠道绑定查询
type LinkStore interface {
	GetChannelLink(userID, channel string) (*model.ChannelLink, error)
}

// TelegramTransport Telegram机器人通知渠道
// 用户需要先绑定 chat_id（通过API带外完成），未绑定或禁用时投递直接返回false
type TelegramTransport struct {
	bot   *tgbotapi.BotAPI
	links LinkStore
}

// NewTelegramTransport 创建Telegram渠道
// token为空时渠道处于未配置状态，所有用户的 Status 均为false
func NewTelegramTransport(token string, links LinkStore) *TelegramTransport {
	t := &TelegramTransport{links: links}
	if token == "" {
		return t
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Printf("初始化Telegram机器人失败: %v", err)
		return t
	}
	t.bot = bot
	log.Printf("Telegram机器人已连接: @%s", bot.Self.UserName)
	return t
}

func (t *TelegramTransport) Name() string {
	return "telegram"
}

// Resolve 查询用户绑定的 chat_id
func (t *TelegramTransport) Resolve(userID string) (string, bool) {
	if t.bot == nil || t.links == nil {
		return "", false
	}

	link, err := t.links.GetChannelLink(userID, t.Name())
	if err != nil || !link.Enabled || link.Target == "" {
		return "", false
	}
	return link.Target, true
}

// Send 发送消息到指定 chat_id
func (t *TelegramTransport) Send(destination, message string) bool {
	if t.bot == nil {
		return false
	}

	chatID, err := strconv.ParseInt(destination, 10, 64)
	if err != nil {
		log.Printf("无效的Telegram chat_id: %s", destination)
		return false
	}

	msg := tgbotapi.NewMessage(chatID, message)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("发送Telegram消息失败: %v", err)
		return false
	}
	return true
}
