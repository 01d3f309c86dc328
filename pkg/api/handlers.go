package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"CoinRadar/pkg/engine"
	"CoinRadar/pkg/model"
	"CoinRadar/pkg/scheduler"
)

// ScreenerStore 筛选器存储
type ScreenerStore interface {
	SaveScreener(screener *model.ScreenerConfig) error
	ListScreenersByUser(userID string) ([]*model.ScreenerConfig, error)
	DeleteScreener(id string) error
}

// LinkStore 渠道绑定存储
type LinkStore interface {
	SaveChannelLink(link *model.ChannelLink) error
}

// ChannelStatusSource 渠道可用状态来源
type ChannelStatusSource interface {
	Status(userID, channel string) bool
	Channels() []string
}

// Handlers API处理程序
type Handlers struct {
	rules     engine.RuleStore
	events    engine.EventLog
	baselines engine.BaselineStore
	screeners ScreenerStore
	links     LinkStore
	channels  ChannelStatusSource
	sched     *scheduler.Scheduler
}

// NewHandlers 创建新的API处理程序
func NewHandlers(
	rules engine.RuleStore,
	events engine.EventLog,
	baselines engine.BaselineStore,
	screeners ScreenerStore,
	links LinkStore,
	channels ChannelStatusSource,
	sched *scheduler.Scheduler,
) *Handlers {
	return &Handlers{
		rules:     rules,
		events:    events,
		baselines: baselines,
		screeners: screeners,
		links:     links,
		channels:  channels,
		sched:     sched,
	}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck 就绪检查处理程序
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// respondError 按错误类型映射HTTP状态码
func respondError(c *gin.Context, err error) {
	switch {
	case model.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CreateRuleRequest 创建规则请求
type CreateRuleRequest struct {
	UserID          string    `json:"user_id" binding:"required"`
	Symbol          string    `json:"symbol" binding:"required"`
	Timeframes      []string  `json:"timeframes" binding:"required"`
	Thresholds      []float64 `json:"thresholds" binding:"required"`
	BaselineWindow  int       `json:"baseline_window"`
	CooldownSeconds int       `json:"cooldown_seconds"`
	Enabled         *bool     `json:"enabled"`
}

// CreateRule 创建放量规则处理程序
func (h *Handlers) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	rule := &model.AlertRule{
		UserID:          req.UserID,
		Symbol:          req.Symbol,
		Timeframes:      req.Timeframes,
		Thresholds:      req.Thresholds,
		BaselineWindow:  req.BaselineWindow,
		CooldownSeconds: req.CooldownSeconds,
		Enabled:         true, // 未指定时默认启用
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := h.rules.CreateRule(rule); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rule})
}

// ListRules 获取用户规则列表处理程序
func (h *Handlers) ListRules(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id参数不能为空"})
		return
	}

	rules, err := h.rules.ListRulesByUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rules})
}

// UpdateRule 更新规则处理程序
func (h *Handlers) UpdateRule(c *gin.Context) {
	var update model.RuleUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	rule, err := h.rules.UpdateRule(c.Param("id"), update)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rule})
}

// DeleteRule 删除规则处理程序
func (h *Handlers) DeleteRule(c *gin.Context) {
	if err := h.rules.DeleteRule(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// SaveScreenerRequest 保存筛选器请求
type SaveScreenerRequest struct {
	ID      string          `json:"id"`
	UserID  string          `json:"user_id" binding:"required"`
	Name    string          `json:"name" binding:"required"`
	Filters model.FilterSet `json:"filters"`
	Enabled *bool           `json:"enabled"`
}

// SaveScreener 保存筛选器处理程序
func (h *Handlers) SaveScreener(c *gin.Context) {
	var req SaveScreenerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	screener := &model.ScreenerConfig{
		ID:      req.ID,
		UserID:  req.UserID,
		Name:    req.Name,
		Filters: req.Filters,
		Enabled: true,
	}
	if req.Enabled != nil {
		screener.Enabled = *req.Enabled
	}

	if err := h.screeners.SaveScreener(screener); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":             screener,
		"filter_signature": screener.Filters.Signature(),
	})
}

// ListScreeners 获取筛选器列表处理程序
func (h *Handlers) ListScreeners(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id参数不能为空"})
		return
	}

	screeners, err := h.screeners.ListScreenersByUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": screeners})
}

// DeleteScreener 删除筛选器处理程序
func (h *Handlers) DeleteScreener(c *gin.Context) {
	if err := h.screeners.DeleteScreener(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// SetBaselineRequest 基线开关请求
type SetBaselineRequest struct {
	UserID          string `json:"user_id" binding:"required"`
	Enabled         *bool  `json:"enabled" binding:"required"`
	CooldownSeconds int    `json:"cooldown_seconds"`
}

// SetBaselineEnabled 基线开关处理程序
func (h *Handlers) SetBaselineEnabled(c *gin.Context) {
	var req SetBaselineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	err := h.baselines.SetBaselineEnabled(req.UserID, c.Param("signature"), *req.Enabled, req.CooldownSeconds)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetAlertHistory 获取提醒历史处理程序
func (h *Handlers) GetAlertHistory(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id参数不能为空"})
		return
	}

	limit := 50 // 默认限制
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	events, err := h.events.ListEventsByUser(userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

// UpdateAlertStatusRequest 事件状态更新请求
type UpdateAlertStatusRequest struct {
	Status model.AlertStatus `json:"status" binding:"required"`
}

// UpdateAlertStatus 事件状态更新处理程序（已读/忽略/稍后提醒）
func (h *Handlers) UpdateAlertStatus(c *gin.Context) {
	var req UpdateAlertStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	switch req.Status {
	case model.StatusDismissed, model.StatusSnoozed, model.StatusDelivered:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的状态: " + string(req.Status)})
		return
	}

	if err := h.events.UpdateEventStatus(c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ChannelStatus 渠道可用状态处理程序
func (h *Handlers) ChannelStatus(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id参数不能为空"})
		return
	}

	status := make(map[string]bool)
	for _, channel := range h.channels.Channels() {
		status[channel] = h.channels.Status(userID, channel)
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

// LinkTelegramRequest Telegram绑定请求
type LinkTelegramRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	ChatID  string `json:"chat_id" binding:"required"`
	Enabled *bool  `json:"enabled"`
}

// LinkTelegram Telegram绑定处理程序
func (h *Handlers) LinkTelegram(c *gin.Context) {
	var req LinkTelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	link := &model.ChannelLink{
		UserID:  req.UserID,
		Channel: engine.ChannelTelegram,
		Target:  req.ChatID,
		Enabled: true,
	}
	if req.Enabled != nil {
		link.Enabled = *req.Enabled
	}

	if err := h.links.SaveChannelLink(link); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// TriggerEntrantScan 手动触发新进入扫描
func (h *Handlers) TriggerEntrantScan(c *gin.Context) {
	if h.sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "调度器未启用"})
		return
	}

	go h.sched.RunEntrantScan()
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// TriggerSpikeScan 手动触发放量扫描
func (h *Handlers) TriggerSpikeScan(c *gin.Context) {
	if h.sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "调度器未启用"})
		return
	}

	go h.sched.RunSpikeScan()
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
