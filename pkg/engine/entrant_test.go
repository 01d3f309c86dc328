package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinRadar/pkg/model"
	"CoinRadar/pkg/repository"
)

// fakeNotifier 只支持应用内渠道的通知路由替身
type fakeNotifier struct {
	delivered []*model.AlertEvent
	failAll   bool
}

func (f *fakeNotifier) Deliver(userID, channel string, event *model.AlertEvent) bool {
	if f.failAll || channel != ChannelInApp {
		return false
	}
	f.delivered = append(f.delivered, event)
	return true
}

func (f *fakeNotifier) Status(userID, channel string) bool {
	return !f.failAll && channel == ChannelInApp
}

func (f *fakeNotifier) Channels() []string {
	return []string{ChannelInApp}
}

var testLookup = map[string]model.CoinInfo{
	"bitcoin":  {Symbol: "btc", Name: "Bitcoin"},
	"ethereum": {Symbol: "eth", Name: "Ethereum"},
	"solana":   {Symbol: "sol", Name: "Solana"},
	"cardano":  {Symbol: "ada", Name: "Cardano"},
}

func TestEntrantSeedThenDetectNewMember(t *testing.T) {
	repo := repository.NewRepository()
	notifier := &fakeNotifier{}
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	evaluator := NewEntrantEvaluator(repo, NewCooldownTracker(), repo, notifier,
		WithEntrantClock(func() time.Time { return current }))

	filters := model.FilterSet{MinMarketCap: 1e9, MinVolume24h: 1e7}

	// 首次评估只建立基线
	fired, err := evaluator.Evaluate("user-1", []string{"bitcoin", "ethereum", "solana"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	// 成员集不变，不发提醒
	fired, err = evaluator.Evaluate("user-1", []string{"bitcoin", "ethereum", "solana"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	// 新成员进入，恰好发一条提醒
	current = current.Add(5 * time.Minute)
	fired, err = evaluator.Evaluate("user-1", []string{"bitcoin", "ethereum", "solana", "cardano"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	events, err := repo.ListEventsByUser("user-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.AlertTypeEntrant, events[0].Type)
	assert.Equal(t, "ADA", events[0].Symbol)
	assert.Equal(t, model.StatusDelivered, events[0].Status)
	assert.Equal(t, []string{ChannelInApp}, events[0].DeliveredChannels)
	require.NotNil(t, events[0].FilterContext)
	assert.Equal(t, filters, *events[0].FilterContext)
}

func TestEntrantSeedFirstRunDisabled(t *testing.T) {
	repo := repository.NewRepository()
	notifier := &fakeNotifier{}
	evaluator := NewEntrantEvaluator(repo, NewCooldownTracker(), repo, notifier,
		WithSeedFirstRun(false))

	filters := model.FilterSet{MinMarketCap: 1e9}

	// 按字面空集差值处理，当前成员全部视为新进入
	fired, err := evaluator.Evaluate("user-1", []string{"bitcoin", "ethereum"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 2, fired)
}

func TestEntrantFilterChangeCreatesNewBaseline(t *testing.T) {
	repo := repository.NewRepository()
	notifier := &fakeNotifier{}
	evaluator := NewEntrantEvaluator(repo, NewCooldownTracker(), repo, notifier)

	loose := model.FilterSet{MinMarketCap: 1e9}
	tight := model.FilterSet{MinMarketCap: 5e9}

	fired, err := evaluator.Evaluate("user-1", []string{"bitcoin", "ethereum"}, loose, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	// 收紧条件产生新签名，独立建立基线，不把旧基线的成员当作消失
	fired, err = evaluator.Evaluate("user-1", []string{"bitcoin"}, tight, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	// 回到旧条件，旧基线仍然有效
	fired, err = evaluator.Evaluate("user-1", []string{"bitcoin", "ethereum"}, loose, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

func TestEntrantDisabledBaselineStillAdvances(t *testing.T) {
	repo := repository.NewRepository()
	notifier := &fakeNotifier{}
	evaluator := NewEntrantEvaluator(repo, NewCooldownTracker(), repo, notifier)

	filters := model.FilterSet{MinMarketCap: 1e9}
	signature := filters.Signature()

	fired, err := evaluator.Evaluate("user-1", []string{"bitcoin"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	require.NoError(t, repo.SetBaselineEnabled("user-1", signature, false, 0))

	// 禁用期间新成员进入，不发提醒但快照前移
	fired, err = evaluator.Evaluate("user-1", []string{"bitcoin", "cardano"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	require.NoError(t, repo.SetBaselineEnabled("user-1", signature, true, 0))

	// 重新启用后 cardano 已在快照中，不会补发
	fired, err = evaluator.Evaluate("user-1", []string{"bitcoin", "cardano"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

func TestEntrantCooldownSuppressesReentry(t *testing.T) {
	repo := repository.NewRepository()
	notifier := &fakeNotifier{}
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	evaluator := NewEntrantEvaluator(repo, NewCooldownTracker(), repo, notifier,
		WithEntrantClock(func() time.Time { return current }))

	filters := model.FilterSet{MinMarketCap: 1e9}

	fired, err := evaluator.Evaluate("user-1", []string{"bitcoin"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	// cardano 进入，发提醒
	current = current.Add(time.Minute)
	fired, err = evaluator.Evaluate("user-1", []string{"bitcoin", "cardano"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	// cardano 离开又在冷却期内回来，被压制
	current = current.Add(time.Minute)
	_, err = evaluator.Evaluate("user-1", []string{"bitcoin"}, filters, testLookup)
	require.NoError(t, err)

	current = current.Add(time.Minute)
	fired, err = evaluator.Evaluate("user-1", []string{"bitcoin", "cardano"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	// 冷却期满后再进出一次，重新提醒
	current = current.Add(time.Duration(model.DefaultBaselineCooldownSec) * time.Second)
	_, err = evaluator.Evaluate("user-1", []string{"bitcoin"}, filters, testLookup)
	require.NoError(t, err)

	current = current.Add(time.Minute)
	fired, err = evaluator.Evaluate("user-1", []string{"bitcoin", "cardano"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}

func TestEntrantSkipsMemberWithoutInfo(t *testing.T) {
	repo := repository.NewRepository()
	notifier := &fakeNotifier{}
	evaluator := NewEntrantEvaluator(repo, NewCooldownTracker(), repo, notifier)

	filters := model.FilterSet{MinMarketCap: 1e9}

	_, err := evaluator.Evaluate("user-1", []string{"bitcoin"}, filters, testLookup)
	require.NoError(t, err)

	// 行情源没有该成员的展示信息，跳过且不计入发出数量
	fired, err := evaluator.Evaluate("user-1", []string{"bitcoin", "unknown-coin"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	events, err := repo.ListEventsByUser("user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEntrantDeliveryFailureKeepsTriggeredEvent(t *testing.T) {
	repo := repository.NewRepository()
	notifier := &fakeNotifier{failAll: true}
	evaluator := NewEntrantEvaluator(repo, NewCooldownTracker(), repo, notifier)

	filters := model.FilterSet{MinMarketCap: 1e9}

	_, err := evaluator.Evaluate("user-1", []string{"bitcoin"}, filters, testLookup)
	require.NoError(t, err)

	fired, err := evaluator.Evaluate("user-1", []string{"bitcoin", "cardano"}, filters, testLookup)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	// 投递全部失败时事件仍然落日志，状态保持 triggered
	events, err := repo.ListEventsByUser("user-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.StatusTriggered, events[0].Status)
	assert.Empty(t, events[0].DeliveredChannels)
}
