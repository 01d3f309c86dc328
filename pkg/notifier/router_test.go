package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinRadar/pkg/model"
	"CoinRadar/pkg/repository"
)

// stubTransport 可控的渠道替身
type stubTransport struct {
	name     string
	resolved bool
	sendOK   bool
	sent     []string
}

func (s *stubTransport) Name() string {
	return s.name
}

func (s *stubTransport) Resolve(userID string) (string, bool) {
	if !s.resolved {
		return "", false
	}
	return "dest-" + userID, true
}

func (s *stubTransport) Send(destination, message string) bool {
	s.sent = append(s.sent, message)
	return s.sendOK
}

func spikeEvent() *model.AlertEvent {
	return &model.AlertEvent{
		ID:             "evt-1",
		UserID:         "user-1",
		Type:           model.AlertTypeSpike,
		Symbol:         "BTC",
		Timeframe:      "1h",
		Threshold:      3,
		Ratio:          3.5,
		CurrentVolume:  350,
		BaselineVolume: 100,
		TriggeredAt:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRouterDeliverSuccess(t *testing.T) {
	repo := repository.NewRepository()
	transport := &stubTransport{name: "push", resolved: true, sendOK: true}
	router := NewRouter(repo, transport)

	ok := router.Deliver("user-1", "push", spikeEvent())
	assert.True(t, ok)
	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0], "BTC")

	records, err := repo.ListNotificationsByAlert("evt-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "sent", records[0].Status)
	assert.NotNil(t, records[0].SentAt)
}

func TestRouterDeliverSendFailure(t *testing.T) {
	repo := repository.NewRepository()
	transport := &stubTransport{name: "push", resolved: true, sendOK: false}
	router := NewRouter(repo, transport)

	ok := router.Deliver("user-1", "push", spikeEvent())
	assert.False(t, ok)

	// 失败也留通知记录
	records, err := repo.ListNotificationsByAlert("evt-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "failed", records[0].Status)
}

func TestRouterUnknownChannel(t *testing.T) {
	router := NewRouter(repository.NewRepository(), NewInAppTransport())

	assert.False(t, router.Deliver("user-1", "carrier-pigeon", spikeEvent()))
	assert.False(t, router.Status("user-1", "carrier-pigeon"))
}

func TestRouterUnresolvedUserNotDelivered(t *testing.T) {
	transport := &stubTransport{name: "push", resolved: false}
	router := NewRouter(repository.NewRepository(), transport)

	assert.False(t, router.Status("user-1", "push"))
	assert.False(t, router.Deliver("user-1", "push", spikeEvent()))
	assert.Empty(t, transport.sent)
}

func TestRouterChannels(t *testing.T) {
	router := NewRouter(nil,
		NewInAppTransport(),
		&stubTransport{name: "push"})

	assert.Equal(t, []string{"inApp", "push"}, router.Channels())
}

func TestInAppAlwaysAvailable(t *testing.T) {
	router := NewRouter(repository.NewRepository(), NewInAppTransport())

	assert.True(t, router.Status("anyone", "inApp"))
	assert.True(t, router.Deliver("anyone", "inApp", spikeEvent()))
}

func TestTelegramUnconfiguredUnavailable(t *testing.T) {
	repo := repository.NewRepository()
	transport := NewTelegramTransport("", repo)

	_, ok := transport.Resolve("user-1")
	assert.False(t, ok)
	assert.False(t, transport.Send("12345", "hello"))
}

func TestFormatAlertMessage(t *testing.T) {
	spike := FormatAlertMessage(spikeEvent())
	assert.Contains(t, spike, "BTC")
	assert.Contains(t, spike, "1h")
	assert.Contains(t, spike, "3.50x")

	filters := model.FilterSet{MinMarketCap: 1e9, MinVolume24h: 1e7}
	entrant := FormatAlertMessage(&model.AlertEvent{
		Type:          model.AlertTypeEntrant,
		Symbol:        "ADA",
		FilterContext: &filters,
		TriggeredAt:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	assert.Contains(t, entrant, "ADA")
	assert.Contains(t, entrant, "新币种进入")
}
