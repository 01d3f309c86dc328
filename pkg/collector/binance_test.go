package collector

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinRadar/pkg/model"
)

// klinesResponse 构造K线响应，成交量为字符串（Binance格式），其余字段填占位值
func klinesResponse(volumes ...string) [][]interface{} {
	klines := make([][]interface{}, 0, len(volumes))
	for _, v := range volumes {
		klines = append(klines, []interface{}{
			1700000000000, "100.0", "110.0", "90.0", "105.0", v,
		})
	}
	return klines
}

func newKlinesServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestAverageVolumeDropsFormingCandle(t *testing.T) {
	server := newKlinesServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		assert.Equal(t, "4", r.URL.Query().Get("limit"))

		// 最后一根是正在形成的K线，不参与基线
		json.NewEncoder(w).Encode(klinesResponse("100", "200", "300", "9999"))
	})

	adapter := NewBinanceAdapter(server.URL, time.Second)
	avg, err := adapter.AverageVolume("btc", "1h", 3)
	require.NoError(t, err)
	assert.Equal(t, 200.0, avg)
}

func TestLatestVolumeTakesLastClosed(t *testing.T) {
	server := newKlinesServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(klinesResponse("500", "9999"))
	})

	adapter := NewBinanceAdapter(server.URL, time.Second)
	latest, err := adapter.LatestVolume("BTC", "1h")
	require.NoError(t, err)
	assert.Equal(t, 500.0, latest)
}

func TestFetchVolumesUnknownPair(t *testing.T) {
	server := newKlinesServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": -1121, "msg": "Invalid symbol.",
		})
	})

	adapter := NewBinanceAdapter(server.URL, time.Second)
	_, err := adapter.LatestVolume("NOPE", "1h")
	assert.True(t, IsSymbolNotFound(err))
}

func TestFetchVolumesServerError(t *testing.T) {
	server := newKlinesServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	adapter := NewBinanceAdapter(server.URL, time.Second)
	_, err := adapter.LatestVolume("BTC", "1h")
	require.Error(t, err)
	assert.False(t, IsSymbolNotFound(err))

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestAverageVolumeInvalidWindow(t *testing.T) {
	adapter := NewBinanceAdapter("http://localhost:1", time.Second)
	_, err := adapter.AverageVolume("BTC", "1h", 0)
	assert.Error(t, err)
}

func TestCoinGeckoFetchMarkets(t *testing.T) {
	server := newKlinesServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "current_price": 50000.0, "market_cap": 1e12, "total_volume": 3e10},
			{"id": "cardano", "symbol": "ada", "name": "Cardano", "current_price": 0.5, "market_cap": 2e10, "total_volume": 5e8},
		})
	})

	adapter := NewCoinGeckoAdapter(server.URL, "", time.Second)
	coins, err := adapter.FetchMarkets()
	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, "BTC", coins[0].Symbol)
	assert.Equal(t, 2e10, coins[1].MarketCap)
}

func TestApplyFilter(t *testing.T) {
	coins := []model.CoinMarket{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", MarketCap: 1e12, Volume24h: 3e10},
		{ID: "smallcap", Symbol: "SML", Name: "SmallCap", MarketCap: 1e6, Volume24h: 1e5},
		{ID: "cardano", Symbol: "ADA", Name: "Cardano", MarketCap: 2e10, Volume24h: 5e8},
	}

	ids, lookup := ApplyFilter(coins, model.FilterSet{MinMarketCap: 1e9, MinVolume24h: 1e7})
	assert.Equal(t, []string{"bitcoin", "cardano"}, ids)
	assert.Equal(t, model.CoinInfo{Symbol: "ADA", Name: "Cardano"}, lookup["cardano"])
	_, exists := lookup["smallcap"]
	assert.False(t, exists)
}
