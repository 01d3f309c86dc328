// pkg/collector/coingecko.go
package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CoinRadar/pkg/model"
)

// CoinGeckoAdapter CoinGecko行情快照适配器
type CoinGeckoAdapter struct {
	baseURL string
	apiKey  string
	perPage int
	client  *http.Client
}

// coinGeckoMarket CoinGecko /coins/markets 响应条目
type coinGeckoMarket struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	MarketCap    float64 `json:"market_cap"`
	TotalVolume  float64 `json:"total_volume"`
}

// NewCoinGeckoAdapter 创建CoinGecko适配器
func NewCoinGeckoAdapter(baseURL, apiKey string, timeout time.Duration) *CoinGeckoAdapter {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CoinGeckoAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		perPage: 250,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchMarkets 拉取按市值排序的币种行情快照
func (c *CoinGeckoAdapter) FetchMarkets() ([]model.CoinMarket, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", fmt.Sprintf("%d", c.perPage))
	params.Set("page", "1")

	reqURL := fmt.Sprintf("%s/coins/markets?%s", c.baseURL, params.Encode())
	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "coins/markets", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{
			Op:  "coins/markets",
			Err: fmt.Errorf("API返回非200状态码: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "coins/markets", Err: err}
	}

	var markets []coinGeckoMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, &TransportError{Op: "coins/markets", Err: fmt.Errorf("解析响应失败: %w", err)}
	}

	now := time.Now()
	result := make([]model.CoinMarket, 0, len(markets))
	for _, m := range markets {
		result = append(result, model.CoinMarket{
			ID:        m.ID,
			Symbol:    strings.ToUpper(m.Symbol),
			Name:      m.Name,
			Price:     m.CurrentPrice,
			MarketCap: m.MarketCap,
			Volume24h: m.TotalVolume,
			Timestamp: now,
		})
	}

	return result, nil
}
