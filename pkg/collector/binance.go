// pkg/collector/binance.go
package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// BinanceAdapter Binance K线数据适配器
// 将内部符号（如 "BTC"）映射为交易对（如 "BTCUSDT"）后请求K线接口
type BinanceAdapter struct {
	baseURL    string
	quoteAsset string
	client     *http.Client
}

// NewBinanceAdapter 创建Binance适配器
func NewBinanceAdapter(baseURL string, timeout time.Duration) *BinanceAdapter {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BinanceAdapter{
		baseURL:    baseURL,
		quoteAsset: "USDT",
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// AverageVolume 最近 window 根已收盘K线的平均成交量
func (b *BinanceAdapter) AverageVolume(symbol, timeframe string, window int) (float64, error) {
	if window <= 0 {
		return 0, fmt.Errorf("基线窗口必须为正数: %d", window)
	}

	// 多取一根，丢弃最后一根正在形成的K线
	volumes, err := b.fetchVolumes(symbol, timeframe, window+1)
	if err != nil {
		return 0, err
	}
	if len(volumes) < 2 {
		return 0, nil
	}

	closed := volumes[:len(volumes)-1]
	if len(closed) > window {
		closed = closed[len(closed)-window:]
	}

	var sum float64
	for _, v := range closed {
		sum += v
	}
	return sum / float64(len(closed)), nil
}

// LatestVolume 最近一根已收盘K线的成交量
func (b *BinanceAdapter) LatestVolume(symbol, timeframe string) (float64, error) {
	volumes, err := b.fetchVolumes(symbol, timeframe, 2)
	if err != nil {
		return 0, err
	}
	if len(volumes) < 2 {
		return 0, nil
	}
	return volumes[len(volumes)-2], nil
}

// fetchVolumes 拉取K线并提取成交量序列（时间升序，最后一根为未收盘K线）
func (b *BinanceAdapter) fetchVolumes(symbol, timeframe string, limit int) ([]float64, error) {
	pair := strings.ToUpper(symbol) + b.quoteAsset

	params := url.Values{}
	params.Set("symbol", pair)
	params.Set("interval", timeframe)
	params.Set("limit", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s/api/v3/klines?%s", b.baseURL, params.Encode())
	resp, err := b.client.Get(reqURL)
	if err != nil {
		return nil, &TransportError{Op: "klines " + pair, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "klines " + pair, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		// Binance 对未知交易对返回400和-1121错误码
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Code == -1121 {
			return nil, fmt.Errorf("%s: %w", pair, ErrSymbolNotFound)
		}
		return nil, &TransportError{
			Op:  "klines " + pair,
			Err: fmt.Errorf("API返回非200状态码: %d", resp.StatusCode),
		}
	}

	var klines [][]interface{}
	if err := json.Unmarshal(body, &klines); err != nil {
		return nil, &TransportError{Op: "klines " + pair, Err: fmt.Errorf("解析响应失败: %w", err)}
	}

	volumes := make([]float64, 0, len(klines))
	for _, k := range klines {
		// K线数组第6个元素为成交量
		if len(k) < 6 {
			continue
		}
		raw, ok := k[5].(string)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		volumes = append(volumes, v)
	}

	return volumes, nil
}
