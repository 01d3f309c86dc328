// pkg/collector/interface.go
package collector

import (
	"errors"
	"fmt"

	"CoinRadar/pkg/model"
)

// MarketData K线成交量数据接口
type MarketData interface {
	// AverageVolume 最近 window 根已收盘K线的平均成交量，不含正在形成的K线
	AverageVolume(symbol, timeframe string, window int) (float64, error)
	// LatestVolume 最近一根已收盘K线的成交量
	LatestVolume(symbol, timeframe string) (float64, error)
}

// MembershipSource 筛选集成员来源
type MembershipSource interface {
	// FetchMarkets 拉取币种行情快照
	FetchMarkets() ([]model.CoinMarket, error)
}

// ErrSymbolNotFound 交易对不存在（该符号修正前持续失败）
var ErrSymbolNotFound = errors.New("交易对不存在")

// IsSymbolNotFound 判断是否为交易对不存在错误
func IsSymbolNotFound(err error) bool {
	return errors.Is(err, ErrSymbolNotFound)
}

// TransportError 行情源传输错误（瞬时，单次调用内捕获）
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("行情源请求失败: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplyFilter 对行情快照应用筛选器
// 返回通过筛选的成员ID集合和展示信息映射
func ApplyFilter(coins []model.CoinMarket, filters model.FilterSet) ([]string, map[string]model.CoinInfo) {
	ids := make([]string, 0, len(coins))
	lookup := make(map[string]model.CoinInfo, len(coins))

	for _, coin := range coins {
		if !filters.Match(coin) {
			continue
		}
		ids = append(ids, coin.ID)
		lookup[coin.ID] = model.CoinInfo{Symbol: coin.Symbol, Name: coin.Name}
	}

	return ids, lookup
}
