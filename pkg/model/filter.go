// pkg/model/filter.go
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// FilterSet 筛选器配置（值类型）
// 四个字段按固定顺序参与签名计算，任一字段变化即产生新签名
type FilterSet struct {
	MinMarketCap    float64 `json:"min_market_cap"`
	MaxMarketCap    float64 `json:"max_market_cap"`
	MinVolume24h    float64 `json:"min_volume_24h"`
	MinVolToMcapPct float64 `json:"min_vol_to_mcap_pct"`
}

// Signature 计算筛选器签名
// 固定顺序拼接四个字段后取SHA-256，保证跨进程稳定且抗碰撞
func (f FilterSet) Signature() string {
	raw := fmt.Sprintf("%v|%v|%v|%v",
		f.MinMarketCap, f.MaxMarketCap, f.MinVolume24h, f.MinVolToMcapPct)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Match 判断币种行情是否通过筛选
func (f FilterSet) Match(coin CoinMarket) bool {
	if coin.MarketCap < f.MinMarketCap {
		return false
	}
	if f.MaxMarketCap > 0 && coin.MarketCap > f.MaxMarketCap {
		return false
	}
	if coin.Volume24h < f.MinVolume24h {
		return false
	}
	if f.MinVolToMcapPct > 0 {
		if coin.MarketCap <= 0 {
			return false
		}
		if coin.Volume24h/coin.MarketCap*100 < f.MinVolToMcapPct {
			return false
		}
	}
	return true
}
