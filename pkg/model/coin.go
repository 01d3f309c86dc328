// pkg/model/coin.go
package model

import "time"

// CoinMarket 币种行情快照
type CoinMarket struct {
	ID        string    `json:"id"` // 行情源内部ID，例如 "bitcoin"
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	MarketCap float64   `json:"market_cap"`
	Volume24h float64   `json:"volume_24h"`
	Timestamp time.Time `json:"timestamp"`
}

// CoinInfo 币种展示信息（ID到符号/名称的映射值）
type CoinInfo struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
