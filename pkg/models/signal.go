package models

import (
	"time"

	"github.com/google/uuid"
)

// SignalType направление сигнала
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// EntryZone зона входа
type EntryZone struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// SetupZones уровни сделки
type SetupZones struct {
	EntryZone  EntryZone `json:"entry_zone"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
}

// ContextCandle свеча, передаваемая вместе с сигналом (время в секундах)
type ContextCandle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Signal торговый сигнал
type Signal struct {
	ID             string          `json:"id"`
	Symbol         string          `json:"symbol"`
	Timeframe      string          `json:"timeframe"`
	Type           SignalType      `json:"type"`
	Strategy       string          `json:"strategy"`
	Timestamp      int64           `json:"timestamp"`
	Price          float64         `json:"price"`
	SetupZones     SetupZones      `json:"setup_zones"`
	Reason         string          `json:"reason"`
	ContextCandles []ContextCandle `json:"context_candles"`
}

// NewSignal заполняет общие поля сигнала: идентификатор, время, текущую цену и контекст
func NewSignal(symbol, timeframe, strategy string, typ SignalType, series *CandleSeries, contextSize int, now time.Time) *Signal {
	tail := series.Tail(contextSize)
	ctxCandles := make([]ContextCandle, len(tail))
	for i, c := range tail {
		ctxCandles[i] = ContextCandle{
			Time:  c.Time / 1000,
			Open:  c.Open,
			High:  c.High,
			Low:   c.Low,
			Close: c.Close,
		}
	}

	return &Signal{
		ID:             uuid.New().String(),
		Symbol:         symbol,
		Timeframe:      timeframe,
		Type:           typ,
		Strategy:       strategy,
		Timestamp:      now.Unix(),
		Price:          series.LastClose(),
		ContextCandles: ctxCandles,
	}
}
