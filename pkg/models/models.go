package models

import (
	"errors"
	"fmt"
	"math"
)

// Candle представляет свечу
type Candle struct {
	Time  int64 // время открытия, мс
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// CandleSeries хранит свечи одного запроса в виде выровненных массивов.
// i-й элемент каждого массива относится к одной и той же свече.
type CandleSeries struct {
	Time  []int64
	Open  []float64
	High  []float64
	Low   []float64
	Close []float64
}

var ErrEmptySeries = errors.New("пустая серия свечей")

// NewCandleSeries создает серию из свечей, упорядоченных от старых к новым
func NewCandleSeries(candles []Candle) (*CandleSeries, error) {
	if len(candles) == 0 {
		return nil, ErrEmptySeries
	}

	s := &CandleSeries{
		Time:  make([]int64, len(candles)),
		Open:  make([]float64, len(candles)),
		High:  make([]float64, len(candles)),
		Low:   make([]float64, len(candles)),
		Close: make([]float64, len(candles)),
	}

	for i, c := range candles {
		if i > 0 && c.Time <= candles[i-1].Time {
			return nil, fmt.Errorf("время свечи %d не возрастает: %d <= %d", i, c.Time, candles[i-1].Time)
		}
		for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("некорректная цена в свече %d", i)
			}
		}
		s.Time[i] = c.Time
		s.Open[i] = c.Open
		s.High[i] = c.High
		s.Low[i] = c.Low
		s.Close[i] = c.Close
	}

	return s, nil
}

// Len возвращает количество свечей
func (s *CandleSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Time)
}

// Candle возвращает i-ю свечу
func (s *CandleSeries) Candle(i int) Candle {
	return Candle{
		Time:  s.Time[i],
		Open:  s.Open[i],
		High:  s.High[i],
		Low:   s.Low[i],
		Close: s.Close[i],
	}
}

// LastClosedIndex возвращает индекс последней закрытой свечи.
// Последний элемент серии может быть еще формирующейся свечой.
func (s *CandleSeries) LastClosedIndex() int {
	return s.Len() - 2
}

// LastClose возвращает цену закрытия последней (возможно, формирующейся) свечи
func (s *CandleSeries) LastClose() float64 {
	return s.Close[s.Len()-1]
}

// Tail возвращает не более n последних свечей
func (s *CandleSeries) Tail(n int) []Candle {
	start := s.Len() - n
	if start < 0 {
		start = 0
	}
	out := make([]Candle, 0, s.Len()-start)
	for i := start; i < s.Len(); i++ {
		out = append(out, s.Candle(i))
	}
	return out
}

// Trend направление тренда на старших таймфреймах
type Trend int

const (
	TrendNone Trend = iota
	TrendUp
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "uptrend"
	case TrendDown:
		return "downtrend"
	default:
		return "none"
	}
}

// IndicatorSnapshot значения индикаторов на свече принятия решения
type IndicatorSnapshot struct {
	Symbol     string
	Timeframe  string
	Time       int64 // мс
	Price      float64
	RSI        float64
	MACD       float64
	MACDSignal float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
}
