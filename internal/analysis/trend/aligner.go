package trend

import (
	"github.com/skalibog/alphascan/internal/analysis/indicators"
	"github.com/skalibog/alphascan/pkg/models"
)

const DefaultPeriod = 200

// Aligner определяет тренд по положению цены относительно EMA на двух старших таймфреймах
type Aligner struct {
	Period int
}

// NewAligner создает выравниватель тренда
func NewAligner(period int) *Aligner {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Aligner{Period: period}
}

// Align возвращает TrendUp, если последняя цена выше EMA на обоих таймфреймах,
// TrendDown, если ниже на обоих, иначе TrendNone.
// Серия короче периода EMA дает TrendNone.
func (a *Aligner) Align(mid, high *models.CandleSeries) models.Trend {
	if mid.Len() < a.Period || high.Len() < a.Period {
		return models.TrendNone
	}

	midClose, midEMA, ok := a.last(mid)
	if !ok {
		return models.TrendNone
	}
	highClose, highEMA, ok := a.last(high)
	if !ok {
		return models.TrendNone
	}

	return Classify(midClose, midEMA, highClose, highEMA)
}

// Classify чистое правило согласования двух таймфреймов
func Classify(midClose, midEMA, highClose, highEMA float64) models.Trend {
	switch {
	case midClose > midEMA && highClose > highEMA:
		return models.TrendUp
	case midClose < midEMA && highClose < highEMA:
		return models.TrendDown
	default:
		return models.TrendNone
	}
}

func (a *Aligner) last(s *models.CandleSeries) (float64, float64, bool) {
	ema := indicators.EMA(s.Close, a.Period)
	i := s.Len() - 1
	v, ok := ema.At(i)
	return s.Close[i], v, ok
}
