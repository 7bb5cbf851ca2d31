// Package scalping ищет свечную модель на быстром таймфрейме по направлению
// тренда, подтвержденного двумя старшими таймфреймами.
package scalping

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/skalibog/alphascan/internal/analysis/patterns"
	"github.com/skalibog/alphascan/internal/analysis/trend"
	"github.com/skalibog/alphascan/internal/config"
	"github.com/skalibog/alphascan/pkg/logger"
	"github.com/skalibog/alphascan/pkg/models"
	"go.uber.org/zap"
)

const StrategyName = "scalping"

// CandleFetcher источник свечей старших таймфреймов
type CandleFetcher interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) (*models.CandleSeries, error)
}

// Analyzer скальпинговая стратегия
type Analyzer struct {
	config  config.ScalpingConfig
	symbol  string
	fetcher CandleFetcher
	aligner *trend.Aligner
	now     func() time.Time
}

// NewAnalyzer создает скальпинговый анализатор
func NewAnalyzer(cfg config.ScalpingConfig, symbol string, fetcher CandleFetcher) *Analyzer {
	return &Analyzer{
		config:  cfg,
		symbol:  symbol,
		fetcher: fetcher,
		aligner: trend.NewAligner(cfg.TrendPeriod),
		now:     time.Now,
	}
}

// Analyze возвращает сигнал пробоя свечи-триггера или nil
func (a *Analyzer) Analyze(ctx context.Context, series *models.CandleSeries, timeframe string) *models.Signal {
	if series.LastClosedIndex() < 0 {
		return nil
	}

	direction, ok := a.trend(ctx)
	if !ok {
		return nil
	}

	bias := patterns.BullishBias
	if direction == models.TrendDown {
		bias = patterns.BearishBias
	}
	match, found := patterns.First(patterns.Detect(series), bias)
	if !found {
		logger.Debug("Нет свечной модели по тренду",
			zap.String("timeframe", timeframe),
			zap.Stringer("trend", direction))
		return nil
	}

	cur := series.LastClosedIndex()
	buf := a.config.TickBuffer

	var (
		typ   models.SignalType
		entry float64
		stop  float64
	)
	if direction == models.TrendUp {
		typ = models.SignalBuy
		entry = series.High[cur] + buf
		stop = series.Low[cur] - buf
	} else {
		typ = models.SignalSell
		entry = series.Low[cur] - buf
		stop = series.High[cur] + buf
	}

	risk := math.Abs(entry - stop)
	takeProfit := entry + a.config.RewardRatio*risk
	if typ == models.SignalSell {
		takeProfit = entry - a.config.RewardRatio*risk
	}

	signal := models.NewSignal(a.symbol, timeframe, StrategyName, typ, series, a.config.ContextCandles, a.now())
	signal.SetupZones = models.SetupZones{
		EntryZone:  models.EntryZone{High: entry, Low: entry},
		StopLoss:   stop,
		TakeProfit: takeProfit,
	}
	signal.Reason = fmt.Sprintf("[%s] %s + %s on %s/%s (EMA%d)",
		timeframe, match.Name, direction, a.config.MidTimeframe, a.config.HighTimeframe, a.aligner.Period)

	return signal
}

// trend загружает старшие таймфреймы и согласует тренд
func (a *Analyzer) trend(ctx context.Context) (models.Trend, bool) {
	mid, err := a.fetcher.GetCandles(ctx, a.symbol, a.config.MidTimeframe, a.config.Limit)
	if err != nil {
		logger.Warn("Не удалось получить свечи среднего таймфрейма",
			zap.String("timeframe", a.config.MidTimeframe), zap.Error(err))
		return models.TrendNone, false
	}
	high, err := a.fetcher.GetCandles(ctx, a.symbol, a.config.HighTimeframe, a.config.Limit)
	if err != nil {
		logger.Warn("Не удалось получить свечи старшего таймфрейма",
			zap.String("timeframe", a.config.HighTimeframe), zap.Error(err))
		return models.TrendNone, false
	}

	direction := a.aligner.Align(mid, high)
	if direction == models.TrendNone {
		logger.Debug("Тренд не согласован",
			zap.Int("mid_candles", mid.Len()),
			zap.Int("high_candles", high.Len()))
		return models.TrendNone, false
	}
	return direction, true
}
