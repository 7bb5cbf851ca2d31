package technical

import (
	"context"
	"fmt"
	"time"

	"github.com/skalibog/alphascan/internal/analysis/indicators"
	"github.com/skalibog/alphascan/internal/config"
	"github.com/skalibog/alphascan/internal/storage"
	"github.com/skalibog/alphascan/pkg/logger"
	"github.com/skalibog/alphascan/pkg/models"
	"go.uber.org/zap"
)

const StrategyName = "confluence"

// Analyzer реализует стратегию конфлюенции полос Боллинджера, RSI и MACD
type Analyzer struct {
	config  config.TechnicalConfig
	symbol  string
	storage storage.Storage
	now     func() time.Time
}

// NewAnalyzer создает новый анализатор технических индикаторов.
// store может быть nil, тогда снимки индикаторов не сохраняются.
func NewAnalyzer(cfg config.TechnicalConfig, symbol string, store storage.Storage) *Analyzer {
	if store == nil {
		store = storage.NopStorage{}
	}
	return &Analyzer{
		config:  cfg,
		symbol:  symbol,
		storage: store,
		now:     time.Now,
	}
}

// indicatorSet рассчитанные индикаторы одной серии
type indicatorSet struct {
	bands indicators.Bands
	rsi   indicators.Series
	macd  indicators.MACDResult
}

func (a *Analyzer) compute(closes []float64) indicatorSet {
	return indicatorSet{
		bands: indicators.BollingerBands(closes, a.config.BBPeriod, a.config.BBDeviation),
		rsi:   indicators.RSI(closes, a.config.RSIPeriod),
		macd:  indicators.MACD(closes, a.config.MACDFast, a.config.MACDSlow, a.config.MACDSignal),
	}
}

// Analyze оценивает последнюю закрытую свечу серии и возвращает сигнал или nil
func (a *Analyzer) Analyze(ctx context.Context, series *models.CandleSeries, timeframe string) *models.Signal {
	if series.Len() < 3 {
		return nil
	}
	set := a.compute(series.Close)

	if snap := a.snapshot(series, set, timeframe); snap != nil {
		if err := a.storage.SaveSnapshot(ctx, snap); err != nil {
			logger.Warn("Не удалось сохранить снимок индикаторов", zap.String("timeframe", timeframe), zap.Error(err))
		}
	}

	return a.evaluate(series, set, timeframe)
}

// evaluate применяет правила входа к рассчитанным индикаторам
func (a *Analyzer) evaluate(series *models.CandleSeries, set indicatorSet, timeframe string) *models.Signal {
	cur := series.LastClosedIndex()
	prev := cur - 1
	if prev < 0 {
		return nil
	}

	upper, okU := set.bands.Upper.At(cur)
	lower, okL := set.bands.Lower.At(cur)
	rsiCur, okR1 := set.rsi.At(cur)
	rsiPrev, okR2 := set.rsi.At(prev)
	macdCur, okM1 := set.macd.MACD.At(cur)
	macdPrev, okM2 := set.macd.MACD.At(prev)
	sigCur, okS1 := set.macd.Signal.At(cur)
	sigPrev, okS2 := set.macd.Signal.At(prev)
	if !(okU && okL && okR1 && okR2 && okM1 && okM2 && okS1 && okS2) {
		return nil
	}

	price := series.LastClose()
	logger.Debug("Оценка таймфрейма",
		zap.String("timeframe", timeframe),
		zap.Float64("price", price),
		zap.Float64("rsi", rsiCur),
		zap.Float64("macd_diff", macdCur-sigCur))

	buffer := (upper - lower) * a.config.StopBufferRatio

	var (
		typ        models.SignalType
		stopLoss   float64
		takeProfit float64
		reason     string
	)

	switch {
	case series.Low[cur] <= lower &&
		(rsiCur < a.config.RSIOversold || rsiPrev < a.config.RSIOversold) &&
		rsiCur > rsiPrev &&
		indicators.CrossedAbove(macdPrev, sigPrev, macdCur, sigCur):
		typ = models.SignalBuy
		stopLoss = lower - buffer
		takeProfit = upper
		reason = fmt.Sprintf("[%s] Lower BB Touch + RSI Oversold (%.1f) + MACD Bullish Cross", timeframe, rsiCur)

	case series.High[cur] >= upper &&
		(rsiCur > a.config.RSIOverbought || rsiPrev > a.config.RSIOverbought) &&
		rsiCur < rsiPrev &&
		indicators.CrossedBelow(macdPrev, sigPrev, macdCur, sigCur):
		typ = models.SignalSell
		stopLoss = upper + buffer
		takeProfit = lower
		reason = fmt.Sprintf("[%s] Upper BB Touch + RSI Overbought (%.1f) + MACD Bearish Cross", timeframe, rsiCur)

	default:
		return nil
	}

	signal := models.NewSignal(a.symbol, timeframe, StrategyName, typ, series, a.config.ContextCandles, a.now())
	signal.SetupZones = models.SetupZones{
		EntryZone:  models.EntryZone{High: price, Low: price},
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}
	signal.Reason = reason

	return signal
}

// snapshot собирает значения индикаторов на свече принятия решения
func (a *Analyzer) snapshot(series *models.CandleSeries, set indicatorSet, timeframe string) *models.IndicatorSnapshot {
	cur := series.LastClosedIndex()
	rsi, ok1 := set.rsi.At(cur)
	macd, ok2 := set.macd.MACD.At(cur)
	signal, ok3 := set.macd.Signal.At(cur)
	upper, ok4 := set.bands.Upper.At(cur)
	middle, ok5 := set.bands.Middle.At(cur)
	lower, ok6 := set.bands.Lower.At(cur)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return nil
	}

	return &models.IndicatorSnapshot{
		Symbol:     a.symbol,
		Timeframe:  timeframe,
		Time:       series.Time[cur],
		Price:      series.LastClose(),
		RSI:        rsi,
		MACD:       macd,
		MACDSignal: signal,
		BBUpper:    upper,
		BBMiddle:   middle,
		BBLower:    lower,
	}
}
