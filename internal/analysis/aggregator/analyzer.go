package aggregator

import (
	"context"

	"github.com/skalibog/alphascan/internal/analysis/scalping"
	"github.com/skalibog/alphascan/internal/analysis/technical"
	"github.com/skalibog/alphascan/internal/config"
	"github.com/skalibog/alphascan/internal/storage"
	"github.com/skalibog/alphascan/pkg/logger"
	"github.com/skalibog/alphascan/pkg/models"
	"go.uber.org/zap"
)

// Evaluator стратегия, оценивающая серию одного таймфрейма
type Evaluator interface {
	Analyze(ctx context.Context, series *models.CandleSeries, timeframe string) *models.Signal
}

// Analyzer выбирает стратегию по классу таймфрейма
type Analyzer struct {
	scalpingTimeframe string
	technicalAnal     Evaluator
	scalpingAnal      Evaluator
}

// NewAnalyzer создает диспетчер стратегий
func NewAnalyzer(cfg config.AnalysisConfig, symbol string, fetcher scalping.CandleFetcher, store storage.Storage) *Analyzer {
	return &Analyzer{
		scalpingTimeframe: cfg.Scalping.Timeframe,
		technicalAnal:     technical.NewAnalyzer(cfg.Technical, symbol, store),
		scalpingAnal:      scalping.NewAnalyzer(cfg.Scalping, symbol, fetcher),
	}
}

// Evaluate направляет скальпинговый таймфрейм в скальпинговую стратегию, остальные в стратегию конфлюенции
func (a *Analyzer) Evaluate(ctx context.Context, timeframe string, series *models.CandleSeries) *models.Signal {
	strategy := a.technicalAnal
	name := technical.StrategyName
	if a.scalpingTimeframe != "" && timeframe == a.scalpingTimeframe {
		strategy = a.scalpingAnal
		name = scalping.StrategyName
	}

	signal := strategy.Analyze(ctx, series, timeframe)
	if signal != nil {
		logger.Info("AGGREGATOR: Сигнал сформирован",
			zap.String("strategy", name),
			zap.String("timeframe", timeframe),
			zap.String("type", string(signal.Type)),
			zap.Float64("price", signal.Price))
	}
	return signal
}
