// Package scanner реализует цикл опроса таймфреймов: получение свечей,
// оценку стратегией, подавление повторов и доставку сигналов.
package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/skalibog/alphascan/internal/config"
	"github.com/skalibog/alphascan/internal/metrics"
	"github.com/skalibog/alphascan/pkg/logger"
	"github.com/skalibog/alphascan/pkg/models"
	"go.uber.org/zap"
)

// Fetcher источник свечей
type Fetcher interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) (*models.CandleSeries, error)
}

// Evaluator выбирает стратегию и оценивает серию
type Evaluator interface {
	Evaluate(ctx context.Context, timeframe string, series *models.CandleSeries) *models.Signal
}

// Sender доставляет сигнал
type Sender interface {
	Send(ctx context.Context, signal *models.Signal) error
}

// Scanner последовательно опрашивает таймфреймы в заданном порядке
type Scanner struct {
	config    config.ScannerConfig
	symbol    string
	limit     int
	fetcher   Fetcher
	evaluator Evaluator
	sender    Sender
	debouncer Debouncer

	// время последнего выпущенного сигнала по таймфрейму, доступно только горутине цикла
	lastEmitted map[string]int64

	sleep func(ctx context.Context, d time.Duration) error
}

// New создает сканер
func New(cfg config.ScannerConfig, symbol string, limit int, fetcher Fetcher, evaluator Evaluator, sender Sender) *Scanner {
	return &Scanner{
		config:      cfg,
		symbol:      symbol,
		limit:       limit,
		fetcher:     fetcher,
		evaluator:   evaluator,
		sender:      sender,
		debouncer:   Debouncer{Cooldown: cfg.Cooldown()},
		lastEmitted: make(map[string]int64),
		sleep:       sleepContext,
	}
}

// Run выполняет проходы до отмены контекста
func (s *Scanner) Run(ctx context.Context) error {
	logger.Info("Сканер запущен",
		zap.String("symbol", s.symbol),
		zap.Strings("timeframes", s.config.Timeframes))

	for {
		if err := s.ScanOnce(ctx); err != nil {
			return ignoreCanceled(err)
		}
		if err := s.sleep(ctx, s.config.PassInterval()); err != nil {
			return ignoreCanceled(err)
		}
	}
}

// ScanOnce выполняет один проход по всем таймфреймам
func (s *Scanner) ScanOnce(ctx context.Context) error {
	for i, tf := range s.config.Timeframes {
		if i > 0 {
			if err := s.sleep(ctx, s.config.TimeframePause()); err != nil {
				return err
			}
		}
		s.scanTimeframe(ctx, tf)
	}
	metrics.ScanPassesTotal.Inc()
	return ctx.Err()
}

func (s *Scanner) scanTimeframe(ctx context.Context, timeframe string) {
	series, err := s.fetcher.GetCandles(ctx, s.symbol, timeframe, s.limit)
	if err != nil {
		metrics.CandleFetchesTotal.WithLabelValues(timeframe, metrics.ResultError).Inc()
		logger.Warn("Нет данных для таймфрейма, пропускаем",
			zap.String("timeframe", timeframe),
			zap.Error(err))
		return
	}
	metrics.CandleFetchesTotal.WithLabelValues(timeframe, metrics.ResultOK).Inc()

	signal := s.evaluator.Evaluate(ctx, timeframe, series)
	if signal == nil {
		return
	}

	last := s.lastEmitted[timeframe]
	if !s.debouncer.Allow(signal.Timestamp, last) {
		metrics.SignalsTotal.WithLabelValues(timeframe, string(signal.Type), metrics.OutcomeDebounced).Inc()
		logger.Debug("Сигнал подавлен",
			zap.String("timeframe", timeframe),
			zap.Int64("last_emitted", last),
			zap.Int64("timestamp", signal.Timestamp))
		return
	}
	// обновляется до доставки: неудачная доставка не повторяется на следующем проходе
	s.lastEmitted[timeframe] = signal.Timestamp

	logger.Info("Новый сигнал",
		zap.String("timeframe", timeframe),
		zap.String("type", string(signal.Type)),
		zap.Float64("price", signal.Price),
		zap.String("reason", signal.Reason))

	if err := s.sender.Send(ctx, signal); err != nil {
		metrics.SignalsTotal.WithLabelValues(timeframe, string(signal.Type), metrics.OutcomeFailed).Inc()
		logger.Warn("Сигнал доставлен не во все каналы", zap.String("signal_id", signal.ID), zap.Error(err))
		return
	}
	metrics.SignalsTotal.WithLabelValues(timeframe, string(signal.Type), metrics.OutcomeDelivered).Inc()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Info("Сканер остановлен")
		return nil
	}
	return err
}
