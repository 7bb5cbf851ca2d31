package exchange

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/skalibog/alphascan/internal/config"
	"github.com/skalibog/alphascan/internal/metrics"
	"github.com/skalibog/alphascan/pkg/logger"
	"github.com/skalibog/alphascan/pkg/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrUnavailable все эндпоинты не вернули корректных данных
var ErrUnavailable = errors.New("данные недоступны")

type endpoint struct {
	url    string
	client *binance.Client
}

// BinanceClient клиент для получения свечей с перебором эквивалентных эндпоинтов
type BinanceClient struct {
	endpoints []endpoint
	timeout   time.Duration
	// индекс последнего успешного эндпоинта, с него начинается следующий запрос
	last atomic.Int64
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig) (*BinanceClient, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, errors.New("не задан ни один эндпоинт Binance")
	}

	c := &BinanceClient{timeout: cfg.Timeout()}
	for _, url := range cfg.Endpoints {
		// публичные данные не требуют ключей
		spot := binance.NewClient("", "")
		spot.BaseURL = url
		c.endpoints = append(c.endpoints, endpoint{url: url, client: spot})
	}

	return c, nil
}

// GetCandles получает свечи, перебирая эндпоинты по порядку.
// Возвращает ErrUnavailable, только если все эндпоинты завершились ошибкой.
func (c *BinanceClient) GetCandles(ctx context.Context, symbol, interval string, limit int) (*models.CandleSeries, error) {
	var errs error
	start := int(c.last.Load())

	for k := range c.endpoints {
		idx := (start + k) % len(c.endpoints)
		e := c.endpoints[idx]

		series, err := c.getKlines(ctx, e, symbol, interval, limit)
		if err == nil {
			c.last.Store(int64(idx))
			return series, nil
		}

		metrics.EndpointFailuresTotal.WithLabelValues(e.url).Inc()
		logger.Warn("Эндпоинт Binance недоступен",
			zap.String("endpoint", e.url),
			zap.String("interval", interval),
			zap.Error(err))
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", e.url, err))

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, symbol, interval, errs)
}

// getKlines выполняет один запрос с собственным таймаутом
func (c *BinanceClient) getKlines(ctx context.Context, e endpoint, symbol, interval string, limit int) (*models.CandleSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	klines, err := e.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения свечей: %w", err)
	}
	if len(klines) == 0 {
		return nil, errors.New("пустой ответ")
	}

	candles := make([]models.Candle, len(klines))
	for i, k := range klines {
		candle, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("некорректная свеча %d: %w", i, err)
		}
		candles[i] = candle
	}

	return models.NewCandleSeries(candles)
}

func parseKline(k *binance.Kline) (models.Candle, error) {
	var (
		c   = models.Candle{Time: k.OpenTime}
		err error
	)
	if c.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return c, err
	}
	if c.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return c, err
	}
	if c.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return c, err
	}
	if c.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return c, err
	}
	return c, nil
}
