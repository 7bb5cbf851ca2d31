// internal/storage/influxdb.go
package storage

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/skalibog/alphascan/internal/config"
	"github.com/skalibog/alphascan/pkg/logger"
	"github.com/skalibog/alphascan/pkg/models"
	"go.uber.org/zap"
)

const snapshotMeasurement = "indicators"

// Storage принимает телеметрию индикаторов. Сигналы не сохраняются.
type Storage interface {
	SaveSnapshot(ctx context.Context, snapshot *models.IndicatorSnapshot) error
	Close()
}

// InfluxDBStorage реализует интерфейс Storage с использованием InfluxDB
type InfluxDBStorage struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	org      string
	bucket   string
}

// New возвращает InfluxDB-хранилище или NopStorage, если URL не задан
func New(cfg config.StorageConfig) (Storage, error) {
	if cfg.URL == "" {
		return NopStorage{}, nil
	}
	return NewInfluxDBStorage(cfg)
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(cfg config.StorageConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	writeAPI := client.WriteAPI(cfg.Organization, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			logger.Warn("Ошибка записи в InfluxDB", zap.Error(err))
		}
	}()

	return &InfluxDBStorage{
		client:   client,
		writeAPI: writeAPI,
		org:      cfg.Organization,
		bucket:   cfg.Bucket,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.writeAPI.Flush()
	s.client.Close()
}

// SaveSnapshot сохраняет значения индикаторов на свече принятия решения
func (s *InfluxDBStorage) SaveSnapshot(ctx context.Context, snapshot *models.IndicatorSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeAPI.WritePoint(snapshotPoint(snapshot))
	s.writeAPI.Flush()

	return nil
}

// snapshotPoint создает точку для записи в InfluxDB
func snapshotPoint(snapshot *models.IndicatorSnapshot) *write.Point {
	return influxdb2.NewPoint(
		snapshotMeasurement,
		map[string]string{
			"symbol":    snapshot.Symbol,
			"timeframe": snapshot.Timeframe,
		},
		map[string]interface{}{
			"price":       snapshot.Price,
			"rsi":         snapshot.RSI,
			"macd":        snapshot.MACD,
			"macd_signal": snapshot.MACDSignal,
			"bb_upper":    snapshot.BBUpper,
			"bb_middle":   snapshot.BBMiddle,
			"bb_lower":    snapshot.BBLower,
		},
		time.UnixMilli(snapshot.Time),
	)
}

// NopStorage отбрасывает телеметрию, когда хранилище не настроено
type NopStorage struct{}

func (NopStorage) SaveSnapshot(context.Context, *models.IndicatorSnapshot) error { return nil }

func (NopStorage) Close() {}
