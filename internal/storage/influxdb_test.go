package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skalibog/alphascan/internal/config"
	"github.com/skalibog/alphascan/pkg/logger"
	"github.com/skalibog/alphascan/pkg/models"
	"go.uber.org/zap"
)

func testSnapshot() *models.IndicatorSnapshot {
	return &models.IndicatorSnapshot{
		Symbol:     "BTCUSDT",
		Timeframe:  "15m",
		Time:       1700000000000,
		Price:      35000,
		RSI:        28.5,
		MACD:       -12,
		MACDSignal: -14,
		BBUpper:    35500,
		BBMiddle:   35200,
		BBLower:    34900,
	}
}

func TestNewWithoutURLIsNop(t *testing.T) {
	s, err := New(config.StorageConfig{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, ok := s.(NopStorage); !ok {
		t.Fatalf("expected NopStorage, got %T", s)
	}
	if err := s.SaveSnapshot(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("nop storage must accept snapshots: %v", err)
	}
	s.Close()
}

func TestSnapshotPoint(t *testing.T) {
	p := snapshotPoint(testSnapshot())
	if p.Name() != "indicators" {
		t.Fatalf("unexpected measurement: %s", p.Name())
	}
	if !p.Time().Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("unexpected point time: %v", p.Time())
	}
	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["symbol"] != "BTCUSDT" || tags["timeframe"] != "15m" {
		t.Fatalf("unexpected tags: %v", tags)
	}
	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["rsi"] != 28.5 || fields["bb_lower"] != 34900.0 {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestInfluxDBStorageWritesSnapshot(t *testing.T) {
	logger.SetLogger(zap.NewNop())

	written := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"name":"influxdb","message":"ready for queries and writes","status":"pass","checks":[],"version":"2.7.0"}`)
		case "/api/v2/write":
			body, _ := io.ReadAll(r.Body)
			select {
			case written <- string(body):
			default:
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s, err := NewInfluxDBStorage(config.StorageConfig{URL: srv.URL, Token: "token", Organization: "org", Bucket: "alphascan"})
	if err != nil {
		t.Fatalf("NewInfluxDBStorage returned error: %v", err)
	}
	defer s.Close()

	if err := s.SaveSnapshot(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("SaveSnapshot returned error: %v", err)
	}

	select {
	case body := <-written:
		if !strings.HasPrefix(body, "indicators,symbol=BTCUSDT,timeframe=15m ") {
			t.Fatalf("unexpected line protocol: %s", body)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("snapshot was not written")
	}
}

func TestNewInfluxDBStorageFailsHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"name":"influxdb","message":"not ready","status":"fail","checks":[]}`)
	}))
	defer srv.Close()

	if _, err := NewInfluxDBStorage(config.StorageConfig{URL: srv.URL, Token: "token"}); err == nil {
		t.Fatalf("expected health check error")
	}
}
