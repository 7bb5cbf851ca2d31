package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/skalibog/alphascan/internal/config"
	"github.com/skalibog/alphascan/internal/metrics"
	"github.com/skalibog/alphascan/pkg/logger"
	"github.com/skalibog/alphascan/pkg/models"
	"go.uber.org/zap"
)

func testSignal() *models.Signal {
	return &models.Signal{
		ID:        "5d1f0c1e-0000-4000-8000-000000000001",
		Symbol:    "BTCUSDT",
		Timeframe: "15m",
		Type:      models.SignalBuy,
		Strategy:  "confluence",
		Timestamp: 1700000000,
		Price:     35000.456,
		SetupZones: models.SetupZones{
			EntryZone:  models.EntryZone{High: 35000.456, Low: 35000.456},
			StopLoss:   34800.1,
			TakeProfit: 35500,
		},
		Reason:         "[15m] Lower BB Touch + RSI Oversold (28.0) + MACD Bullish Cross",
		ContextCandles: []models.ContextCandle{{Time: 1700000000, Open: 1, High: 2, Low: 0.5, Close: 1.5}},
	}
}

func TestBackendNotifierPostsSignal(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/signal" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("invalid json: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	if err := NewBackendNotifier(srv.URL+"/").Send(context.Background(), testSignal()); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	zones, ok := got["setup_zones"].(map[string]interface{})
	if !ok {
		t.Fatalf("setup_zones missing: %v", got)
	}
	if zones["stop_loss"] != 34800.1 || zones["take_profit"] != 35500.0 {
		t.Fatalf("unexpected zones: %v", zones)
	}
	if entry, ok := zones["entry_zone"].(map[string]interface{}); !ok || entry["high"] != 35000.456 {
		t.Fatalf("unexpected entry zone: %v", zones["entry_zone"])
	}
	if got["type"] != "BUY" || got["timeframe"] != "15m" || got["symbol"] != "BTCUSDT" {
		t.Fatalf("unexpected payload: %v", got)
	}
	if candles, ok := got["context_candles"].([]interface{}); !ok || len(candles) != 1 {
		t.Fatalf("unexpected context candles: %v", got["context_candles"])
	}
}

func TestBackendNotifierRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewBackendNotifier(srv.URL).Send(context.Background(), testSignal()); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestComposeMessage(t *testing.T) {
	msg := string(composeMessage("bot@example.com", "me@example.com", testSignal()))

	for _, want := range []string{
		"Subject: AlphaScanner Signal: BUY BTCUSDT (15m)\r\n",
		"To: me@example.com\r\n",
		"Price: 35000.46\r\n",
		"- Stop Loss: 34800.10\r\n",
		"- Take Profit: 35500.00\r\n",
		"Reason: [15m] Lower BB Touch",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message does not contain %q:\n%s", want, msg)
		}
	}
	if Subject(testSignal()) != "BUY BTCUSDT (15m)" {
		t.Fatalf("unexpected subject: %s", Subject(testSignal()))
	}
}

func TestEmailNotifierDisabledIsNoop(t *testing.T) {
	n := NewEmailNotifier(config.EmailConfig{SMTPHost: "127.0.0.1", SMTPPort: 1, User: "bot@example.com"})
	if n.Enabled() {
		t.Fatalf("notifier without password and recipient must be disabled")
	}
	if err := n.Send(context.Background(), testSignal()); err != nil {
		t.Fatalf("disabled notifier must not fail: %v", err)
	}
}

// fakeSMTP принимает соединение и отвечает на EHLO без STARTTLS
func fakeSMTP(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		_, _ = io.WriteString(conn, "220 localhost ESMTP\r\n")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				_, _ = io.WriteString(conn, "250 localhost\r\n")
			case strings.HasPrefix(cmd, "QUIT"):
				_, _ = io.WriteString(conn, "221 bye\r\n")
				return
			default:
				_, _ = io.WriteString(conn, "502 not implemented\r\n")
			}
		}
	}()

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return host, p
}

func TestEmailNotifierRequiresStartTLS(t *testing.T) {
	host, port := fakeSMTP(t)
	n := NewEmailNotifier(config.EmailConfig{
		SMTPHost: host,
		SMTPPort: port,
		User:     "bot@example.com",
		Password: "secret",
		To:       "me@example.com",
	})

	err := n.Send(context.Background(), testSignal())
	if err == nil || !strings.Contains(err.Error(), "STARTTLS") {
		t.Fatalf("expected STARTTLS error, got %v", err)
	}
}

type stubNotifier struct {
	name string
	err  error
	sent int
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Send(context.Context, *models.Signal) error {
	s.sent++
	return s.err
}

func TestDispatcherSendsToEverySink(t *testing.T) {
	logger.SetLogger(zap.NewNop())
	failing := &stubNotifier{name: "failing-sink", err: errors.New("boom")}
	ok := &stubNotifier{name: "ok-sink"}

	before := testutil.ToFloat64(metrics.DeliveryErrorsTotal.WithLabelValues("failing-sink"))

	err := NewDispatcher(failing, ok).Send(context.Background(), testSignal())
	if err == nil || !strings.Contains(err.Error(), "failing-sink: boom") {
		t.Fatalf("expected combined error, got %v", err)
	}
	if failing.sent != 1 || ok.sent != 1 {
		t.Fatalf("every sink must be called once: failing=%d ok=%d", failing.sent, ok.sent)
	}
	if after := testutil.ToFloat64(metrics.DeliveryErrorsTotal.WithLabelValues("failing-sink")); after != before+1 {
		t.Fatalf("delivery error counter not incremented: %v -> %v", before, after)
	}
}
