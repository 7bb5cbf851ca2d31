package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skalibog/alphascan/pkg/models"
)

// BackendNotifier отправляет сигнал JSON-документом на <url>/signal
type BackendNotifier struct {
	url    string
	client *http.Client
}

// NewBackendNotifier создает канал доставки в сервис-приемник
func NewBackendNotifier(baseURL string) *BackendNotifier {
	return &BackendNotifier{
		url: strings.TrimRight(baseURL, "/") + "/signal",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (b *BackendNotifier) Name() string { return "backend" }

// Send выполняет один POST без повторов
func (b *BackendNotifier) Send(ctx context.Context, signal *models.Signal) error {
	body, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сигнала: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки сигнала: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("неожиданный статус %d от %s", resp.StatusCode, b.url)
	}
	return nil
}
