// Package notify доставляет сигналы во внешние каналы: сервис-приемник и почту.
package notify

import (
	"context"
	"fmt"

	"github.com/skalibog/alphascan/internal/metrics"
	"github.com/skalibog/alphascan/pkg/logger"
	"github.com/skalibog/alphascan/pkg/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Notifier канал доставки сигнала
type Notifier interface {
	Name() string
	Send(ctx context.Context, signal *models.Signal) error
}

// Dispatcher рассылает сигнал во все каналы.
// Ошибка одного канала не мешает доставке в остальные.
type Dispatcher struct {
	notifiers []Notifier
}

// NewDispatcher создает рассыльщик
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers}
}

// Send доставляет сигнал и возвращает объединенную ошибку всех каналов
func (d *Dispatcher) Send(ctx context.Context, signal *models.Signal) error {
	var errs error
	for _, n := range d.notifiers {
		if err := n.Send(ctx, signal); err != nil {
			metrics.DeliveryErrorsTotal.WithLabelValues(n.Name()).Inc()
			logger.Error("Ошибка доставки сигнала",
				zap.String("sink", n.Name()),
				zap.String("signal_id", signal.ID),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		logger.Debug("Сигнал доставлен", zap.String("sink", n.Name()), zap.String("signal_id", signal.ID))
	}
	return errs
}
