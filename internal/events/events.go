package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/untibullet/review-reputation/internal/models"
	"go.uber.org/zap"
)

// Handler обрабатывает событие репутации
type Handler func(ctx context.Context, event models.ReputationEvent) error

// Dispatcher доставляет события репутации обработчику
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.ReputationEvent) error
}

// NewEvent создает событие с новым идентификатором
func NewEvent(userID string, action models.ReputationAction) models.ReputationEvent {
	return models.ReputationEvent{
		EventID:    uuid.NewString(),
		UserID:     userID,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
}

// Direct применяет события синхронно в текущем процессе, используется без очереди
type Direct struct {
	handler Handler
}

func NewDirect(handler Handler) *Direct {
	return &Direct{handler: handler}
}

func (d *Direct) Dispatch(ctx context.Context, event models.ReputationEvent) error {
	return d.handler(ctx, event)
}

// DispatchBestEffort отправляет события и только логирует ошибки:
// начисление репутации не должно ломать действие пользователя
func DispatchBestEffort(ctx context.Context, d Dispatcher, logger *zap.Logger, evs ...models.ReputationEvent) {
	for _, ev := range evs {
		if err := d.Dispatch(ctx, ev); err != nil {
			logger.Warn("failed to dispatch reputation event",
				zap.String("event_id", ev.EventID),
				zap.String("user_id", ev.UserID),
				zap.String("action", string(ev.Action)),
				zap.Error(err))
		}
	}
}
