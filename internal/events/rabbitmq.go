package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/untibullet/review-reputation/internal/models"
	"go.uber.org/zap"
)

const (
	publishTimeout   = 5 * time.Second
	consumerPrefetch = 16
)

// RabbitMQ публикует и потребляет события репутации через одну durable очередь.
// Публикация и потребление идут по разным каналам одного соединения.
type RabbitMQ struct {
	conn      *amqp.Connection
	publishCh *amqp.Channel
	consumeCh *amqp.Channel
	queue     amqp.Queue
	logger    *zap.Logger
}

// NewRabbitMQ подключается к брокеру и объявляет очередь
func NewRabbitMQ(url, queueName string, logger *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	publishCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open publish channel: %w", err)
	}

	q, err := publishCh.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	consumeCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open consume channel: %w", err)
	}
	if err := consumeCh.Qos(consumerPrefetch, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set consumer prefetch: %w", err)
	}

	logger.Info("connected to RabbitMQ", zap.String("queue", q.Name))

	return &RabbitMQ{
		conn:      conn,
		publishCh: publishCh,
		consumeCh: consumeCh,
		queue:     q,
		logger:    logger,
	}, nil
}

// Dispatch публикует событие в очередь
func (r *RabbitMQ) Dispatch(ctx context.Context, event models.ReputationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = r.publishCh.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Consume запускает обработку очереди и блокируется до отмены ctx или закрытия канала
func (r *RabbitMQ) Consume(ctx context.Context, handler Handler) error {
	msgs, err := r.consumeCh.ConsumeWithContext(
		ctx,
		r.queue.Name,
		"",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			r.handleDelivery(ctx, d, handler)
		}
	}
}

func (r *RabbitMQ) handleDelivery(ctx context.Context, d amqp.Delivery, handler Handler) {
	event, err := decodeEvent(d.Body)
	if err != nil {
		r.logger.Error("invalid reputation event", zap.String("message_id", d.MessageId), zap.Error(err))
		r.settle(d, d.Nack(false, false))
		return
	}

	if err := handler(ctx, event); err != nil {
		r.logger.Error("reputation event handling failed",
			zap.String("event_id", event.EventID),
			zap.String("user_id", event.UserID),
			zap.Bool("redelivered", d.Redelivered),
			zap.Error(err))
		// Повторная доставка только один раз
		r.settle(d, d.Nack(false, !d.Redelivered))
		return
	}

	r.settle(d, d.Ack(false))
}

// settle логирует ошибку подтверждения доставки
func (r *RabbitMQ) settle(d amqp.Delivery, err error) {
	if err != nil {
		r.logger.Warn("failed to settle reputation event delivery",
			zap.String("message_id", d.MessageId),
			zap.Uint64("delivery_tag", d.DeliveryTag),
			zap.Error(err))
	}
}

func decodeEvent(body []byte) (models.ReputationEvent, error) {
	var event models.ReputationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.UserID == "" || event.Action == "" {
		return event, fmt.Errorf("event is missing user_id or action")
	}
	return event, nil
}

// Close закрывает каналы и соединение
func (r *RabbitMQ) Close() error {
	var errs []error
	for _, ch := range []*amqp.Channel{r.consumeCh, r.publishCh} {
		if err := ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if err := r.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
	}
	return errors.Join(errs...)
}
