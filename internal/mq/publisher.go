package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/certsend/internal/task"
	"github.com/shaiso/certsend/internal/telemetry"
)

// Значения по умолчанию для маршрутизации и заголовков задачи, их подставляет config.
const (
	DefaultExchange   = "certification"
	DefaultRoutingKey = "certification"
	DefaultTaskName   = "certification.first_tasks"
	DefaultOrigin     = "certsend-producer"
)

// Target — куда публиковать: exchange и routing key.
type Target struct {
	Exchange   string
	RoutingKey string
}

// Receipt — идентификаторы опубликованной задачи для сопоставления ответа.
type Receipt struct {
	TaskID        string `json:"task_id"`
	CorrelationID string `json:"correlation_id"`
}

// PublisherConfig — зависимости Publisher.
type PublisherConfig struct {
	// Broker — транспорт, обычно *Connection. Обязателен.
	Broker Broker

	// Signer — подпись тела общим секретом.
	Signer *task.Signer

	// Target — exchange и routing key.
	Target Target

	// TaskName — заголовок task, по нему воркер выбирает обработчик.
	TaskName string

	// Origin — заголовок origin.
	Origin string

	Logger *slog.Logger
}

// Publisher собирает подписанные задачи и публикует их в брокер.
// Состояния между вызовами не хранит, Submit можно вызывать параллельно.
type Publisher struct {
	broker   Broker
	signer   *task.Signer
	target   Target
	taskName string
	origin   string
	logger   *slog.Logger

	now func() time.Time
}

// NewPublisher создаёт новый Publisher.
// Target, TaskName и Origin берутся как есть: пустой routing key в AMQP допустим.
// Значения по умолчанию подставляет конфигурация.
func NewPublisher(cfg PublisherConfig) *Publisher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		broker:   cfg.Broker,
		signer:   cfg.Signer,
		target:   cfg.Target,
		taskName: cfg.TaskName,
		origin:   cfg.Origin,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit собирает конверт из args и публикует его в целевой exchange.
func (p *Publisher) Submit(ctx context.Context, args task.Args) (Receipt, error) {
	id, env, err := task.Build(args, p.signer)
	if err != nil {
		stage := stageEncode
		if errors.Is(err, task.ErrSigning) {
			stage = stageSign
		}
		tasksFailed.WithLabelValues(stage).Inc()
		return Receipt{}, err
	}

	meta := task.Metadata{
		TaskID:        id.TaskID,
		CorrelationID: id.CorrelationID,
		TaskName:      p.taskName,
		Origin:        p.origin,
		Timestamp:     p.now(),
	}

	if err := p.Publish(ctx, p.target, env, meta); err != nil {
		return Receipt{}, err
	}

	return Receipt{TaskID: id.TaskID, CorrelationID: id.CorrelationID}, nil
}

// Publish отправляет готовый конверт с метаданными доставки.
// Возвращает nil только после подтверждения брокером.
func (p *Publisher) Publish(ctx context.Context, target Target, env task.Envelope, meta task.Metadata) error {
	if p.broker == nil {
		tasksFailed.WithLabelValues(stagePublish).Inc()
		return fmt.Errorf("%w: %w", ErrPublish, ErrNoBroker)
	}

	body, err := env.Marshal()
	if err != nil {
		tasksFailed.WithLabelValues(stageEncode).Inc()
		return fmt.Errorf("%w: %w", task.ErrEncoding, err)
	}

	logger := telemetry.WithCorrelationID(telemetry.WithTaskID(p.logger, meta.TaskID), meta.CorrelationID)

	start := time.Now()
	err = p.broker.Publish(ctx, target.Exchange, target.RoutingKey, buildPublishing(body, meta))
	publishDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		tasksFailed.WithLabelValues(stagePublish).Inc()
		logger.Error("publish failed",
			"exchange", target.Exchange,
			"routing_key", target.RoutingKey,
			"error", err,
		)
		if !errors.Is(err, ErrPublish) {
			err = fmt.Errorf("%w: %w", ErrPublish, err)
		}
		return err
	}

	tasksPublished.Inc()
	logger.Info("task published",
		"exchange", target.Exchange,
		"routing_key", target.RoutingKey,
		"task", meta.TaskName,
	)

	return nil
}

// buildPublishing переносит метаданные в AMQP-свойства.
// Заголовки task/id/lang/origin совместимы с воркерами Celery.
func buildPublishing(body []byte, meta task.Metadata) amqp.Publishing {
	return amqp.Publishing{
		ContentType:     "application/json",
		ContentEncoding: "utf-8",
		DeliveryMode:    amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
		CorrelationId:   meta.CorrelationID,
		MessageId:       meta.TaskID,
		Timestamp:       meta.Timestamp,
		Headers: amqp.Table{
			"lang":   "go",
			"task":   meta.TaskName,
			"id":     meta.TaskID,
			"origin": meta.Origin,
		},
		Body: body,
	}
}
