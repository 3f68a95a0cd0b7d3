package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// dialTimeout ограничивает установку TCP-соединения с брокером.
const dialTimeout = 5 * time.Second

// Broker — то, что нужно Publisher от транспорта.
type Broker interface {
	Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error
}

// Connection — AMQP соединение с каналом в режиме publisher confirms.
//
// Переподключения нет: соединение живёт одну отправку и закрывается
// вызывающим через Close на любом пути выхода.
type Connection struct {
	logger *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	returns chan amqp.Return
	closed  bool
}

// NewConnection подключается к RabbitMQ и включает confirm-режим.
// Ошибка подключения оборачивает ErrPublish: до брокера ничего не ушло.
func NewConnection(url string, logger *slog.Logger) (*Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Dial:       amqp.DefaultDial(dialTimeout),
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dial amqp: %w", ErrPublish, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: open channel: %w", ErrPublish, err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%w: enable confirms: %w", ErrPublish, err)
	}

	c := &Connection{
		logger:  logger,
		conn:    conn,
		channel: ch,
		returns: ch.NotifyReturn(make(chan amqp.Return, 1)),
	}

	logger.Info("connected to RabbitMQ")

	return c, nil
}

// Publish публикует сообщение и ждёт подтверждения брокера.
//
// Сообщение отправляется с mandatory=true: если exchange не смог его
// никуда направить, брокер вернёт его до ack и Publish вернёт ErrUnroutable.
func (c *Connection) Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	// Один канал, поэтому публикации и разбор возвратов идут по очереди
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: %w", ErrPublish, ErrConnectionClosed)
	}

	dc, err := c.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		exchange,
		routingKey,
		true,  // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("%w: publish to %s/%s: %w", ErrPublish, exchange, routingKey, err)
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: wait confirm: %w", ErrPublish, err)
	}

	if returned := c.drainReturns(msg.MessageId); returned != nil {
		return fmt.Errorf("%w: %w: %s (%d)", ErrPublish, ErrUnroutable, returned.ReplyText, returned.ReplyCode)
	}

	if !acked {
		return fmt.Errorf("%w: %w", ErrPublish, ErrNacked)
	}

	return nil
}

// drainReturns забирает накопленные basic.return и ищет среди них messageID.
// Брокер присылает return раньше ack, поэтому после подтверждения он уже в канале.
func (c *Connection) drainReturns(messageID string) *amqp.Return {
	var found *amqp.Return
	for {
		select {
		case r, ok := <-c.returns:
			if !ok {
				return found
			}
			if r.MessageId == messageID {
				found = &r
			} else {
				c.logger.Warn("dropping stale returned message", "message_id", r.MessageId)
			}
		default:
			return found
		}
	}
}

// Close закрывает канал и соединение. Повторный вызов ничего не делает.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}

	c.logger.Info("connection closed")
	return nil
}

// IsConnected проверяет, установлено ли соединение.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.conn == nil {
		return false
	}

	return !c.conn.IsClosed()
}
