package mq

import "errors"

// Ошибки публикации. Все они оборачивают ErrPublish.
var (
	// ErrPublish — брокер не принял сообщение.
	ErrPublish = errors.New("publish task")

	// ErrNacked — брокер ответил basic.nack или канал закрылся до ack.
	ErrNacked = errors.New("broker did not confirm message")

	// ErrUnroutable — сообщение вернулось как неразрутизированное.
	ErrUnroutable = errors.New("message returned as unroutable")

	// ErrNoBroker — Publisher создан без транспорта.
	ErrNoBroker = errors.New("publisher has no broker")

	// ErrConnectionClosed — соединение уже закрыто.
	ErrConnectionClosed = errors.New("connection closed")
)
