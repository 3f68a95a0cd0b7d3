// Package mq публикует подписанные задачи в RabbitMQ.
//
// Структура:
//   - connection.go — соединение и канал в режиме publisher confirms
//   - publisher.go  — сборка конверта и публикация с метаданными доставки
//   - metrics.go    — Prometheus метрики публикации
//
// Publish возвращает управление только после подтверждения брокером
// (basic.ack). Nack, возврат неразрутизированного сообщения, закрытие
// канала или истечение контекста дают ErrPublish. Повторов внутри пакета нет.
//
// Exchange и routing key по умолчанию:
//   - certification / certification
package mq
