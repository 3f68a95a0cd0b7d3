// Package task собирает подписанный конверт задачи для публикации в брокер.
//
// Порядок сборки:
//   - identity.go — task_id и correlation_id (UUIDv4)
//   - args.go     — канонический JSON аргументов + base64
//   - signer.go   — HMAC-SHA256 подпись закодированного тела
//   - envelope.go — конверт {"body", "signature"} и метаданные доставки
//
// Пакет не хранит состояния: каждый вызов Build создаёт новую пару
// идентификаторов и новый конверт. Секрет передаётся через Signer,
// который строится из конфигурации.
package task
