// Package telemetry настраивает structured logging через slog.
//
// Логи пишутся в stderr, чтобы stdout команды оставался под результат
// (task_id и correlation_id).
package telemetry
