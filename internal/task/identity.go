package task

import "github.com/google/uuid"

// Identity — идентификаторы одной отправки задачи.
type Identity struct {
	// TaskID уходит в MessageId и заголовок id.
	TaskID string `json:"task_id"`

	// CorrelationID нужен для сопоставления ответа с запросом.
	CorrelationID string `json:"correlation_id"`
}

// NewIdentity генерирует два независимых UUIDv4.
func NewIdentity() Identity {
	return Identity{
		TaskID:        uuid.New().String(),
		CorrelationID: uuid.New().String(),
	}
}
