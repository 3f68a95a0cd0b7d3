package task

import "errors"

// Ошибки сборки конверта.
var (
	// ErrEncoding — аргументы нельзя представить в каноническом JSON.
	ErrEncoding = errors.New("encode task arguments")

	// ErrSigning — нет ключа для подписи.
	ErrSigning = errors.New("sign task payload")

	// ErrSignatureMismatch — подпись не совпала с пересчитанной.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrMalformedEnvelope — тело сообщения не является конвертом.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)
