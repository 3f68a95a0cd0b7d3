package task

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope — тело публикуемого сообщения.
//
// Подпись передаётся вместе с телом, иначе консьюмеру нечего проверять.
type Envelope struct {
	// Body — base64 от канонического JSON аргументов.
	Body string `json:"body"`

	// Signature — hex HMAC-SHA256 от Body.
	Signature string `json:"signature"`
}

// Metadata — свойства доставки, уходят в AMQP-свойства, а не в тело.
type Metadata struct {
	TaskID        string
	CorrelationID string
	TaskName      string
	Origin        string
	Timestamp     time.Time
}

// BuildEnvelope оборачивает закодированное тело и его подпись.
func BuildEnvelope(encoded []byte, signature string) Envelope {
	return Envelope{
		Body:      string(encoded),
		Signature: signature,
	}
}

// Marshal сериализует конверт в JSON.
func (e Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// DecodeEnvelope разбирает тело сообщения.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	if env.Body == "" {
		return Envelope{}, fmt.Errorf("%w: empty body", ErrMalformedEnvelope)
	}
	return env, nil
}

// Open проверяет подпись и возвращает аргументы задачи.
// Это проверка, которую выполняет консьюмер с тем же секретом.
func (e Envelope) Open(s *Signer) (Args, error) {
	if err := s.Verify([]byte(e.Body), e.Signature); err != nil {
		return nil, err
	}
	return DecodeArgs([]byte(e.Body))
}

// Build выполняет сборку целиком: identity -> encode -> sign -> envelope.
// Первая ошибка прерывает сборку, частичного результата нет.
func Build(args Args, s *Signer) (Identity, Envelope, error) {
	id := NewIdentity()

	encoded, err := EncodeArgs(args)
	if err != nil {
		return Identity{}, Envelope{}, err
	}

	signature, err := s.Sign(encoded)
	if err != nil {
		return Identity{}, Envelope{}, err
	}

	return id, BuildEnvelope(encoded, signature), nil
}
