package task

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Signer подписывает закодированное тело общим секретом.
type Signer struct {
	secret []byte
}

// NewSigner создаёт Signer. Пустой секрет — ошибка ErrSigning.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrSigning)
	}

	key := make([]byte, len(secret))
	copy(key, secret)
	return &Signer{secret: key}, nil
}

// Sign возвращает HMAC-SHA256 от encoded в виде hex-строки.
func (s *Signer) Sign(encoded []byte) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", fmt.Errorf("%w: signer has no secret", ErrSigning)
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(encoded)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify пересчитывает подпись и сравнивает за константное время.
func (s *Signer) Verify(encoded []byte, signature string) error {
	expected, err := s.Sign(encoded)
	if err != nil {
		return err
	}

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}
