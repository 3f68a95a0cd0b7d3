package task

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Record — одна запись аргументов, например {"name": "...", "certificate_name": "..."}.
type Record map[string]any

// Args — упорядоченная последовательность записей.
type Args []Record

// EncodeArgs сериализует аргументы в канонический JSON и кодирует в base64.
//
// Ключи записей сортируются encoding/json, HTML-экранирование отключено,
// поэтому одинаковые args всегда дают одинаковые байты.
func EncodeArgs(args Args) ([]byte, error) {
	raw, err := canonicalJSON(args)
	if err != nil {
		return nil, err
	}

	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out, nil
}

// DecodeArgs — обратная операция к EncodeArgs.
func DecodeArgs(encoded []byte) (Args, error) {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(raw, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %w", ErrMalformedEnvelope, err)
	}

	var args Args
	if err := json.Unmarshal(raw[:n], &args); err != nil {
		return nil, fmt.Errorf("%w: unmarshal args: %w", ErrMalformedEnvelope, err)
	}
	return args, nil
}

func canonicalJSON(args Args) ([]byte, error) {
	// nil сериализуется как null, консьюмер ждёт список
	if args == nil {
		args = Args{}
	}

	for i, rec := range args {
		if err := checkUTF8(rec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrEncoding, i, err)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// checkUTF8 отклоняет невалидный UTF-8 в ключах и строках.
// encoding/json молча заменяет такие байты на U+FFFD, и разные записи
// давали бы одно тело и одну подпись.
func checkUTF8(v any) error {
	switch val := v.(type) {
	case string:
		if !utf8.ValidString(val) {
			return fmt.Errorf("invalid utf-8 in value %q", val)
		}
	case Record:
		return checkMap(val)
	case map[string]any:
		return checkMap(val)
	case map[string]string:
		for k, s := range val {
			if err := checkUTF8(k); err != nil {
				return err
			}
			if err := checkUTF8(s); err != nil {
				return fmt.Errorf("field %q: %w", k, err)
			}
		}
	case []any:
		for _, item := range val {
			if err := checkUTF8(item); err != nil {
				return err
			}
		}
	case []string:
		for _, item := range val {
			if err := checkUTF8(item); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkMap(m map[string]any) error {
	for k, item := range m {
		if !utf8.ValidString(k) {
			return fmt.Errorf("invalid utf-8 in key %q", k)
		}
		if err := checkUTF8(item); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}
	return nil
}
