package stub

import (
	"encoding/base64"
	"fmt"
)

// Bytes extracts a binary payload stored under key. Payloads arrive either as
// raw bytes (in-process clients) or as base64 strings (JSON transports).
// A missing, null or empty value yields nil without error.
func Bytes(r Result, key string) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	switch v := r[key].(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		data, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("stub: %s is not valid base64: %w", key, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("stub: unexpected %T payload for %s", v, key)
	}
}

// EncodeBytes renders data for a JSON payload field.
func EncodeBytes(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
