package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

func encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, key, err)
	}
	return data, nil
}

func decode(key string, data []byte) (any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
	}
	return value, nil
}

// GetAs reads key from b and decodes the value into T. The boolean is false
// when the key is absent.
func GetAs[T any](ctx context.Context, b Backend, key string) (T, bool, error) {
	var out T

	value, err := b.Get(ctx, key)
	if err != nil {
		return out, false, err
	}
	if value == nil {
		return out, false, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return out, false, fmt.Errorf("%w: %s: %v", ErrEncode, key, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false, fmt.Errorf("%w: %s: %v", ErrEncode, key, err)
	}
	return out, true, nil
}
