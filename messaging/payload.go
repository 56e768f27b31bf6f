package messaging

import (
	"encoding/json"
	"fmt"
)

// Normalize returns a deep plain-data copy of v. Structs become maps, numbers
// become float64 and byte slices become base64 strings, exactly as they would
// after a JSON round trip. Values that cannot be encoded (channels, funcs,
// cyclic graphs) fail with ErrNotSerializable.
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}
	return out, nil
}
