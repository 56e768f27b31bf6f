package messaging

import "errors"

var (
	ErrNotSerializable = errors.New("payload is not serializable")
	ErrMalformed       = errors.New("malformed message")
)
