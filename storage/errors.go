package storage

import "errors"

// Sentinel errors for backend and store operations.
var (
	ErrKeyNotFound   = errors.New("key not found")
	ErrInvalidKey    = errors.New("invalid key")
	ErrEncode        = errors.New("value encoding failed")
	ErrLoadFailed    = errors.New("load failed")
	ErrSaveFailed    = errors.New("save failed")
	ErrDeleteFailed  = errors.New("delete failed")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrClosed        = errors.New("storage closed")
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrInvalidConfig = errors.New("invalid storage config")
)
