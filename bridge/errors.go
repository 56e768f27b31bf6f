package bridge

import "errors"

var ErrInvalidConfig = errors.New("invalid bridge config")
