package level

import "github.com/pkg/errors"

var (
	ErrInvalidConfig  = errors.New("invalid level config")
	ErrNilSprite      = errors.New("nil sprite")
	ErrUnknownCommand = errors.New("unknown command")
)
