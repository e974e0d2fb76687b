package physics

import "errors"

var (
	ErrAlreadyRegistered = errors.New("physics: object already registered")
	ErrNotRegistered     = errors.New("physics: object not registered")
	ErrNilObject         = errors.New("physics: nil object")
)
