package authorization

import "errors"

var (
	ErrInvalidActor  = errors.New("invalid actor")
	ErrInvalidStudio = errors.New("invalid studio")
	ErrInvalidObject = errors.New("invalid object")
	ErrInvalidAction = errors.New("invalid action")
	ErrForbidden     = errors.New("forbidden")
)
