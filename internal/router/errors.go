package router

import "errors"

var (
	ErrNoMatch        = errors.New("no route matches path")
	ErrUnknownRoute   = errors.New("unknown route name")
	ErrMissingParam   = errors.New("missing route parameter")
	ErrInvalidPattern = errors.New("invalid route pattern")
	ErrDuplicateRoute = errors.New("duplicate route")
)
