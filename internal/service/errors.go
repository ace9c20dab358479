package service

import "errors"

// ErrInvalidInput wraps every validation failure reported by the services.
var ErrInvalidInput = errors.New("invalid input")
