package entities

import (
	"errors"
	"fmt"
)

// Catalogue error taxonomy. Every layer wraps one of these with the
// operation and offending value, callers branch with errors.Is.
var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("book not found")
	ErrStorage    = errors.New("storage failure")

	ErrInvalidField  = fmt.Errorf("%w: unsupported search field", ErrValidation)
	ErrInvalidMetric = fmt.Errorf("%w: unsupported ranking metric", ErrValidation)
)
