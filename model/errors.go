package model

import (
	"github.com/pkg/errors"
)

// Error classes returned by this module. Every error we create wraps one of
// these, so callers can classify a failure with errors.Is.
var (
	// ErrInvalidArgument means the caller handed us something we can not
	// use: an empty model set, a malformed model, an out of range index.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNumerical means the numbers themselves failed us: a singular linear
	// system, or a full conditional with no finite weight. These signal a
	// degenerate model set and are never retried.
	ErrNumerical = errors.New("numerical failure")
)

// Invalidf wraps ErrInvalidArgument with a formatted message
func Invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// Numericalf wraps ErrNumerical with a formatted message
func Numericalf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNumerical, format, args...)
}
