// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Scoring errors. All are detected before any scoring work runs and are
// reported to API callers as client errors.
var (
	// ErrDimensionMismatch indicates two vectors of different length.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidWeight indicates a negative or non-finite concept weight, a
	// non-positive author order, or a blend whose parts do not sum to one.
	ErrInvalidWeight = errors.New("invalid weight")

	// ErrInvalidRange indicates a negative offset or a non-positive limit.
	ErrInvalidRange = errors.New("invalid range")
)

// ErrInvalidRecord indicates a stored record violates a data-layer invariant.
var ErrInvalidRecord = errors.New("invalid record")
