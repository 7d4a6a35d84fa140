// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import "errors"

var (
	// ErrEngineRequired is returned when a service is built without an engine.
	ErrEngineRequired = errors.New("engine required")

	// ErrSourceRequired is returned when a service is built without a candidate source.
	ErrSourceRequired = errors.New("candidate source required")

	// ErrEncoderRequired is returned when a text query arrives and no encoder is configured.
	ErrEncoderRequired = errors.New("query encoder required")

	// ErrEmptyQuery is returned when a request carries neither text nor an embedding.
	ErrEmptyQuery = errors.New("query is empty: provide text, a file, or an embedding")

	// ErrUnknownKind is returned for a result kind other than papers, authors, venues or all.
	ErrUnknownKind = errors.New("unknown result kind")

	// ErrQueryEncoding wraps failures of the external query encoder.
	ErrQueryEncoding = errors.New("encoding query")
)
