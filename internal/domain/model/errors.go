package model

import "errors"

var (
	// ErrMalformedInput is returned when a required identifying column is missing
	// or a kept row cannot be coerced to the canonical schema.
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnknownCategory is returned when a requested litter code is not in the schema.
	ErrUnknownCategory = errors.New("unknown litter category")
	// ErrMissingFeed is returned when an external feed is unreachable or unparseable.
	ErrMissingFeed = errors.New("missing external feed")
)

// ErrNoModels is returned when a prediction is requested before any training run.
var ErrNoModels = errors.New("no trained models")
