package engine

import "errors"

var (
	// ErrEngineClosed is returned by operations on a closed engine.
	ErrEngineClosed = errors.New("engine is closed")

	// ErrMissingKey is returned when a preload request has no key.
	ErrMissingKey = errors.New("preload request requires a key")

	// ErrMissingLoader is returned when a preload request has no loader
	// and the key is not already resident.
	ErrMissingLoader = errors.New("preload request requires a loader")

	// ErrUnknownTier is returned by SetTier for a tier with no budget in
	// the tier table.
	ErrUnknownTier = errors.New("unknown quality tier")
)
