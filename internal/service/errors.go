package service

import "errors"

var (
	// ErrExtractionUpstream is returned when the underlying model call
	// fails (quota, network, empty response).
	ErrExtractionUpstream = errors.New("extraction model call failed")

	// ErrExtractionParse is returned when model output cannot be parsed
	// into, or does not validate against, the output schema.
	ErrExtractionParse = errors.New("extraction output did not conform to schema")
)
