package graphstore

import "errors"

// Sentinel errors classify Graph Store failures so callers (the CLI
// entrypoints and the interjection hook) can decide whether to retry, fall
// back, or surface the error to a human (spec §4.1 "Failures").
var (
	ErrTransientIO = errors.New("graphstore: transient io error")
	ErrCorruption  = errors.New("graphstore: corrupted graph file")
	ErrValidation  = errors.New("graphstore: validation failed")
	ErrNotFound    = errors.New("graphstore: not found")
	ErrSecurity    = errors.New("graphstore: rejected unsafe input")
)
