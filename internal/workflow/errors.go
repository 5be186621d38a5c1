package workflow

import "errors"

// Sentinel errors classify Workflow Engine failures (spec §7), mirroring
// the taxonomy used by the Graph Store.
var (
	ErrNotFound    = errors.New("workflow: not found")
	ErrValidation  = errors.New("workflow: validation failed")
	ErrSecurity    = errors.New("workflow: rejected unsafe input")
	ErrTransientIO = errors.New("workflow: transient io error")
)
