package router

import "errors"

// Sentinel errors classify LLM disambiguation failures so the retry loop
// (spec §4.3 step 3) can tell a transient failure (retry) from an auth
// failure (never retry) apart.
var (
	ErrAuth        = errors.New("router: llm authentication failed")
	ErrRateLimited = errors.New("router: llm rate limited")
	ErrTransient   = errors.New("router: llm transient failure")
	ErrTimeout     = errors.New("router: llm call timed out")
)
