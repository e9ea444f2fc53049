// Package errs defines the pipeline's error taxonomy: typed values the
// orchestrator can switch on with errors.As instead of string-prefixed
// error messages.
package errs

import (
	"errors"
	"fmt"
)

// ConfigError is fatal before a run starts: missing credential, malformed
// vendor dictionary, unreadable keyword file.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SourceTransientError marks a retried failure: network, 5xx, 429.
type SourceTransientError struct {
	Source string
	Err    error
}

func (e *SourceTransientError) Error() string {
	return fmt.Sprintf("source %s: transient: %v", e.Source, e.Err)
}

func (e *SourceTransientError) Unwrap() error { return e.Err }

// SourcePermanentError marks a source as skipped for the remainder of the
// run: 4xx (not 429), auth failure, schema drift.
type SourcePermanentError struct {
	Source string
	Err    error
}

func (e *SourcePermanentError) Error() string {
	return fmt.Sprintf("source %s: permanent: %v", e.Source, e.Err)
}

func (e *SourcePermanentError) Unwrap() error { return e.Err }

// PatternCompileWarning is non-fatal: a single phrase failed regex
// compilation and fell back to substring matching.
type PatternCompileWarning struct {
	Category string
	Phrase   string
	Err      error
}

func (e *PatternCompileWarning) Error() string {
	return fmt.Sprintf("pattern %q in category %q fell back to substring match: %v", e.Phrase, e.Category, e.Err)
}

func (e *PatternCompileWarning) Unwrap() error { return e.Err }

// LLMError marks an LLM call failure: timeout, malformed response, schema
// violation. Retried once with a repair prompt, then soft-failed.
type LLMError struct {
	Stage string // "call", "parse", "validate"
	Err   error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm %s failed: %v", e.Stage, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }

// TotalFetchFailure is fatal post-run: zero items collected after all
// fetchers report.
type TotalFetchFailure struct{}

func (e *TotalFetchFailure) Error() string { return "zero items fetched across all sources" }

// Cancelled propagates a caller cancellation; no artifacts are emitted.
type Cancelled struct {
	Err error
}

func (e *Cancelled) Error() string { return fmt.Sprintf("run cancelled: %v", e.Err) }
func (e *Cancelled) Unwrap() error { return e.Err }

// ExitCode maps a top-level run error to its process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cfgErr *ConfigError
	var fetchErr *TotalFetchFailure
	switch {
	case errors.As(err, &cfgErr):
		return 1
	case errors.As(err, &fetchErr):
		return 2
	default:
		return 3
	}
}
