package types

import (
	"errors"
	"fmt"
)

// Error taxonomy for the pipeline. Per-file and per-chunk errors are
// absorbed and tallied by the enclosing stage; provider-level permanent
// errors abort the stage and propagate to the orchestrator.

// TransientError wraps a failure worth retrying with backoff
// (connection reset, TLS, 5xx).
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// QuotaError marks a permanent provider rejection (quota exceeded,
// invalid credentials). Never retried; aborts the remaining batches.
type QuotaError struct {
	Provider string
	Err      error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("provider %s rejected request permanently: %v", e.Provider, e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

// NotIndexedError is returned when search or embed is invoked before the
// stage that produces the required artifact has run.
type NotIndexedError struct {
	Repo     string
	Artifact string
}

func (e *NotIndexedError) Error() string {
	return fmt.Sprintf("repository %s not indexed: missing %s (run the earlier pipeline stage first)", e.Repo, e.Artifact)
}

// CorruptStateError marks unreadable persisted JSON. Callers treat the
// state as absent, log, and proceed as a first run.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt persisted state at %s: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// DecodeError marks a binary or undecodable source file. The file is
// skipped and counted; ingestion of remaining files continues.
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s: %s", e.Path, e.Reason)
}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsQuota reports whether err is a permanent quota/auth rejection.
func IsQuota(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}
