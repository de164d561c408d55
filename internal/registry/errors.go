package registry

import (
	"errors"
	"fmt"

	"bankrot-check/internal/challenge"
	"bankrot-check/internal/roster"
)

var (
	// ErrCookieRefreshed means the site answered with a challenge and the
	// session cookie was replaced, the search has to be sent again.
	ErrCookieRefreshed = errors.New("setting new bankrot cookie")
	// ErrRequestFailed covers transport failures and non-2xx statuses.
	ErrRequestFailed        = errors.New("request failed")
	ErrStructuralMismatch   = errors.New("unexpected result page structure")
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
)

type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindRetryableChallenge
	KindRetryableTransport
	KindMalformedChallenge
	KindStructuralMismatch
	KindRetryBudgetExhausted
	KindPersistenceFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindRetryableChallenge:
		return "retryable_challenge"
	case KindRetryableTransport:
		return "retryable_transport"
	case KindMalformedChallenge:
		return "malformed_challenge"
	case KindStructuralMismatch:
		return "structural_mismatch"
	case KindRetryBudgetExhausted:
		return "retry_budget_exhausted"
	case KindPersistenceFailure:
		return "persistence_failure"
	}
	return "other"
}

// KindOf classifies an error returned from the check flow. The budget check
// comes first since an exhausted budget wraps the last retryable error.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrRetryBudgetExhausted):
		return KindRetryBudgetExhausted
	case errors.Is(err, challenge.ErrMalformedChallenge):
		return KindMalformedChallenge
	case errors.Is(err, ErrStructuralMismatch):
		return KindStructuralMismatch
	case errors.Is(err, ErrCookieRefreshed):
		return KindRetryableChallenge
	case errors.Is(err, ErrRequestFailed):
		return KindRetryableTransport
	}
	return KindOther
}

// CheckError is returned when a subject could not be checked, it carries
// enough context for the caller to write an error record and move on.
type CheckError struct {
	Subject roster.Subject
	Kind    ErrorKind
	Err     error
}

func NewCheckError(subject roster.Subject, err error) *CheckError {
	return &CheckError{Subject: subject, Kind: KindOf(err), Err: err}
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("check %s: %s: %v", e.Subject.FullName(), e.Kind, e.Err)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}
