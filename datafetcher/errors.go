package datafetcher

import (
	"errors"
	"fmt"

	"github.com/evdata/evdata-api/datafetcher/entities"
)

// ErrorKind classifies fetch failures so callers can tell a transport
// problem from a malformed body or a local filesystem issue.
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindDecode     ErrorKind = "decode"
	KindFilesystem ErrorKind = "filesystem"
	KindUnexpected ErrorKind = "unexpected"
)

// FetchError wraps a failure of one fetcher with its kind and format.
type FetchError struct {
	Kind   ErrorKind
	Format entities.Format
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch: %s error: %v", e.Format, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, format entities.Format, err error) *FetchError {
	return &FetchError{Kind: kind, Format: format, Err: err}
}

// KindOf returns the kind of err if it is a FetchError, KindUnexpected
// otherwise.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err is a FetchError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
