// Package errtypes provides a small tagged error type for the conan server.
//
// Handlers convert these at the HTTP boundary (see internal/http/services/
// conanserver); everywhere else code should construct and check errors
// through the Kind-specific constructors and Is below, never through
// string matching.
package errtypes

import "fmt"

// Kind identifies the class of failure.
type Kind int

// The error kinds the handler layer maps to HTTP status codes.
const (
	_ Kind = iota
	KindBadRequest
	KindNotFound
	KindConflict
	KindAuthRequired
	KindForbidden
	KindIndexFault
	KindStoreFault
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BadRequest"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindAuthRequired:
		return "AuthRequired"
	case KindForbidden:
		return "Forbidden"
	case KindIndexFault:
		return "IndexFault"
	case KindStoreFault:
		return "StoreFault"
	default:
		return "Unknown"
	}
}

// Error is the flat tagged error carried across module boundaries:
// {Kind, Cause, Context}.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(k Kind, context string, cause error) error {
	return &Error{Kind: k, Context: context, Cause: cause}
}

// NotFound reports a missing resource.
func NotFound(context string) error { return newErr(KindNotFound, context, nil) }

// BadRequest reports a malformed URL capture or request body. A bad
// storage key always surfaces as BadRequest.
func BadRequest(context string) error { return newErr(KindBadRequest, context, nil) }

// Conflict reports an upload attempted against an already-existing coordinate.
func Conflict(context string) error { return newErr(KindConflict, context, nil) }

// AuthRequired reports missing credentials (HTTP 401).
func AuthRequired(context string) error { return newErr(KindAuthRequired, context, nil) }

// Forbidden reports insufficient permissions (HTTP 403).
func Forbidden(context string) error { return newErr(KindForbidden, context, nil) }

// IndexFault reports a blob-store fault during a revision index rebuild.
func IndexFault(context string, cause error) error { return newErr(KindIndexFault, context, cause) }

// StoreFault reports a generic I/O fault. A malformed conaninfo.txt
// document always surfaces as StoreFault.
func StoreFault(context string, cause error) error { return newErr(KindStoreFault, context, cause) }

// Is reports whether err is an *Error of the given kind.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == k
}

// KindOf extracts the Kind from err, defaulting to KindStoreFault for
// errors the package did not itself construct.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindStoreFault
}
