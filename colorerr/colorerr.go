// Package colorerr implements the error taxonomy of spec.md §7: every
// fallible core operation returns an error tagged with a Kind rather than a
// bare sentinel, so the CLI can print "ERROR:" lines and decide exit
// behavior without string-matching messages.
package colorerr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies why an operation failed, per spec.md §7.
type Kind int

const (
	// Input covers missing/truncated files, bad magic, malformed ICC data.
	Input Kind = iota
	// Unsupported covers depths/formats/curve types a codec or profile
	// builder cannot carry.
	Unsupported
	// Validation covers bad user parameters.
	Validation
	// Arithmetic covers non-invertible matrices and zero-luminance divides.
	Arithmetic
	// External covers codec-library failures propagated verbatim.
	External
	// Resource covers allocation failures.
	Resource
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case Unsupported:
		return "unsupported"
	case Validation:
		return "validation"
	case Arithmetic:
		return "arithmetic"
	case External:
		return "external"
	case Resource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind and the operation that
// produced it, preserving a cause chain via github.com/pkg/errors so
// verbose CLI output can print "Op: Kind: cause".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind, wrapping msg with a stack trace.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Wrap annotates err with a Kind and operation name. Returns nil if err is
// nil, so callers can write `return colorerr.Wrap(Input, "decode", err)`
// unconditionally inside an `if err != nil` already guarded block.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

// Is reports whether err is a *Error of the given kind, walking Unwrap.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		err = errors.Unwrap(err)
	}
	return e != nil && e.Kind == kind
}

// List accumulates multiple validation failures from a single planner step
// (e.g. a malformed --primaries list alongside a bad --gamma value) before
// reporting them together, grounded on the Errors/Error accumulator pattern
// used for multi-field validation elsewhere in the retrieved corpus.
type List struct {
	errs []*Error
}

// Add appends a new Validation-kind error built from op and a formatted message.
func (l *List) Add(op, format string, args ...any) {
	l.errs = append(l.errs, New(Validation, op, fmt.Sprintf(format, args...)))
}

// AddErr appends an existing error, wrapping it with op if it is not
// already a *Error.
func (l *List) AddErr(op string, err error) {
	if err == nil {
		return
	}
	var ce *Error
	if errors.As(err, &ce) {
		l.errs = append(l.errs, ce)
		return
	}
	l.errs = append(l.errs, &Error{Kind: Validation, Op: op, Err: err})
}

// HasErrors reports whether any errors were accumulated.
func (l *List) HasErrors() bool { return len(l.errs) > 0 }

// Errors returns the accumulated errors.
func (l *List) Errors() []*Error { return l.errs }

// Error implements the error interface, rendering one line per entry so
// the CLI can print it directly as spec.md §7's "single ERROR: line"
// (or, for a batch, one per validation failure).
func (l *List) Error() string {
	if len(l.errs) == 0 {
		return "no errors"
	}
	var sb strings.Builder
	for i, e := range l.errs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}
