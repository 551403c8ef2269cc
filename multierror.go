package elog

// Attribution: portions of the below code and documentation are
// modeled directly on the https://github.com/uber-go/multierr library,
// used with the permission available under the software license (MIT):
// https://github.com/uber-go/multierr/blob/master/LICENSE.txt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// MultiError is a list of errors. EmitErrorReport collects the failed
// writes of one report into a MultiError so they can be logged as a
// single entry.
//
// MultiErrors are guaranteed to be flat: no errors contained in its
// list are (or wrap) a MultiError.
//
// MultiErrors are not synchronized: you must handle them in a
// concurrency safe way when accessing from multiple goroutines.
type MultiError struct {
	errors []error
}

// A simple interface for identifying an error wrapper for multiple
// errors (including MultiError).
type multiError interface {
	Errors() []error
}

var _ interface { // Assert interface implementation.
	error
	multiError
	Unwrap() []error
	fmt.Formatter
} = (*MultiError)(nil)

// NewMultiError returns a MultiError from a group of errors. Nil error
// values are not included, and a nil *MultiError is returned when no
// error is left.
//
// If any of the given errors is, or wraps, a MultiError, it is
// flattened into the new MultiError.
func NewMultiError(errs ...error) (merr *MultiError) {
	for _, err := range errs {
		if isNil(err) {
			continue
		}
		if merr == nil {
			merr = &MultiError{}
		}
		if mm := unwrapMultiErr(err); mm != nil {
			merr.errors = append(merr.errors, flatten(mm)...)
		} else {
			merr.errors = append(merr.errors, err)
		}
	}
	return
}

// flatten gets a list of errors from a multiError that is certain not
// to contain any other multiErrors or wrapped multiErrors.
func flatten(m multiError) (errs []error) {
	if merr, ok := m.(*MultiError); ok {
		return merr.Errors()
	}
	for _, err := range m.Errors() {
		if isNil(err) {
			continue
		}
		if mm := unwrapMultiErr(err); mm != nil {
			errs = append(errs, flatten(mm)...)
		} else {
			errs = append(errs, err)
		}
	}
	return
}

// unwrapMultiErr finds the first multiError in the error chain. If none
// is found it returns nil.
func unwrapMultiErr(err error) multiError {
	var merr multiError
	if errors.As(err, &merr) {
		return merr
	}
	return nil
}

func (merr *MultiError) Error() string {
	buf := new(bytes.Buffer)
	formatMessages(buf, merr, [2]string{"[", "]"})
	return buf.String()
}

// Errors returns the underlying errors. It returns a nil slice if the
// MultiError is nil or empty. Do not modify the returned slice.
func (merr *MultiError) Errors() []error {
	if isNil(merr) || len(merr.errors) == 0 {
		return nil
	}
	return merr.errors
}

// Len returns the number of errors currently in the MultiError.
func (merr *MultiError) Len() int {
	if isNil(merr) {
		return 0
	}
	return len(merr.errors)
}

// ErrorOrNil returns nil for an empty MultiError, the error itself when
// it holds exactly one, and the MultiError otherwise.
func (merr *MultiError) ErrorOrNil() error {
	switch len(merr.Errors()) {
	case 0:
		return nil
	case 1:
		return merr.errors[0]
	default:
		return merr
	}
}

// Unwrap returns the contained errors, so errors.Is and errors.As look
// through every one of them.
func (merr *MultiError) Unwrap() []error { return merr.Errors() }

func (merr *MultiError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		switch {
		case s.Flag('+'):
			size := len(merr.Errors())
			if size < 1 {
				io.WriteString(s, "empty errors: []")
				return
			}
			io.WriteString(s, "multiple errors:\n")
			for i, err := range merr.errors {
				fmt.Fprintf(s, "\n* error %d of %d: %+v", i+1, size, err)
			}
			io.WriteString(s, "\n")
		case s.Flag('#'):
			io.WriteString(s, "*elog.MultiError")
			formatMessages(s, merr, [2]string{"{", "}"})
		default:
			formatMessages(s, merr, [2]string{"[", "]"})
		}
	case 's':
		formatMessages(s, merr, [2]string{"[", "]"})
	case 'q':
		formatMessages(s, merr, [2]string{`"[`, `]"`})
	default:
		// empty
	}
}

func formatMessages(w io.Writer, merr multiError, delimiters [2]string) {
	io.WriteString(w, delimiters[0])
	for i, err := range merr.Errors() {
		if i > 0 {
			io.WriteString(w, "; ")
		}
		io.WriteString(w, err.Error())
	}
	io.WriteString(w, delimiters[1])
}
