package elog

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/secureworks/elog/internal/testutils"
)

type groupError struct {
	errs []error
}

func (g *groupError) Error() string   { return "group" }
func (g *groupError) Errors() []error { return g.errs }

func TestMultiError(t *testing.T) {
	err1 := errors.New("err 1")
	err2 := errors.New("err 2")
	err3 := errors.New("err 3")

	t.Run("keeps order and drops nils", func(t *testing.T) {
		var typedNil *Record
		merr := NewMultiError(nil, err1, typedNil, err2, nil, err3)

		testutils.AssertEqual(t, []error{err1, err2, err3}, merr.Errors())
		testutils.AssertEqual(t, 3, merr.Len())
	})

	t.Run("flattens", func(t *testing.T) {
		inner := NewMultiError(err1, err2)
		wrapped := fmt.Errorf("wrap: %w", &groupError{errs: []error{err3, nil, inner}})

		merr := NewMultiError(inner, wrapped)

		testutils.AssertEqual(t, []error{err1, err2, err3, err1, err2}, merr.Errors())
	})

	t.Run("empty", func(t *testing.T) {
		merr := NewMultiError(nil, nil)

		testutils.AssertNil(t, merr)
		testutils.AssertEqual(t, 0, merr.Len())
		testutils.AssertNil(t, merr.Errors())
		testutils.AssertNil(t, merr.ErrorOrNil())
	})

	t.Run("error or nil", func(t *testing.T) {
		testutils.AssertEqual(t, err1, NewMultiError(err1).ErrorOrNil())

		merr := NewMultiError(err1, err2)
		testutils.AssertEqual(t, error(merr), merr.ErrorOrNil())
	})

	t.Run("is and as look inside", func(t *testing.T) {
		merr := NewMultiError(err1, sinkErr(sinkSyslog, io.ErrClosedPipe))

		testutils.AssertTrue(t, errors.Is(merr, err1))
		testutils.AssertTrue(t, errors.Is(merr, io.ErrClosedPipe))

		var se *sinkError
		testutils.AssertTrue(t, errors.As(merr, &se))
		testutils.AssertEqual(t, sinkSyslog, se.sink)
		testutils.AssertEqual(t, "syslog: io: read/write on closed pipe", se.Error())
	})
}

func TestMultiErrorFormat(t *testing.T) {
	merr := NewMultiError(errors.New("err 1"), errors.New("err 2"))

	testutils.AssertEqual(t, "[err 1; err 2]", merr.Error())
	testutils.AssertEqual(t, "[err 1; err 2]", fmt.Sprintf("%s", merr))
	testutils.AssertEqual(t, "[err 1; err 2]", fmt.Sprintf("%v", merr))
	testutils.AssertEqual(t, `"[err 1; err 2]"`, fmt.Sprintf("%q", merr))
	testutils.AssertEqual(t, "*elog.MultiError{err 1; err 2}", fmt.Sprintf("%#v", merr))
	testutils.AssertEqual(t,
		"multiple errors:\n\n* error 1 of 2: err 1\n* error 2 of 2: err 2\n",
		fmt.Sprintf("%+v", merr))

	testutils.AssertEqual(t, "empty errors: []", fmt.Sprintf("%+v", &MultiError{}))
}

func TestSinkErrorWithoutError(t *testing.T) {
	testutils.AssertNil(t, sinkErr(sinkClient, nil))
}
