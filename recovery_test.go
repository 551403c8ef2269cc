package elog

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"

	"github.com/secureworks/elog/internal/testutils"
)

func TestProtectReThrowToOuterPoint(t *testing.T) {
	c := newTestContext(t, nil)

	var innerCaught bool
	outerCaught := c.Protect(func() {
		innerCaught = c.Protect(func() {
			c.Report(Error, Code(pgerrcode.DivisionByZero), Msg("division by zero"))
		})
		testutils.AssertEqual(t, 0, c.Depth())
		c.ReThrow()
		t.Error("ReThrow returned")
	})

	testutils.AssertTrue(t, innerCaught)
	testutils.AssertTrue(t, outerCaught)
	rec := c.CopyErrorData()
	testutils.AssertEqual(t, "division by zero", rec.Message)
	testutils.AssertEqual(t, pgerrcode.DivisionByZero, rec.Code)
	c.FlushErrorState()

	testutils.AssertEqual(t, -1, c.Depth())
	testutils.AssertEqual(t, "", c.console.String())
}

func TestProtectPassesForeignPanics(t *testing.T) {
	c := newTestContext(t, nil)

	r := testutils.CapturePanic(func() {
		c.Protect(func() { panic("not ours") })
	})
	testutils.AssertEqual(t, "not ours", r)

	// The recovery point is gone: an ERROR now has nowhere to go.
	r = testutils.CapturePanic(func() { c.Elog(Error, "late") })
	testutils.AssertEqual(t, exited{code: 1}, r)
	testutils.AssertEqual(t, "0 [BACKEND] FATAL:  late\n", c.console.String())
}

func TestReThrowError(t *testing.T) {
	c := newTestContext(t, nil)

	err := c.Try(func() {
		c.Report(Error, Code(pgerrcode.UniqueViolation), Msg("duplicate key"), Detail("Key (id)=(1) already exists."))
	})
	var saved *Record
	testutils.AssertTrue(t, errors.As(err, &saved))
	testutils.AssertEqual(t, -1, c.Depth())

	caught := c.Protect(func() {
		c.ReThrowError(saved)
	})
	testutils.AssertTrue(t, caught)
	testutils.AssertEqual(t, 0, c.Depth())

	got := c.CopyErrorData()
	testutils.AssertEqual(t, pgerrcode.UniqueViolation, got.Code)
	testutils.AssertEqual(t, "duplicate key", got.Message)
	testutils.AssertEqual(t, "Key (id)=(1) already exists.", got.Detail)
	c.FlushErrorState()
}

func TestReThrowErrorRejectsNonErrors(t *testing.T) {
	c := newTestContext(t, nil)

	err := c.Try(func() {
		c.ReThrowError(&Record{Severity: Warning, Message: "only a warning"})
	})
	testutils.AssertErrorMessage(t, "ReThrowError called with severity WARNING", err)
}

func TestReThrowWithoutRecoveryPoint(t *testing.T) {
	c := newTestContext(t, nil)

	caught := c.Protect(func() { c.Elog(Error, "lost") })
	testutils.AssertTrue(t, caught)
	testutils.AssertEqual(t, "", c.console.String())

	r := testutils.CapturePanic(c.ReThrow)
	testutils.AssertEqual(t, exited{code: 1}, r)
	testutils.AssertEqual(t, []int{1}, c.term.exits)
	testutils.AssertEqual(t, "0 [BACKEND] FATAL:  lost\n", c.console.String())
}

func TestCopyErrorDataOutlivesFlush(t *testing.T) {
	c := newTestContext(t, nil)

	caught := c.Protect(func() {
		c.Report(Error, Msg("kept"), Hint("try again"))
	})
	testutils.AssertTrue(t, caught)

	rec := c.CopyErrorData()
	c.FlushErrorState()

	// Reuse the arena with a report of the same size.
	c.Report(Warning, Msg("xxxx"), Hint("xxxxxxxxx"))

	testutils.AssertEqual(t, "kept", rec.Message)
	testutils.AssertEqual(t, "try again", rec.Hint)
}

func TestCopyErrorDataWithoutReport(t *testing.T) {
	c := newTestContext(t, nil)

	err := c.Try(func() {
		c.CopyErrorData()
	})
	testutils.AssertErrorMessage(t, "errstart was not called", err)
}
