package elog

import (
	"strings"
	"testing"

	"github.com/secureworks/elog/internal/testutils"
)

func originOf(fr Frame) (function string, file string) {
	function, file, _ = fr.Location()
	return function, file
}

func TestCaller(t *testing.T) {
	function, file := originOf(Caller())

	testutils.AssertTrue(t, strings.HasSuffix(function, ".TestCaller"), function)
	testutils.AssertTrue(t, strings.HasSuffix(file, "/callers_test.go"), file)
}

func raiseFrom() Frame {
	return CallerAt(1)
}

func TestCallerAt(t *testing.T) {
	function, _ := originOf(raiseFrom())
	testutils.AssertTrue(t, strings.HasSuffix(function, ".TestCallerAt"), function)

	function, _ = originOf(CallerAt(0))
	testutils.AssertTrue(t, strings.HasSuffix(function, ".TestCallerAt"), function)
}

func TestCallStackAt(t *testing.T) {
	ff := CallStackAt(0)
	testutils.AssertTrue(t, len(ff) > 1)

	function, _ := originOf(ff[0])
	testutils.AssertTrue(t, strings.HasSuffix(function, ".TestCallStackAt"), function)

	function, _ = originOf(ff[1])
	testutils.AssertEqual(t, "testing.tRunner", function)
}

func TestReportOrigin(t *testing.T) {
	c := newTestContext(t, nil)

	err := c.Try(func() { c.Elog(Error, "here") })

	rec := err.(*Record)
	testutils.AssertEqual(t, "callers_test.go", rec.Filename)
	testutils.AssertTrue(t, strings.HasPrefix(rec.Funcname, "github.com/secureworks/elog.TestReportOrigin"), rec.Funcname)
	testutils.AssertTrue(t, rec.Lineno > 0)
}
