package arena

import (
	"strings"
	"testing"

	"github.com/secureworks/elog/internal/testutils"
)

func TestArenaString(t *testing.T) {
	a := New(64)

	t.Run("copies input", func(t *testing.T) {
		src := []byte("relation foo does not exist")
		got := a.String(string(src))
		src[0] = 'X'
		testutils.AssertEqual(t, "relation foo does not exist", got)
	})

	t.Run("empty string allocates nothing", func(t *testing.T) {
		before := a.Allocated()
		testutils.AssertEqual(t, "", a.String(""))
		testutils.AssertEqual(t, before, a.Allocated())
	})

	t.Run("large requests get their own chunk", func(t *testing.T) {
		big := strings.Repeat("x", 200)
		chunks := a.Chunks()
		testutils.AssertEqual(t, big, a.String(big))
		testutils.AssertEqual(t, chunks+1, a.Chunks())
	})
}

func TestArenaConcat(t *testing.T) {
	a := New(0)
	got := a.Concat("line one", "\n", "line two")
	testutils.AssertEqual(t, "line one\nline two", got)
	testutils.AssertEqual(t, len(got), a.Allocated())
	testutils.AssertEqual(t, "", a.Concat("", ""))
}

func TestArenaReset(t *testing.T) {
	a := New(32)
	kept := a.String("abandoned text")
	for i := 0; i < 10; i++ {
		a.String("filler")
	}
	testutils.AssertTrue(t, a.Chunks() > 1)

	a.Reset()
	testutils.AssertEqual(t, 0, a.Allocated())
	testutils.AssertEqual(t, 0, a.Chunks())
	testutils.AssertEqual(t, 1, a.Resets())

	// New allocations never reuse memory behind an escaped view.
	for i := 0; i < 10; i++ {
		a.String("overwrite")
	}
	testutils.AssertEqual(t, "abandoned text", kept)
}

func TestArenaBytes(t *testing.T) {
	a := New(16)
	b := a.Bytes(4)
	testutils.AssertEqual(t, 4, len(b))
	testutils.AssertEqual(t, 4, cap(b))
	testutils.AssertNil(t, a.Bytes(0))
}
