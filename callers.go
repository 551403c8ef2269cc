package elog

import "github.com/secureworks/elog/internal/runtime"

// Caller returns the Frame of the function calling Caller.
func Caller() Frame {
	return getFrame(3)
}

// CallerAt returns the Frame skipCallers levels above the function
// calling CallerAt. Helpers that raise reports on behalf of their caller
// pass 1 so the report names the caller as its origin:
//
//	func mustOpen(c *elog.Context, path string) {
//	    c.ReportAt(elog.Error, elog.CallerAt(1), "", elog.Msg("could not open %s", path))
//	}
func CallerAt(skipCallers int) Frame {
	return getFrame(skipCallers + 3)
}

// CallStackAt returns the stack of the function calling CallStackAt,
// leaving out the innermost skipCallers frames. It holds at most
// runtime.MaxStackDepth frames.
func CallStackAt(skipCallers int) Frames {
	return getStack(skipCallers + 3).Frames()
}

//go:noinline
func getFrame(skipCallers int) *frame {
	return frameOf(runtime.GetFrame(skipCallers))
}

//go:noinline
func getStack(skipCallers int) frames {
	st := runtime.GetStack(skipCallers)
	ff := make(frames, len(st))
	for i, fr := range st {
		ff[i] = frameOf(fr)
	}
	return ff
}
