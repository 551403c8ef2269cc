package runtime

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// MaxStackDepth bounds the number of frames collected for a backtrace.
const MaxStackDepth = 64

func GetStack(skip int) []runtime.Frame {
	var pcs [MaxStackDepth]uintptr
	frames, n := callers(skip, pcs[:])
	ff := make([]runtime.Frame, 0, n)
	for {
		fr, ok := frames.Next()
		if !ok {
			break
		}
		ff = append(ff, fr)
	}
	return ff
}

func GetFrame(skip int) runtime.Frame {
	var pcs [3]uintptr
	frames, _ := callers(skip, pcs[:])
	fr, ok := frames.Next()
	if !ok {
		return runtime.Frame{}
	}
	return fr
}

func FuncName(name string) string {
	i := strings.LastIndex(name, string(os.PathSeparator))
	name = name[i+1:]
	i = strings.Index(name, ".")
	return name[i+1:]
}

// FileBase strips any directory components from a source file path.
// Server log lines only ever show the base name.
func FileBase(file string) string {
	if file == "" {
		return ""
	}
	return filepath.Base(file)
}

//go:noinline
func callers(skip int, pcs []uintptr) (frames *runtime.Frames, n int) {
	n = runtime.Callers(skip+1, pcs)
	frames = runtime.CallersFrames(pcs[:n])
	if _, ok := frames.Next(); !ok {
		return &runtime.Frames{}, 0
	}
	return
}
