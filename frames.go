package elog

// Attribution: portions of the below code and documentation are modeled
// directly on the https://github.com/pkg/errors library, used
// with the permission available under the software license
// (BSD 2-Clause):
// https://github.com/pkg/errors/blob/master/LICENSE

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	stdruntime "runtime"
	"strconv"
	"strings"

	"github.com/secureworks/elog/internal/runtime"
)

// Frame is one source location: the origin of a report, or one entry
// of the backtrace attached to a severe report.
//
// Frames format with these verbs:
//
//	"%s"  – base name of the file and the line number, "heapam.go:42"
//	"%q"  – the same as `%s`, quoted
//	"%d"  – the line number
//	"%n"  – the function name without its package path
//	"%v"  – full path of the file and the line number
//	"%+v" – a backtrace entry: the function name on one line, then a
//	        tab and the file and line on a second
//	"%#v" – a Go-syntax form, `elog.Frame("/src/heapam.go:42")`
//
// JSON encoding gives an object:
//
//	{"function":"pkg/storage.heapInsert","file":"/src/heapam.go","line":42}
type Frame interface {
	// Location returns the function, file and line of the frame. Parts
	// that are not known read "unknown" (or 0 for the line).
	Location() (function string, file string, line int)
}

type frame struct {
	function string
	file     string
	line     int
}

var _ interface { // Assert interface implementation.
	Frame
	fmt.Formatter
	json.Marshaler
} = (*frame)(nil)

// NewFrame returns a Frame for a known location. Origins passed to
// BeginAt and frames parsed from a stored backtrace are built this way.
func NewFrame(function string, file string, line int) Frame {
	return &frame{function: function, file: file, line: line}
}

// frameOf copies a frame of the running stack. The runtime has already
// expanded inlined calls into frames of their own.
func frameOf(fr stdruntime.Frame) *frame {
	return &frame{function: fr.Function, file: fr.File, line: fr.Line}
}

func (f *frame) Location() (function string, file string, line int) {
	function, file = f.function, f.file
	if function == "" {
		function = "unknown"
	}
	if file == "" {
		file = "unknown"
	}
	return function, file, f.line
}

func (f *frame) Format(s fmt.State, verb rune) {
	function, file, line := f.Location()
	withLine := func(name string) {
		io.WriteString(s, escaper.Replace(name))
		if line > 0 {
			io.WriteString(s, ":"+strconv.Itoa(line))
		}
	}

	switch verb {
	case 's':
		withLine(filepath.Base(file))
	case 'q':
		io.WriteString(s, `"`)
		withLine(filepath.Base(file))
		io.WriteString(s, `"`)
	case 'd':
		io.WriteString(s, strconv.Itoa(line))
	case 'n':
		io.WriteString(s, escaper.Replace(runtime.FuncName(function)))
	case 'v':
		switch {
		case s.Flag('+'):
			indent := ""
			if width, ok := s.Width(); ok {
				indent = strings.Repeat(" ", width)
			}
			io.WriteString(s, indent+escaper.Replace(function)+"\n"+indent+"\t")
			io.WriteString(s, escaper.Replace(file)+":"+strconv.Itoa(line))
		case s.Flag('#'):
			io.WriteString(s, `elog.Frame("`)
			withLine(file)
			io.WriteString(s, `")`)
		default:
			withLine(file)
		}
	}
}

func (f frame) MarshalJSON() ([]byte, error) {
	function, file, line := f.Location()
	return json.Marshal(struct {
		Function string `json:"function"`
		File     string `json:"file"`
		Line     int    `json:"line"`
	}{function, file, line})
}

// The escaper keeps a printed backtrace parsable: every entry is
// exactly two lines.
var (
	escaper   = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, `"`, `\"`)
	unescaper = strings.NewReplacer(`\t`, "\t", `\n`, "\n", `\"`, `"`, `\\`, `\`)
)

// Frames is a backtrace, innermost call first.
type Frames []Frame

var _ interface { // Assert interface implementation.
	fmt.Formatter
	json.Marshaler
} = (Frames)(nil)

// Format prints each frame with the same verb. With %+v every frame
// starts on a new line, which is the form stored in Record.Backtrace.
func (ff Frames) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		for _, f := range ff {
			io.WriteString(s, "\n")
			formatFrame(s, f, verb)
		}
		return
	}
	left, right := "[", "]"
	if verb == 'v' && s.Flag('#') {
		io.WriteString(s, "elog.Frames")
		left, right = "{", "}"
		verb = 's'
	}
	io.WriteString(s, left)
	for i, f := range ff {
		if i > 0 {
			io.WriteString(s, " ")
		}
		formatFrame(s, f, verb)
	}
	io.WriteString(s, right)
}

// formatFrame prints frames from other implementations through their
// own Formatter when they have one, and by location otherwise.
func formatFrame(s fmt.State, f Frame, verb rune) {
	if fm, ok := f.(fmt.Formatter); ok {
		fm.Format(s, verb)
		return
	}
	function, file, line := f.Location()
	(&frame{function: function, file: file, line: line}).Format(s, verb)
}

func (ff Frames) MarshalJSON() ([]byte, error) {
	if len(ff) == 0 {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, fr := range ff {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := json.Marshal(fr)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// frames is a stack captured by this package.
type frames []*frame

func (ff frames) Frames() Frames {
	out := make(Frames, len(ff))
	for i, f := range ff {
		out[i] = f
	}
	return out
}

var (
	errIncompleteFrame = errors.New("incomplete frame data")
	errMalformedFrame  = errors.New("malformed frame data")
)

// FramesFromBytes parses a backtrace printed with %+v back into Frames.
// Leading and trailing whitespace is ignored, as is a single line of
// text ahead of the first frame. On error the frames parsed so far are
// returned along with it.
func FramesFromBytes(byt []byte) (Frames, error) {
	byt = bytes.TrimSpace(byt)
	if len(byt) == 0 {
		return nil, nil
	}

	lines := strings.Split(string(byt), "\n")
	// A message line is followed by a function line, not a file line.
	if len(lines) > 2 && !strings.HasPrefix(lines[1], "\t") && strings.HasPrefix(lines[2], "\t") {
		lines = lines[1:]
	}

	var ff Frames
	for len(lines) >= 2 {
		function := strings.TrimSpace(lines[0])
		file := strings.TrimSpace(lines[1])
		var line int
		if i := strings.LastIndexByte(file, ':'); i > 0 {
			n, err := strconv.Atoi(file[i+1:])
			if err != nil {
				return ff, fmt.Errorf("%w: %q: bad line number", errMalformedFrame, lines[1])
			}
			file, line = file[:i], n
		}
		ff = append(ff, NewFrame(unescaper.Replace(function), unescaper.Replace(file), line))
		lines = lines[2:]
	}
	if len(lines) > 0 {
		return ff, fmt.Errorf("%w: %q", errIncompleteFrame, lines[0])
	}
	return ff, nil
}
