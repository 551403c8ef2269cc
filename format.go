package elog

// Attribution: portions of the below code and documentation are modeled
// directly on the github.com/dominikh/go-tools/blob/master/printf
// package, used with the permission available under the software
// license (MIT):
// https://github.com/dominikh/go-tools/blob/master/LICENSE

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"syscall"
)

// formatMessage renders a report text. %m is replaced by the text of
// errno before the format is checked, and a format that does not match
// its arguments is rendered literally with a marker instead of the
// usual fmt noise.
func formatMessage(format string, errno syscall.Errno, args []interface{}) string {
	format = expandErrno(format, errno)
	verbs, err := parseFormatString(format, len(args))
	if err != nil {
		return format + " %!(elog: " + err.Error() + ")"
	}
	if len(args) == 0 {
		return strings.ReplaceAll(format, "%%", "%")
	}

	g := new(formatGuard)
	guarded := make([]interface{}, len(args))
	copy(guarded, args)
	for _, v := range verbs {
		if v.letter == 'T' || v.letter == 'p' {
			continue
		}
		switch args[v.idx].(type) {
		case fmt.Formatter, error, fmt.Stringer:
			guarded[v.idx] = guardedArg{arg: args[v.idx], g: g}
		}
	}
	s := fmt.Sprintf(format, guarded...)
	if g.caught != nil {
		panic(g.caught)
	}
	return s
}

// formatGuard holds an unwind or termination raised by an argument's
// formatting method. fmt recovers panics from those methods, so the
// unwind is carried past it and raised again once Sprintf returns.
type formatGuard struct {
	caught interface{}
}

func (g *formatGuard) catch() {
	r := recover()
	if r == nil {
		return
	}
	switch r.(type) {
	case *unwindSignal, terminated:
		if g.caught == nil {
			g.caught = r
		}
	default:
		panic(r)
	}
}

// guardedArg formats arg the way fmt would, with its methods called
// under g.
type guardedArg struct {
	arg interface{}
	g   *formatGuard
}

func (a guardedArg) Format(s fmt.State, verb rune) {
	if a.g.caught != nil {
		return
	}
	spec := fmt.FormatString(s, verb)
	if v := reflect.ValueOf(a.arg); v.Kind() == reflect.Pointer && v.IsNil() {
		fmt.Fprintf(s, spec, a.arg)
		return
	}
	defer a.g.catch()

	if f, ok := a.arg.(fmt.Formatter); ok {
		f.Format(s, verb)
		return
	}
	if (verb == 'v' && s.Flag('#')) || !strings.ContainsRune("vsxXq", verb) {
		fmt.Fprintf(s, spec, a.arg)
		return
	}
	var text string
	switch v := a.arg.(type) {
	case error:
		text = v.Error()
	case fmt.Stringer:
		text = v.String()
	}
	fmt.Fprintf(s, spec, text)
}

// expandErrno replaces each %m in format with the text of errno, with
// any % in that text doubled so it survives formatting.
func expandErrno(format string, errno syscall.Errno) string {
	if !strings.Contains(format, "%m") {
		return format
	}
	var b strings.Builder
	b.Grow(len(format) + 32)
	var msg string
	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '%' || i+1 == len(format) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch format[i] {
		case 'm':
			if msg == "" {
				msg = strings.ReplaceAll(strerror(errno), "%", "%%")
			}
			b.WriteString(msg)
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}

type fmtVerb struct {
	letter rune
	flags  string

	// Which value in the argument list the verb uses:
	//   * -1 denotes the next argument,
	//   * >0 denote explicit arguments,
	//   * 0 denotes that no argument is consumed, ie: %%. This will not be returned.
	value int

	// Similar to above: take into account argument indices used in either
	// place. When a literal will be 0.
	width, prec int

	// The 0-indexed argument this verb is associated with.
	idx int

	raw string
}

// parseFormatString parses f and returns the verbs that consume
// arguments, failing if any of them refers past the end of the
// argument list.
//
// Argument indices combined with star precisions are not fully
// understood; formats like that are best avoided in report text.
func parseFormatString(f string, numValues int) (verbs []fmtVerb, err error) {
	var nextValueIndex int
	for len(f) > 0 {
		if f[0] == '%' {
			v, n, err := parseVerb(f)
			if err != nil {
				return nil, err
			}
			f = f[n:]
			if v.value != 0 {
				if v.width > numValues || v.prec > numValues {
					return nil, errors.New("invalid format string: not enough arguments")
				}
				if v.value == -1 {
					v.idx = nextValueIndex
					nextValueIndex++
				} else {
					// Argument indices are one-indexed.
					v.idx = v.value - 1
					nextValueIndex = v.value
				}
				if v.idx >= numValues {
					return nil, errors.New("invalid format string: not enough arguments")
				}
				verbs = append(verbs, v)
			}
		} else {
			n := strings.IndexByte(f, '%')
			if n > -1 {
				f = f[n:]
			} else {
				f = ""
			}
		}
	}
	return verbs, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// parseVerb parses the verb at the beginning of f. It returns the verb,
// how much of the input was consumed, and an error, if any.
func parseVerb(f string) (fmtVerb, int, error) {
	if len(f) < 2 {
		return fmtVerb{}, 0, errors.New("invalid format string: trailing %")
	}
	const (
		flags      = 1
		widthStar  = 3
		widthIndex = 5
		dot        = 6
		precStar   = 8
		precIndex  = 10
		verbIndex  = 11
		verb       = 12
	)

	m := verbRE.FindStringSubmatch(f)
	if m == nil {
		return fmtVerb{}, 0, errors.New("invalid format string")
	}

	v := fmtVerb{
		letter: []rune(m[verb])[0],
		flags:  m[flags],
		raw:    m[0],
	}

	if m[widthStar] != "" {
		if m[widthIndex] != "" {
			v.width = atoi(m[widthIndex])
		} else {
			v.width = -1
		}
	}

	if m[dot] != "" && m[precStar] != "" {
		if m[precIndex] != "" {
			v.prec = atoi(m[precIndex])
		} else {
			v.prec = -1
		}
	}

	if m[verb] == "%" {
		v.value = 0
	} else if m[verbIndex] != "" {
		idx := atoi(m[verbIndex])
		if idx <= 0 || idx > 128 {
			return fmtVerb{}, 0, errors.New("invalid format string: bad argument index")
		}
		v.value = idx
	} else {
		v.value = -1
	}

	return v, len(m[0]), nil
}

const (
	flagsRE             = `([+#0 -]*)`
	verbLetterRE        = `([a-zA-Z%])`
	indexRE             = `(?:\[([0-9]+)\])`
	starRE              = `((` + indexRE + `)?\*)`
	width1RE            = `([0-9]+)`
	widthRE             = `(?:` + width1RE + `|` + starRE + `)`
	widthAndPrecisionRE = `(?:(?:` + widthRE + `)?(?:(\.)(?:` + widthRE + `)?)?)`
)

var verbRE = regexp.MustCompile(`^%` + flagsRE + widthAndPrecisionRE + `?` + indexRE + `?` + verbLetterRE)
