package elog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"syscall"
)

// Record is one condition's structured data: the frame built between
// Begin and Finish, and the snapshot handed to recovery code.
//
// While a Record sits on a Context's error stack its text fields are
// views into that context's scratch arena. Clone produces a copy that
// owns its text and may outlive the stack entry.
type Record struct {
	Severity Severity
	Code     string

	Message       string
	Detail        string
	DetailLog     string
	Hint          string
	Context       string
	InternalQuery string

	CursorPos   int
	InternalPos int

	Filename string
	Lineno   int
	Funcname string

	Module    Module
	MessageID string
	Domain    string

	OutputToServer bool
	OutputToClient bool

	Backtrace  string
	SavedErrno syscall.Errno

	HideStmt        bool
	Verbose         bool
	IgnoreInterrupt bool
	HandleInClient  bool
}

var _ interface { // Assert interface implementation.
	error
	fmt.Formatter
	json.Marshaler
	framer
} = (*Record)(nil)

// Clone returns a deep copy of r whose strings do not share memory with
// any arena.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Code = strings.Clone(r.Code)
	c.Message = strings.Clone(r.Message)
	c.Detail = strings.Clone(r.Detail)
	c.DetailLog = strings.Clone(r.DetailLog)
	c.Hint = strings.Clone(r.Hint)
	c.Context = strings.Clone(r.Context)
	c.InternalQuery = strings.Clone(r.InternalQuery)
	c.Filename = strings.Clone(r.Filename)
	c.Funcname = strings.Clone(r.Funcname)
	c.MessageID = strings.Clone(r.MessageID)
	c.Domain = strings.Clone(r.Domain)
	c.Backtrace = strings.Clone(r.Backtrace)
	return &c
}

// clearText drops every text field. It is used when the arena backing
// an in-progress frame is abandoned.
func (r *Record) clearText() {
	r.Message, r.Detail, r.DetailLog, r.Hint = "", "", "", ""
	r.Context, r.InternalQuery, r.MessageID, r.Backtrace = "", "", "", ""
}

// Error returns the primary message.
func (r *Record) Error() string {
	if r.Message == "" {
		return "missing error text"
	}
	return r.Message
}

// SQLState returns the status code. The method name matches the one
// used by pgconn.PgError so callers can classify either kind of error
// through the same interface.
func (r *Record) SQLState() string { return r.Code }

// Frame returns the origin of the report, or nil when none was
// recorded.
func (r *Record) Frame() Frame {
	if r.Filename == "" && r.Funcname == "" {
		return nil
	}
	return NewFrame(r.Funcname, r.Filename, r.Lineno)
}

// Frames returns the parsed backtrace if one is attached, otherwise the
// origin alone.
func (r *Record) Frames() Frames {
	if r.Backtrace != "" {
		if ff, err := FramesFromBytes([]byte(r.Backtrace)); err == nil && len(ff) > 0 {
			return ff
		}
	}
	if fr := r.Frame(); fr != nil {
		return Frames{fr}
	}
	return nil
}

// Format prints the message for %s and %v. With %+v it prints the
// severity, status code, and the auxiliary fields on their own lines,
// followed by the backtrace.
func (r *Record) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s:  %s (SQLSTATE %s)", r.Severity, r.Error(), r.Code)
			for _, f := range []struct{ label, value string }{
				{"DETAIL", r.Detail},
				{"HINT", r.Hint},
				{"CONTEXT", r.Context},
			} {
				if f.value != "" {
					fmt.Fprintf(s, "\n%s:  %s", f.label, f.value)
				}
			}
			if r.Backtrace != "" {
				io.WriteString(s, "\n")
				io.WriteString(s, strings.TrimLeft(r.Backtrace, "\n"))
			}
			return
		}
		if s.Flag('#') {
			fmt.Fprintf(s, "&elog.Record{%s %q %q}", r.Severity, r.Code, r.Message)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, r.Error())
	case 'q':
		fmt.Fprintf(s, "%q", r.Error())
	default:
		// empty
	}
}

type recordJSON struct {
	Severity      string `json:"severity"`
	Code          string `json:"sqlstate"`
	Message       string `json:"message"`
	Detail        string `json:"detail,omitempty"`
	Hint          string `json:"hint,omitempty"`
	Context       string `json:"context,omitempty"`
	InternalQuery string `json:"internal_query,omitempty"`
	CursorPos     int    `json:"position,omitempty"`
	InternalPos   int    `json:"internal_position,omitempty"`
	Module        string `json:"module"`
	Location      Frame  `json:"location,omitempty"`
}

// MarshalJSON encodes the client-visible fields of the record. The
// log-only detail is left out.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Severity:      r.Severity.String(),
		Code:          r.Code,
		Message:       r.Error(),
		Detail:        r.Detail,
		Hint:          r.Hint,
		Context:       r.Context,
		InternalQuery: r.InternalQuery,
		CursorPos:     r.CursorPos,
		InternalPos:   r.InternalPos,
		Module:        r.Module.String(),
		Location:      r.Frame(),
	})
}
