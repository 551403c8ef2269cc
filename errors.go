package elog

// Attribution: portions of the below code and documentation are
// modeled directly on the https://github.com/pkg/errors library, used
// with the permission available under the software license
// (BSD 2-Clause):
// https://github.com/pkg/errors/blob/master/LICENSE

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/secureworks/elog/internal/runtime"
)

// framer is implemented by errors that carry the call site they were
// created or annotated at.
type framer interface {
	Frames() Frames
}

// withFrames implements an error type annotated with a list of frames.
type withFrames struct {
	error  error
	frames frames
}

var _ interface { // Assert interface implementation.
	error
	framer
	Unwrap() error
	fmt.Formatter
} = (*withFrames)(nil)

// WithFrame adds the caller's frame to err by wrapping it. FromError
// uses the innermost such frame as the origin of the report.
func WithFrame(err error) error {
	if err == nil {
		return nil
	}
	return &withFrames{
		error:  err,
		frames: frames{getFrame(3)},
	}
}

func (w *withFrames) Error() string { return w.error.Error() }

func (w *withFrames) Unwrap() error { return w.error }

// Frames returns the frames on this error only; FramesFrom collects
// them across a whole chain.
func (w *withFrames) Frames() Frames {
	return w.frames.Frames()
}

func (w *withFrames) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%v", w.error)
			FramesFrom(w).Format(s, verb)
			return
		}
		if s.Flag('#') {
			fmt.Fprintf(s, "&elog.withFrames{%q}", w.error)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, w.Error())
	case 'q':
		fmt.Fprintf(s, "%q", w.Error())
	default:
		// empty
	}
}

// FramesFrom extracts all the Frames annotated across an error chain,
// innermost first.
func FramesFrom(err error) (ff Frames) {
	for err != nil {
		if framesErr, ok := err.(framer); ok {
			ff = prependFrames(ff, framesErr.Frames())
		}
		err = errors.Unwrap(err)
	}
	return
}

func prependFrames(slice Frames, frames Frames) Frames {
	slice = append(slice, frames...)
	copy(slice[len(frames):], slice)
	copy(slice, frames)
	return slice
}

// sqlStater is implemented by errors that carry a SQLSTATE, such as
// *pgconn.PgError and *Record.
type sqlStater interface {
	SQLState() string
}

// FromError fills in the report from a Go error:
//
//   - the message is the error text;
//   - the SQLSTATE is taken from the first error in the chain that has
//     one, and the detail, hint, context and positions too when that
//     error is a server error received over the wire;
//   - an OS error number in the chain becomes the saved errno, so %m
//     and CodeForFileAccess see it;
//   - the innermost frame added with WithFrame becomes the origin.
//
// A nil error leaves the report alone.
func FromError(err error) Field {
	return func(c *Context) {
		if err == nil {
			return
		}
		rec := c.checkStack()

		var errno syscall.Errno
		if errors.As(err, &errno) {
			rec.SavedErrno = errno
		}
		rec.MessageID = ""
		rec.Message = c.arena.String(err.Error())

		var pgErr *pgconn.PgError
		var other *Record
		var coder sqlStater
		switch {
		case errors.As(err, &pgErr):
			rec.Message = c.arena.String(pgErr.Message)
			rec.Code = pgErr.Code
			rec.Detail = c.arena.String(pgErr.Detail)
			rec.Hint = c.arena.String(pgErr.Hint)
			rec.Context = c.arena.String(pgErr.Where)
			rec.CursorPos = int(pgErr.Position)
			rec.InternalPos = int(pgErr.InternalPosition)
			rec.InternalQuery = c.arena.String(pgErr.InternalQuery)
		case errors.As(err, &other):
			rec.Code = other.Code
			rec.Detail = c.arena.String(other.Detail)
			rec.Hint = c.arena.String(other.Hint)
			rec.Context = c.arena.String(other.Context)
		case errors.As(err, &coder):
			if code := coder.SQLState(); validCode(code) {
				rec.Code = code
			}
		}

		if ff := FramesFrom(err); len(ff) > 0 {
			function, file, line := ff[0].Location()
			rec.Filename = c.arena.String(runtime.FileBase(file))
			rec.Lineno = line
			rec.Funcname = c.arena.String(function)
		}
	}
}
