package elog

import (
	"errors"
	"math"
	"strconv"

	"github.com/jackc/pgx/v5/pgproto3"
)

// Frontend is the client end of a session's connection, as seen by the
// server. *pgproto3.Backend satisfies it.
type Frontend interface {
	Send(msg pgproto3.BackendMessage)
	Flush() error
}

// moduleField is the ErrorResponse field code carrying the module name.
const moduleField = 'd'

// sendToClient sends rec to the connected client as an ErrorResponse
// (or NoticeResponse below ERROR).
func (c *Context) sendToClient(rec *Record) error {
	if c.frontend == nil {
		return nil
	}

	var msg pgproto3.BackendMessage
	if c.protocol >= 3 {
		resp := c.clientResponse(rec)
		if rec.Severity < Error {
			notice := pgproto3.NoticeResponse(*resp)
			msg = &notice
		} else {
			msg = resp
		}
	} else {
		msg = legacyMessage(rec)
	}
	c.frontend.Send(msg)

	if c.cfg.StmtRetry && rec.Severity < Error && !c.flushImmediately {
		// Notices wait for the next flush, so a statement that is
		// retried can still take them back.
		return nil
	}
	return c.frontend.Flush()
}

func (c *Context) clientResponse(rec *Record) *pgproto3.ErrorResponse {
	message := rec.Error()
	if rec.Verbose && rec.Message != "" {
		message += " (" + c.cfg.NodeName + " pid=" + strconv.FormatInt(c.session.PID, 10) + ")"
	}
	resp := &pgproto3.ErrorResponse{
		Severity:            rec.Severity.String(),
		SeverityUnlocalized: rec.Severity.String(),
		Code:                rec.Code,
		Message:             message,
		Detail:              rec.Detail,
		Hint:                rec.Hint,
		Where:               rec.Context,
		Position:            wirePosition(rec.CursorPos),
		InternalPosition:    wirePosition(rec.InternalPos),
		UnknownFields:       map[byte]string{moduleField: rec.Module.String()},
	}
	if rec.InternalQuery != "" {
		resp.InternalQuery = c.MaskQuery(rec.InternalQuery)
	}
	addSourceFields(resp, rec)
	return resp
}

// wirePosition converts a character position for the wire. Positions
// that do not fit the field are left out.
func wirePosition(pos int) int32 {
	if pos <= 0 || pos > math.MaxInt32 {
		return 0
	}
	return int32(pos)
}

var errBadLegacyMessage = errors.New("elog: legacy message is not NUL terminated")

// legacyResponse is the single-string error message of protocol
// versions before 3.
type legacyResponse struct {
	typ  byte
	text string
}

func legacyMessage(rec *Record) *legacyResponse {
	typ := byte('E')
	if rec.Severity < Error {
		typ = 'N'
	}
	text := rec.Severity.String() + ":  " + rec.Error()
	if rec.CursorPos > 0 {
		text += " at character " + strconv.Itoa(rec.CursorPos)
	} else if rec.InternalPos > 0 {
		text += " at character " + strconv.Itoa(rec.InternalPos)
	}
	return &legacyResponse{typ: typ, text: text + "\n"}
}

// Backend identifies this message as sent by the backend.
func (*legacyResponse) Backend() {}

// Decode reads the NUL terminated text of a message body.
func (m *legacyResponse) Decode(src []byte) error {
	if len(src) == 0 || src[len(src)-1] != 0 {
		return errBadLegacyMessage
	}
	m.text = string(src[:len(src)-1])
	return nil
}

// Encode writes the type byte followed by the NUL terminated text.
// Old-style messages carry no length word.
func (m *legacyResponse) Encode(dst []byte) ([]byte, error) {
	dst = append(dst, m.typ)
	dst = append(dst, m.text...)
	return append(dst, 0), nil
}
