package elog

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
)

// appendWithTabs writes s, indenting every continuation line with a
// tab so multi-line fields stay visually attached to their entry.
func appendWithTabs(buf *bytes.Buffer, s string) {
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			buf.WriteString(s)
			return
		}
		buf.WriteString(s[:i+1])
		buf.WriteByte('\t')
		s = s[i+1:]
	}
}

// printStatement reports whether the statement being executed belongs
// in the log entry for rec.
func (c *Context) printStatement(rec *Record) bool {
	return IsLogLevelOutput(rec.Severity, c.cfg.LogMinErrorStatement) &&
		c.debugQuery != "" && !rec.HideStmt
}

// location renders the origin of rec as "func, file:line", or
// "file:line" without a function name.
func location(rec *Record, sep string) string {
	if rec.Filename == "" {
		return ""
	}
	fileLine := rec.Filename + ":" + strconv.Itoa(rec.Lineno)
	if rec.Funcname == "" {
		return fileLine
	}
	return rec.Funcname + sep + fileLine
}

// writeTextReport renders the server log entry for rec.
func (c *Context) writeTextReport(buf *bytes.Buffer, rec *Record) {
	verbosity := c.cfg.ErrorVerbosity

	c.writeLinePrefix(buf, rec)
	buf.WriteString(rec.Severity.String())
	buf.WriteString(":  ")
	if verbosity >= VerbosityVerbose {
		buf.WriteString(rec.Code)
		buf.WriteString(": ")
	}
	appendWithTabs(buf, rec.Error())
	if rec.CursorPos > 0 {
		buf.WriteString(" at character ")
		buf.WriteString(strconv.Itoa(rec.CursorPos))
	} else if rec.InternalPos > 0 {
		buf.WriteString(" at character ")
		buf.WriteString(strconv.Itoa(rec.InternalPos))
	}
	buf.WriteByte('\n')

	line := func(label, text string) {
		c.writeLinePrefix(buf, rec)
		buf.WriteString(label)
		appendWithTabs(buf, text)
		buf.WriteByte('\n')
	}

	if verbosity >= VerbosityDefault {
		if rec.DetailLog != "" {
			line("DETAIL:  ", rec.DetailLog)
		} else if rec.Detail != "" {
			line("DETAIL:  ", rec.Detail)
		}
		if rec.Hint != "" {
			line("HINT:  ", rec.Hint)
		}
		if rec.InternalQuery != "" {
			line("QUERY:  ", c.MaskQuery(rec.InternalQuery))
		}
		if rec.Context != "" {
			line("CONTEXT:  ", rec.Context)
		}
		if verbosity >= VerbosityVerbose {
			if loc := location(rec, ", "); loc != "" {
				line("LOCATION:  ", loc)
			}
		}
	}

	if c.printStatement(rec) {
		stmt := c.MaskQuery(c.debugQuery)
		if rec.Code == pgerrcode.SyntaxError {
			// A syntax error may be an attempt to inject fake log lines.
			stmt = strings.ReplaceAll(stmt, "\n", "*")
		}
		line("STATEMENT:  ", stmt)
	}

	if rec.Backtrace != "" {
		line("BACKTRACELOG:  ", rec.Backtrace)
	}
}
