package elog

import (
	"bytes"
	"strconv"
	"time"
)

const (
	logTimeLayout   = "2006-01-02 15:04:05.000 MST"
	startTimeLayout = "2006-01-02 15:04:05 MST"
)

// stamp returns the time of the report being written. It is taken once
// per report so every destination shows the same time.
func (c *Context) stamp() time.Time {
	if c.logTime.IsZero() {
		c.logTime = c.now()
	}
	return c.logTime.In(c.cfg.loc())
}

func (c *Context) startTime() string {
	return c.session.StartTime.In(c.cfg.loc()).Format(startTimeLayout)
}

func orUnknown(s string) string {
	if s == "" {
		return "[unknown]"
	}
	return s
}

// writeLinePrefix expands Config.LinePrefix for rec into buf. Each call
// counts as one log line.
func (c *Context) writeLinePrefix(buf *bytes.Buffer, rec *Record) {
	s := &c.session
	if c.linePID != s.PID {
		c.lineNumber = 0
		c.linePID = s.PID
	}
	c.lineNumber++

	format := c.cfg.LinePrefix
	hasPort := s.Port != nil
loop:
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			buf.WriteByte(format[i])
			continue
		}
		i++
		if i >= len(format) {
			break
		}
		switch format[i] {
		case 'a':
			if hasPort {
				buf.WriteString(orUnknown(s.ApplicationName))
			} else {
				buf.WriteString("[unknown]")
			}
		case 'u':
			buf.WriteString(orUnknown(s.user()))
		case 'd':
			buf.WriteString(orUnknown(s.database()))
		case 'c':
			buf.WriteString(s.sessionTag())
		case 'p':
			buf.WriteString(strconv.FormatInt(s.PID, 10))
		case 'l':
			buf.WriteString(strconv.Itoa(c.lineNumber))
		case 'm':
			buf.WriteString(c.stamp().Format(logTimeLayout))
		case 't':
			buf.WriteString(c.stamp().Format(startTimeLayout))
		case 's':
			buf.WriteString(c.startTime())
		case 'i':
			if hasPort {
				buf.WriteString(s.psDisplay())
			} else {
				buf.WriteString("[unknown]")
			}
		case 'r':
			if hasPort && s.Port.RemoteHost != "" {
				buf.WriteString(s.Port.RemoteHost)
				if s.Port.RemotePort != "" {
					buf.WriteByte('(')
					buf.WriteString(s.Port.RemotePort)
					buf.WriteByte(')')
				}
			} else {
				buf.WriteString("localhost")
			}
		case 'h':
			if h := s.remoteHost(); h != "" {
				buf.WriteString(h)
			} else {
				buf.WriteString("localhost")
			}
		case 'q':
			// Everything after %q is for session contexts only.
			if !hasPort {
				break loop
			}
		case 'v':
			if v := s.vxid(); v != "" {
				buf.WriteString(v)
			} else {
				buf.WriteString("0/0")
			}
		case 'x':
			buf.WriteString(strconv.FormatUint(s.xid(), 10))
		case 'e':
			buf.WriteString(rec.Code)
		case 'n':
			buf.WriteString(c.cfg.NodeName)
		case 'S':
			buf.WriteString(strconv.FormatUint(s.SessionID, 10))
		case '%':
			buf.WriteByte('%')
		default:
			// Unknown escapes print nothing.
		}
	}

	if !c.cfg.Standalone {
		buf.WriteString(strconv.FormatUint(s.QueryID, 10))
		buf.WriteByte(' ')
	}
	buf.WriteByte('[')
	buf.WriteString(rec.Module.String())
	buf.WriteString("] ")
}
