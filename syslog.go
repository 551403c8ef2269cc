package elog

import (
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// syslogLimit is the longest piece of a message handed to syslog in
// one call. Many syslog implementations mangle longer lines.
const syslogLimit = 900

// SyslogWriter is the part of a syslog connection the core uses. The
// standard library's *syslog.Writer satisfies it.
type SyslogWriter interface {
	Debug(m string) error
	Info(m string) error
	Notice(m string) error
	Warning(m string) error
	Err(m string) error
	Crit(m string) error
	Close() error
}

// SyslogDialer opens a syslog connection.
type SyslogDialer func(ident, facility string) (SyslogWriter, error)

// Syslog is a lazily opened syslog connection shared by every context
// of the process.
type Syslog struct {
	mu       sync.Mutex
	dial     SyslogDialer
	w        SyslogWriter
	ident    string
	facility string
	seq      uint64
}

// DefaultSyslog is the connection used by DefaultOutput.
var DefaultSyslog = NewSyslog(nil)

// NewSyslog returns a connection that is opened with dial on first
// use. A nil dial connects to the local syslog daemon.
func NewSyslog(dial SyslogDialer) *Syslog {
	if dial == nil {
		dial = dialLocalSyslog
	}
	return &Syslog{dial: dial, ident: DefaultDomain, facility: "local0"}
}

// SetSyslogParameters changes the ident and facility of
// DefaultSyslog.
func SetSyslogParameters(ident, facility string) {
	DefaultSyslog.SetParameters(ident, facility)
}

// SetParameters changes the ident and facility. An open connection is
// closed, to be reopened on the next write, only if either changed.
func (s *Syslog) SetParameters(ident, facility string) {
	if ident == "" {
		ident = DefaultDomain
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ident == s.ident && facility == s.facility {
		return
	}
	if s.w != nil {
		_ = s.w.Close()
		s.w = nil
	}
	s.ident = ident
	s.facility = facility
}

// Sequence returns the number of messages written so far.
func (s *Syslog) Sequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Write sends line at the given priority. Every message gets a
// sequence number so identical consecutive messages are not collapsed.
// Long or multi-line messages go out in numbered pieces.
func (s *Syslog) Write(pri SyslogPriority, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		w, err := s.dial(s.ident, s.facility)
		if err != nil {
			return err
		}
		s.w = w
	}

	s.seq++
	seq := strconv.FormatUint(s.seq, 10)
	chunks, split := syslogChunks(line)
	if !split {
		return s.send(pri, "["+seq+"] "+line)
	}
	for i, chunk := range chunks {
		if err := s.send(pri, "["+seq+"-"+strconv.Itoa(i+1)+"] "+chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *Syslog) send(pri SyslogPriority, m string) error {
	switch pri {
	case SyslogDebug:
		return s.w.Debug(m)
	case SyslogInfo:
		return s.w.Info(m)
	case SyslogNotice:
		return s.w.Notice(m)
	case SyslogWarning:
		return s.w.Warning(m)
	case SyslogErr:
		return s.w.Err(m)
	default:
		return s.w.Crit(m)
	}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// syslogChunks splits line into pieces of at most syslogLimit bytes,
// one line each. Pieces never split a UTF-8 character and are cut at a
// space when one is available. split is false when line can be sent
// as it is.
func syslogChunks(line string) (chunks []string, split bool) {
	if len(line) <= syslogLimit && strings.IndexByte(line, '\n') < 0 {
		return []string{line}, false
	}
	for len(line) > 0 {
		if line[0] == '\n' {
			line = line[1:]
			continue
		}
		n := strings.IndexByte(line, '\n')
		if n < 0 {
			n = len(line)
		}
		if n > syslogLimit {
			n = syslogLimit
		}
		for n > 0 && n < len(line) && !utf8.RuneStart(line[n]) {
			n--
		}
		if n <= 0 {
			break
		}
		if n < len(line) && !isSpace(line[n]) {
			i := n - 1
			for i > 0 && !isSpace(line[i]) {
				i--
			}
			if i > 0 {
				n = i
			}
		}
		chunks = append(chunks, line[:n])
		line = line[n:]
	}
	return chunks, true
}

// writeSyslog sends a server log entry to the process syslog
// connection, applying the configured ident and facility first.
func (c *Context) writeSyslog(sev Severity, text string) error {
	if c.out.Syslog == nil {
		return nil
	}
	c.out.Syslog.SetParameters(c.cfg.SyslogIdent, c.cfg.SyslogFacility)
	return c.out.Syslog.Write(sev.syslogPriority(), text)
}

// EventLogger receives server log entries when DestEventLog is set.
type EventLogger interface {
	Info(msg string) error
	Warning(msg string) error
	Error(msg string) error
}

func writeEventLog(el EventLogger, sev Severity, msg string) error {
	switch sev.eventClass() {
	case EventInformation:
		return el.Info(msg)
	case EventWarning:
		return el.Warning(msg)
	default:
		return el.Error(msg)
	}
}
