package elog

import (
	"fmt"
	"strings"
)

// Severity orders conditions from debug tracing up to process abort.
// The numeric values are part of the contract: ordering comparisons
// decide routing and control flow throughout the package.
type Severity int

const (
	// VerboseMessage forces a report to the client with verbose
	// diagnostics. It is demoted to Info before it is emitted.
	VerboseMessage Severity = 9

	Debug5 Severity = 10
	Debug4 Severity = 11
	Debug3 Severity = 12
	Debug2 Severity = 13
	Debug1 Severity = 14

	// Log is for server operational messages. For the server log it
	// sorts between Error and Fatal; everywhere else it sits here.
	Log Severity = 15

	// CommError reports client communication problems. It is never
	// sent to the client.
	CommError Severity = 16

	Info    Severity = 17
	Notice  Severity = 18
	Warning Severity = 19

	// Error aborts the current statement and unwinds to the nearest
	// recovery point.
	Error Severity = 20

	// Fatal terminates the execution context.
	Fatal Severity = 21

	// Panic aborts the whole process.
	Panic Severity = 22
)

var severityNames = map[Severity]string{
	VerboseMessage: "INFO",
	Debug5:         "DEBUG",
	Debug4:         "DEBUG",
	Debug3:         "DEBUG",
	Debug2:         "DEBUG",
	Debug1:         "DEBUG",
	Log:            "LOG",
	CommError:      "LOG",
	Info:           "INFO",
	Notice:         "NOTICE",
	Warning:        "WARNING",
	Error:          "ERROR",
	Fatal:          "FATAL",
	Panic:          "PANIC",
}

// String returns the label used in log lines and client messages.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "???"
}

var severityByName = map[string]Severity{
	"debug5":  Debug5,
	"debug4":  Debug4,
	"debug3":  Debug3,
	"debug2":  Debug2,
	"debug1":  Debug1,
	"debug":   Debug2,
	"log":     Log,
	"info":    Info,
	"notice":  Notice,
	"warning": Warning,
	"error":   Error,
	"fatal":   Fatal,
	"panic":   Panic,
	"verbose": VerboseMessage,
}

// ParseSeverity maps a configuration name such as "warning" or "debug3"
// onto a Severity. Names are case-insensitive.
func ParseSeverity(name string) (Severity, error) {
	s, ok := severityByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("elog: unknown severity %q", name)
	}
	return s, nil
}

// MarshalText renders the configuration name of the severity.
func (s Severity) MarshalText() ([]byte, error) {
	switch {
	case s >= Debug5 && s <= Debug1:
		return []byte(fmt.Sprintf("debug%d", int(Debug1-s)+1)), nil
	case s == VerboseMessage:
		return []byte("verbose"), nil
	}
	name, ok := severityNames[s]
	if !ok {
		return nil, fmt.Errorf("elog: invalid severity %d", int(s))
	}
	return []byte(strings.ToLower(name)), nil
}

// UnmarshalText accepts the names understood by ParseSeverity.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// IsLogLevelOutput reports whether a message of severity s passes the
// server-log threshold min. Log and CommError are treated as ranking
// between Error and Fatal.
func IsLogLevelOutput(s, min Severity) bool {
	if s == Log || s == CommError {
		if min == Log || min <= Error {
			return true
		}
	} else if min == Log {
		if s >= Fatal {
			return true
		}
	} else if s >= min {
		return true
	}
	return false
}

// SyslogPriority names the syslog priority used for a severity.
type SyslogPriority int

const (
	SyslogDebug SyslogPriority = iota
	SyslogInfo
	SyslogNotice
	SyslogWarning
	SyslogErr
	SyslogCrit
)

func (s Severity) syslogPriority() SyslogPriority {
	switch {
	case s <= Debug1:
		return SyslogDebug
	case s == Log, s == CommError, s == Info:
		return SyslogInfo
	case s == Notice, s == Warning:
		return SyslogNotice
	case s == Error:
		return SyslogWarning
	case s == Fatal:
		return SyslogErr
	default:
		return SyslogCrit
	}
}

// EventClass is the Windows-style event log class of a severity.
type EventClass int

const (
	EventInformation EventClass = iota
	EventWarning
	EventError
)

func (s Severity) eventClass() EventClass {
	switch {
	case s <= Notice:
		return EventInformation
	case s == Warning:
		return EventWarning
	default:
		return EventError
	}
}
