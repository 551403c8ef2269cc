package elog

import (
	"strconv"
	"time"
)

// Port describes the client connection of a session.
type Port struct {
	User       string
	Database   string
	RemoteHost string
	RemotePort string
}

// Session carries the identity fields rendered into log line prefixes
// and CSV rows. Every field is optional.
type Session struct {
	ApplicationName string
	Port            *Port
	PID             int64
	StartTime       time.Time
	SessionID       uint64
	BackendID       int
	LocalXID        uint32
	QueryID         uint64

	// TopXID returns the current top-level transaction id, or 0.
	TopXID func() uint64

	// PSDisplay returns the current activity string.
	PSDisplay func() string
}

func (s *Session) user() string {
	if s.Port == nil {
		return ""
	}
	return s.Port.User
}

func (s *Session) database() string {
	if s.Port == nil {
		return ""
	}
	return s.Port.Database
}

func (s *Session) remoteHost() string {
	if s.Port == nil {
		return ""
	}
	return s.Port.RemoteHost
}

// remoteHostPort renders host and port the way the CSV log does.
func (s *Session) remoteHostPort() string {
	if s.Port == nil || s.Port.RemoteHost == "" {
		return ""
	}
	if s.Port.RemotePort == "" {
		return s.Port.RemoteHost
	}
	return s.Port.RemoteHost + ":" + s.Port.RemotePort
}

func (s *Session) xid() uint64 {
	if s.TopXID == nil {
		return 0
	}
	return s.TopXID()
}

func (s *Session) psDisplay() string {
	if s.PSDisplay == nil {
		return ""
	}
	return s.PSDisplay()
}

// vxid is the virtual transaction id, "backendId/localXid".
func (s *Session) vxid() string {
	if s.BackendID <= 0 {
		return ""
	}
	return strconv.Itoa(s.BackendID) + "/" + strconv.FormatUint(uint64(s.LocalXID), 10)
}

// sessionTag is "<hex start seconds>.<hex pid>".
func (s *Session) sessionTag() string {
	return strconv.FormatInt(s.StartTime.Unix(), 16) + "." + strconv.FormatInt(s.PID, 16)
}
