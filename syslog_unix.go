//go:build unix

package elog

import (
	"fmt"
	"log/syslog"
	"strings"
)

var syslogFacilities = map[string]syslog.Priority{
	"user":   syslog.LOG_USER,
	"daemon": syslog.LOG_DAEMON,
	"local0": syslog.LOG_LOCAL0,
	"local1": syslog.LOG_LOCAL1,
	"local2": syslog.LOG_LOCAL2,
	"local3": syslog.LOG_LOCAL3,
	"local4": syslog.LOG_LOCAL4,
	"local5": syslog.LOG_LOCAL5,
	"local6": syslog.LOG_LOCAL6,
	"local7": syslog.LOG_LOCAL7,
}

func dialLocalSyslog(ident, facility string) (SyslogWriter, error) {
	f, ok := syslogFacilities[strings.ToLower(facility)]
	if !ok {
		return nil, fmt.Errorf("elog: unknown syslog facility %q", facility)
	}
	w, err := syslog.New(f|syslog.LOG_INFO, ident)
	if err != nil {
		return nil, err
	}
	return w, nil
}
