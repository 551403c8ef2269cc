package elog

// Field keys used in the core's own diagnostics.
const (
	fieldSubsys   = "subsys"
	fieldPID      = "pid"
	fieldKind     = "kind"
	fieldSink     = "sink"
	fieldSeverity = "severity"
	fieldSQLState = "sqlstate"
	fieldExitCode = "exitCode"
	fieldIdent    = "ident"
	fieldFacility = "facility"
)

// Sink names, as used in log fields and the sink error metric.
const (
	sinkStderr   = "stderr"
	sinkCSV      = "csvlog"
	sinkSyslog   = "syslog"
	sinkEventLog = "eventlog"
	sinkClient   = "client"
	sinkConsole  = "console"
)
