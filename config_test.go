package elog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/secureworks/elog/internal/testutils"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	testutils.AssertEqual(t, Warning, cfg.LogMinMessages)
	testutils.AssertEqual(t, Notice, cfg.ClientMinMessages)
	testutils.AssertEqual(t, Error, cfg.LogMinErrorStatement)
	testutils.AssertEqual(t, Panic, cfg.BacktraceMinMessages)
	testutils.AssertEqual(t, VerbosityDefault, cfg.ErrorVerbosity)
	testutils.AssertEqual(t, DestStderr, cfg.Destination)
	testutils.AssertEqual(t, 8, cfg.PasswordMinLength)
	testutils.AssertTrue(t, cfg.retryable(pgerrcode.SerializationFailure))
	testutils.AssertFalse(t, cfg.retryable(pgerrcode.UndefinedTable))
	testutils.AssertNil(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`
log_min_messages: debug2
client_min_messages: ERROR
log_min_error_statement: warning
error_verbosity: verbose
log_destination: "stderr, csvlog"
log_line_prefix: "%m [%p] "
password_min_length: 12
log_timezone: UTC
node_name: dn1
stmt_retry: true
retry_codes: ["40001", "57014"]
modules: [storage, wlm]
log_file:
  path: /var/log/elog/server.log
  max_size_mb: 5
  compress: true
`))
	testutils.AssertNil(t, err)

	testutils.AssertEqual(t, Debug2, cfg.LogMinMessages)
	testutils.AssertEqual(t, Error, cfg.ClientMinMessages)
	testutils.AssertEqual(t, Warning, cfg.LogMinErrorStatement)
	testutils.AssertEqual(t, VerbosityVerbose, cfg.ErrorVerbosity)
	testutils.AssertEqual(t, DestStderr|DestCSVLog, cfg.Destination)
	testutils.AssertEqual(t, "%m [%p] ", cfg.LinePrefix)
	testutils.AssertEqual(t, 12, cfg.PasswordMinLength)
	testutils.AssertEqual(t, "dn1", cfg.NodeName)
	testutils.AssertTrue(t, cfg.StmtRetry)
	testutils.AssertTrue(t, cfg.retryable("57014"))
	testutils.AssertFalse(t, cfg.retryable(pgerrcode.DeadlockDetected))
	testutils.AssertTrue(t, cfg.moduleEnabled(ModuleWorkload))
	testutils.AssertFalse(t, cfg.moduleEnabled(ModuleExecutor))
	testutils.AssertEqual(t, &FileConfig{Path: "/var/log/elog/server.log", MaxSizeMB: 5, Compress: true}, cfg.LogFile)
	testutils.AssertEqual(t, time.UTC, cfg.loc())
}

func TestLoadEmptyConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	testutils.AssertNil(t, err)
	testutils.AssertEqual(t, DefaultConfig(), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string]string{
		"unknown field":     "log_level: debug\n",
		"unknown severity":  "log_min_messages: loud\n",
		"unknown verbosity": "error_verbosity: chatty\n",
		"unknown dest":      "log_destination: stderr,pager\n",
		"no mask width":     "password_min_length: 0\n",
		"bad time zone":     "log_timezone: Not/AZone\n",
		"bad retry code":    "retry_codes: [nope]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(strings.NewReader(doc))
			testutils.AssertNotNil(t, err)
			testutils.AssertTrue(t, strings.HasPrefix(err.Error(), "elog: "), err.Error())
		})
	}
}

func TestConfigText(t *testing.T) {
	text, err := (DestSyslog | DestStderr).MarshalText()
	testutils.AssertNil(t, err)
	testutils.AssertEqual(t, "stderr,syslog", string(text))

	var d Destination
	testutils.AssertNil(t, d.UnmarshalText([]byte(" CSVLOG , eventlog ,")))
	testutils.AssertEqual(t, DestCSVLog|DestEventLog, d)

	text, err = VerbosityTerse.MarshalText()
	testutils.AssertNil(t, err)
	testutils.AssertEqual(t, "terse", string(text))

	var v Verbosity
	testutils.AssertNil(t, v.UnmarshalText([]byte("")))
	testutils.AssertEqual(t, VerbosityDefault, v)
}

func TestLogTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogTimezone = "Etc/GMT-2"
	cfg.location = nil
	if err := cfg.Validate(); err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}
	cfg.LinePrefix = "%m "
	c := newTestContext(t, cfg)

	c.Report(Warning, Msg("x"))

	testutils.AssertEqual(t, "2024-01-02 05:04:05.006 +02 0 [BACKEND] WARNING:  x\n", c.console.String())
}

func TestOpenConfiguredLogFile(t *testing.T) {
	testutils.AssertNil(t, OpenConfiguredLogFile(DefaultConfig()))

	path := filepath.Join(t.TempDir(), "server.log")
	cfg := DefaultConfig()
	cfg.LogFile = &FileConfig{Path: path, MaxBackups: 3}

	w := OpenConfiguredLogFile(cfg)
	lj, ok := w.(*lumberjack.Logger)
	testutils.AssertTrue(t, ok)
	testutils.AssertEqual(t, 100, lj.MaxSize)
	testutils.AssertEqual(t, 3, lj.MaxBackups)

	c := newTestContext(t, cfg, WithOutput(&Output{Console: w}))
	c.Report(Warning, Msg("to the file"))
	testutils.AssertNil(t, w.Close())

	byt, err := os.ReadFile(path)
	testutils.AssertNil(t, err)
	testutils.AssertEqual(t, "0 [BACKEND] WARNING:  to the file\n", string(byt))
}

func TestOpenLogFileOptions(t *testing.T) {
	w := OpenLogFile("/tmp/elog.log", WithMaxSize(7), WithMaxAge(2), WithMaxBackups(4), EnableLocalTime(), EnableCompression())

	testutils.AssertEqual(t, &lumberjack.Logger{
		Filename:   "/tmp/elog.log",
		MaxSize:    7,
		MaxAge:     2,
		MaxBackups: 4,
		LocalTime:  true,
		Compress:   true,
	}, w)
}
