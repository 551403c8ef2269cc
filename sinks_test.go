package elog

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jackc/pgerrcode"

	"github.com/secureworks/elog/internal/logpipe"
	"github.com/secureworks/elog/internal/testutils"
)

func portSession() Session {
	return Session{
		ApplicationName: "psql",
		Port: &Port{
			User:       "alice",
			Database:   "db",
			RemoteHost: "10.0.0.1",
			RemotePort: "5432",
		},
		PID:       testPID,
		StartTime: testStart,
		SessionID: 9,
		BackendID: 3,
		LocalXID:  7,
		QueryID:   11,
	}
}

func TestLinePrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeName = "dn1"
	cfg.LinePrefix = "%a %u %d %r %h %p %l %c %m|%s %v %x %e %n %S %% %q%z|"
	c := newTestContext(t, cfg, WithSession(portSession()))

	c.Report(Warning, Msg("hi"))

	testutils.AssertEqual(t,
		"psql alice db 10.0.0.1(5432) 10.0.0.1 4242 1 65000000.1092 2024-01-02 03:04:05.006 UTC|"+
			"2023-09-12 06:06:56 UTC 3/7 0 01000 dn1 9 % |"+
			"11 [BACKEND] WARNING:  hi\n",
		c.console.String())
}

func TestLinePrefixWithoutPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LinePrefix = "%a %u %r %h %v %q%d|"
	c := newTestContext(t, cfg)

	c.Report(Warning, Msg("hi"))

	testutils.AssertEqual(t, "[unknown] [unknown] localhost localhost 0/0 0 [BACKEND] WARNING:  hi\n", c.console.String())
}

func TestLinePrefixCountsLines(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LinePrefix = "%l|"
	c := newTestContext(t, cfg)

	c.Report(Warning, Msg("one"), Detail("two"))
	c.Report(Warning, Msg("three"))

	testutils.AssertEqual(t,
		"1|0 [BACKEND] WARNING:  one\n"+
			"2|0 [BACKEND] DETAIL:  two\n"+
			"3|0 [BACKEND] WARNING:  three\n",
		c.console.String())
}

func TestStandalonePrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Standalone = true
	c := newTestContext(t, cfg, WithSession(portSession()))

	c.Report(Warning, Msg("hi"))

	testutils.AssertEqual(t, "[BACKEND] WARNING:  hi\n", c.console.String())
}

func TestMultiLineFieldsAreIndented(t *testing.T) {
	c := newTestContext(t, nil)

	c.Report(Warning, Msg("first\nsecond"), Hint("a\nb"))

	testutils.AssertEqual(t,
		"0 [BACKEND] WARNING:  first\n\tsecond\n"+
			"0 [BACKEND] HINT:  a\n\tb\n",
		c.console.String())
}

// readPipe reassembles every message written to a collector pipe.
func readPipe(t *testing.T, pipe *bytes.Buffer) []logpipe.Message {
	t.Helper()
	r := logpipe.NewReader(pipe)
	var msgs []logpipe.Message
	for {
		msg, err := r.Next()
		if errors.Is(err, io.EOF) {
			return msgs
		}
		if err != nil {
			t.Fatalf("reading collector pipe: %v", err)
		}
		msgs = append(msgs, msg)
	}
}

func TestRedirectedOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeName = "dn1"
	cfg.Destination = DestStderr | DestCSVLog
	pipe := new(bytes.Buffer)
	console := new(bytes.Buffer)
	c := newTestContext(t, cfg,
		WithSession(portSession()),
		WithOutput(&Output{Console: console, Collector: pipe}),
	)
	c.SetDebugQuery("SELECT * FROM t")

	err := c.Exec(func() {
		c.Report(Error,
			Code(pgerrcode.UndefinedTable),
			Msg(`relation "t" does not exist`),
			Position(15),
		)
	})
	testutils.AssertNotNil(t, err)
	testutils.AssertEqual(t, "", console.String())

	msgs := readPipe(t, pipe)
	testutils.AssertEqual(t, 2, len(msgs))

	testutils.AssertEqual(t, logpipe.KindStderr, msgs[0].Kind)
	testutils.AssertEqual(t, int64(testPID), msgs[0].PID)
	testutils.AssertEqual(t,
		"11 [BACKEND] ERROR:  relation \"t\" does not exist at character 15\n"+
			"11 [BACKEND] STATEMENT:  SELECT * FROM t\n",
		string(msgs[0].Data))

	testutils.AssertEqual(t, logpipe.KindCSV, msgs[1].Kind)
	testutils.AssertEqual(t,
		`2024-01-02 03:04:05.006 UTC,"dn1","alice","db",4242,"10.0.0.1:5432",65000000.1092,1,,`+
			`2023-09-12 06:06:56 UTC,3/7,0,11,"BACKEND",ERROR,42P01,"relation ""t"" does not exist",`+
			`,,,,,"SELECT * FROM t",15,,"psql"`+"\n",
		string(msgs[1].Data))
}

func TestCSVLocationWhenVerbose(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Destination = DestCSVLog
	cfg.ErrorVerbosity = VerbosityVerbose
	pipe := new(bytes.Buffer)
	c := newTestContext(t, cfg, WithOutput(&Output{Collector: pipe}))

	c.ReportAt(Warning, NewFrame("heap_insert", "heapam.go", 42), "", Msg("x"))

	msgs := readPipe(t, pipe)
	testutils.AssertEqual(t, 1, len(msgs))
	testutils.AssertTrue(t, strings.HasSuffix(string(msgs[0].Data), `,"heap_insert,heapam.go:42",`+"\n"),
		string(msgs[0].Data))
}

func TestCSVWithoutCollectorFallsBackToText(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Destination = DestCSVLog
	c := newTestContext(t, cfg)

	c.Report(Warning, Msg("not lost"))

	testutils.AssertEqual(t, "0 [BACKEND] WARNING:  not lost\n", c.console.String())
}

func TestLongMessagesAreChunked(t *testing.T) {
	pipe := new(bytes.Buffer)
	c := newTestContext(t, nil, WithOutput(&Output{Collector: pipe}))

	long := strings.Repeat("z", 3*logpipe.MaxPayload)
	c.Report(Warning, Msg("%s", long))

	testutils.AssertTrue(t, pipe.Len() > 3*logpipe.ChunkSize)
	msgs := readPipe(t, pipe)
	testutils.AssertEqual(t, 1, len(msgs))
	testutils.AssertEqual(t, "0 [BACKEND] WARNING:  "+long+"\n", string(msgs[0].Data))
}

func TestCollectorFailureFallsBackToConsole(t *testing.T) {
	console := new(bytes.Buffer)
	m := NewMetrics(nil)
	c := newTestContext(t, nil,
		WithOutput(&Output{Console: console, Collector: failingWriter{}}),
		WithMetrics(m),
	)

	c.Report(Warning, Msg("rescued"))

	testutils.AssertEqual(t, "0 [BACKEND] WARNING:  rescued\n", console.String())
	testutils.AssertEqual(t, 1.0, counterValue(m.sinkErrors.WithLabelValues(sinkStderr)))
}

type syslogEntry struct {
	pri string
	msg string
}

type fakeSyslog struct {
	entries []syslogEntry
	closed  int
}

func (f *fakeSyslog) add(pri, m string) error {
	f.entries = append(f.entries, syslogEntry{pri, m})
	return nil
}

func (f *fakeSyslog) Debug(m string) error   { return f.add("debug", m) }
func (f *fakeSyslog) Info(m string) error    { return f.add("info", m) }
func (f *fakeSyslog) Notice(m string) error  { return f.add("notice", m) }
func (f *fakeSyslog) Warning(m string) error { return f.add("warning", m) }
func (f *fakeSyslog) Err(m string) error     { return f.add("err", m) }
func (f *fakeSyslog) Crit(m string) error    { return f.add("crit", m) }
func (f *fakeSyslog) Close() error           { f.closed++; return nil }

func TestSyslogDestination(t *testing.T) {
	w := new(fakeSyslog)
	var dials []string
	dial := func(ident, facility string) (SyslogWriter, error) {
		dials = append(dials, ident+"/"+facility)
		return w, nil
	}

	cfg := DefaultConfig()
	cfg.Destination = DestSyslog
	sl := NewSyslog(dial)
	console := new(bytes.Buffer)
	c := newTestContext(t, cfg, WithOutput(&Output{Console: console, Syslog: sl}))

	c.Report(Warning, Msg("hello"))
	err := c.Exec(func() { c.Report(Error, Msg("bad")) })
	testutils.AssertNotNil(t, err)

	testutils.AssertEqual(t, "", console.String())
	testutils.AssertEqual(t, []string{"postgres/local0"}, dials)
	testutils.AssertEqual(t, []syslogEntry{
		{"notice", "[1-1] 0 [BACKEND] WARNING:  hello"},
		{"warning", "[2-1] 0 [BACKEND] ERROR:  bad"},
	}, w.entries)
	testutils.AssertEqual(t, uint64(2), sl.Sequence())

	// A new ident reopens the connection.
	cfg.SyslogIdent = "dn1"
	c.Report(Warning, Msg("again"))
	testutils.AssertEqual(t, 1, w.closed)
	testutils.AssertEqual(t, []string{"postgres/local0", "dn1/local0"}, dials)
}

func TestSyslogDialFailure(t *testing.T) {
	m := NewMetrics(nil)
	cfg := DefaultConfig()
	cfg.Destination = DestSyslog | DestStderr
	sl := NewSyslog(func(string, string) (SyslogWriter, error) {
		return nil, errors.New("no syslog daemon")
	})
	console := new(bytes.Buffer)
	c := newTestContext(t, cfg, WithOutput(&Output{Console: console, Syslog: sl}), WithMetrics(m))

	c.Report(Warning, Msg("still logged"))

	testutils.AssertEqual(t, "0 [BACKEND] WARNING:  still logged\n", console.String())
	testutils.AssertEqual(t, 1.0, counterValue(m.sinkErrors.WithLabelValues(sinkSyslog)))
}

func TestSyslogChunks(t *testing.T) {
	t.Run("short single line", func(t *testing.T) {
		chunks, split := syslogChunks("hello")
		testutils.AssertFalse(t, split)
		testutils.AssertEqual(t, []string{"hello"}, chunks)
	})

	t.Run("multiple lines", func(t *testing.T) {
		chunks, split := syslogChunks("one\ntwo\n\nthree\n")
		testutils.AssertTrue(t, split)
		testutils.AssertEqual(t, []string{"one", "two", "three"}, chunks)
	})

	t.Run("cut at spaces", func(t *testing.T) {
		line := strings.Repeat("word ", 400)
		chunks, split := syslogChunks(line)
		testutils.AssertTrue(t, split)
		testutils.AssertEqual(t, 3, len(chunks))
		for _, ch := range chunks {
			testutils.AssertTrue(t, len(ch) <= syslogLimit)
		}
		testutils.AssertEqual(t, 899, len(chunks[0]))
		testutils.AssertEqual(t, line, strings.Join(chunks, ""))
	})

	t.Run("whole characters", func(t *testing.T) {
		line := "x" + strings.Repeat("é", 600)
		chunks, split := syslogChunks(line)
		testutils.AssertTrue(t, split)
		testutils.AssertEqual(t, 2, len(chunks))
		testutils.AssertEqual(t, 899, len(chunks[0]))
		for _, ch := range chunks {
			testutils.AssertTrue(t, utf8.ValidString(ch))
		}
		testutils.AssertEqual(t, line, strings.Join(chunks, ""))
	})
}

type fakeEventLog struct {
	calls []string
}

func (f *fakeEventLog) Info(msg string) error {
	f.calls = append(f.calls, "info: "+msg)
	return nil
}

func (f *fakeEventLog) Warning(msg string) error {
	f.calls = append(f.calls, "warning: "+msg)
	return nil
}

func (f *fakeEventLog) Error(msg string) error {
	f.calls = append(f.calls, "error: "+msg)
	return nil
}

func TestEventLogDestination(t *testing.T) {
	el := new(fakeEventLog)
	cfg := DefaultConfig()
	cfg.Destination = DestEventLog
	cfg.LogMinMessages = Info
	c := newTestContext(t, cfg, WithOutput(&Output{EventLog: el}))

	c.Report(Info, Msg("a"))
	c.Report(Warning, Msg("b"))
	_ = c.Exec(func() { c.Report(Error, Msg("c")) })

	testutils.AssertEqual(t, []string{
		"info: 0 [BACKEND] INFO:  a\n",
		"warning: 0 [BACKEND] WARNING:  b\n",
		"error: 0 [BACKEND] ERROR:  c\n",
	}, el.calls)
}

func TestModuleGating(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogMinMessages = Debug5
	c := newTestContext(t, cfg)

	c.Report(Debug1, InModule(ModuleStorage), Msg("hidden"))
	c.Report(Debug1, Msg("default module"))
	c.Report(Log, InModule(ModuleStorage), Msg("always"))

	cfg.Modules = []string{"storage"}
	c.Report(Debug1, InModule(ModuleStorage), Msg("shown"))

	testutils.AssertEqual(t,
		"0 [BACKEND] DEBUG:  default module\n"+
			"0 [STORAGE] LOG:  always\n"+
			"0 [STORAGE] DEBUG:  shown\n",
		c.console.String())
}

func TestParseModule(t *testing.T) {
	m, ok := ParseModule("wlm")
	testutils.AssertTrue(t, ok)
	testutils.AssertEqual(t, ModuleWorkload, m)

	_, ok = ParseModule("nope")
	testutils.AssertFalse(t, ok)
	testutils.AssertEqual(t, "UNKNOWN", Module(99).String())
}
