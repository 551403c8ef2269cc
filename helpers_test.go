package elog

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgproto3"
)

var (
	testNow   = time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	testStart = time.Unix(0x65000000, 0)
)

const testPID = 4242

// exited is what fakeTerminator panics with in place of ending the
// process.
type exited struct {
	code int
}

type fakeTerminator struct {
	exits  []int
	aborts int
}

func (f *fakeTerminator) Exit(code int) {
	f.exits = append(f.exits, code)
	panic(exited{code: code})
}

func (f *fakeTerminator) Abort() {
	f.aborts++
	panic(exited{code: 134})
}

type testContext struct {
	*Context
	console *bytes.Buffer
	term    *fakeTerminator
}

func newTestContext(t *testing.T, cfg *Config, opts ...Option) *testContext {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	tc := &testContext{console: new(bytes.Buffer), term: new(fakeTerminator)}
	base := []Option{
		WithOutput(&Output{Console: tc.console}),
		WithTerminator(tc.term),
		WithClock(func() time.Time { return testNow }),
		WithSession(Session{PID: testPID, StartTime: testStart}),
	}
	tc.Context = New(cfg, append(base, opts...)...)
	return tc
}

// recordingFrontend keeps every message sent to the client.
type recordingFrontend struct {
	sent    []pgproto3.BackendMessage
	flushes int
	failing bool
}

func (f *recordingFrontend) Send(msg pgproto3.BackendMessage) {
	f.sent = append(f.sent, msg)
}

func (f *recordingFrontend) Flush() error {
	f.flushes++
	if f.failing {
		return errors.New("connection reset by peer")
	}
	return nil
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }
