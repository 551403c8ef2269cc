package elog

import (
	"bytes"
	"errors"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/secureworks/elog/internal/arena"
)

// StackSize is the number of report frames an execution context can
// nest. Running out is unrecoverable.
const StackSize = 5

// OutputDest says where client-bound messages go.
type OutputDest int

const (
	DestNone OutputDest = iota
	DestRemote
)

// Output is the set of process-wide writers shared by every Context.
type Output struct {
	// Console receives direct, unbuffered writes. It is used for
	// stderr output before a log collector is attached and as the
	// fallback when the collector pipe fails.
	Console io.Writer

	// Collector is the pipe to the external log collector. A nil
	// Collector means output redirection has not happened yet.
	Collector io.Writer

	// Syslog is the process-wide syslog handle.
	Syslog *Syslog

	// EventLog receives reports when DestEventLog is enabled.
	EventLog EventLogger
}

func (o *Output) redirected() bool { return o.Collector != nil }

// DefaultOutput writes to the process's standard error and the shared
// syslog handle.
func DefaultOutput() *Output {
	return &Output{Console: os.Stderr, Syslog: DefaultSyslog}
}

// Context is the per-connection or per-worker execution context. It
// owns the error stack, the scratch arena, the recovery points and the
// callback chain; none of these are shared, and a Context must only be
// used by the goroutine that owns it.
type Context struct {
	cfg      *Config
	kind     Kind
	session  Session
	out      *Output
	term     Terminator
	log      logrus.FieldLogger
	metrics  *Metrics
	tr       Translator
	frontend Frontend
	protocol int
	dest     OutputDest
	now      func() time.Time

	stack      [StackSize]Record
	depth      int
	recursion  int
	arena      *arena.Arena
	points     []*recoveryPoint
	callbacks  *callback
	debugQuery string
	masking    bool
	errno      syscall.Errno

	// Interrupt and critical section bookkeeping. The error core only
	// reads these, except that an ERROR unwind clears them.
	InterruptHoldoffCount   int
	QueryCancelHoldoffCount int
	CritSectionCount        int
	ImmediateInterruptOK    bool

	// ProcExitInProgress is set once the context has started exiting;
	// an ERROR raised after that point is promoted to FATAL.
	ProcExitInProgress bool

	// ClientAuthInProgress limits client output to ERROR and above
	// while the client is not yet authenticated.
	ClientAuthInProgress bool

	// TestErrType is a test hook: a value of 3 or more makes the next
	// ERROR-level Begin raise a nested internal error first.
	TestErrType int

	flushImmediately bool
	logTime          time.Time
	lineNumber       int
	linePID          int64
	csvLineNumber    int
	csvLinePID       int64
	buf              bytes.Buffer
	exitHooks        []func(code int)
}

// Option configures a Context.
type Option func(*Context)

// WithKind sets the role of the owning thread of control.
func WithKind(k Kind) Option {
	return func(c *Context) { c.kind = k }
}

// WithSession sets the identity fields used in log prefixes.
func WithSession(s Session) Option {
	return func(c *Context) { c.session = s }
}

// WithOutput replaces the process-wide writers.
func WithOutput(o *Output) Option {
	return func(c *Context) { c.out = o }
}

// WithTerminator replaces the FATAL and PANIC actions.
func WithTerminator(t Terminator) Option {
	return func(c *Context) { c.term = t }
}

// WithLogger sets the logger used for the core's own diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Context) { c.log = l }
}

// WithMetrics enables report and sink counters.
func WithMetrics(m *Metrics) Option {
	return func(c *Context) { c.metrics = m }
}

// WithTranslator sets the message catalog.
func WithTranslator(t Translator) Option {
	return func(c *Context) { c.tr = t }
}

// WithFrontend attaches a client connection speaking the given protocol
// major version and routes client output to it.
func WithFrontend(f Frontend, protocolVersion int) Option {
	return func(c *Context) {
		c.frontend = f
		c.protocol = protocolVersion
		c.dest = DestRemote
	}
}

// WithClock replaces the time source used for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.WarnLevel)
	return l
}

// New returns an execution context reading thresholds from cfg. A nil
// cfg selects DefaultConfig.
func New(cfg *Config, opts ...Option) *Context {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := &Context{
		cfg:   cfg,
		depth: -1,
		arena: arena.New(0),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.out == nil {
		c.out = DefaultOutput()
	}
	if c.term == nil {
		c.term = ProcessTerminator{}
	}
	if c.log == nil {
		c.log = discardLogger()
	}
	if c.session.PID == 0 {
		c.session.PID = int64(os.Getpid())
	}
	if c.session.StartTime.IsZero() {
		c.session.StartTime = c.now()
	}
	c.log = c.log.WithFields(logrus.Fields{
		fieldSubsys: "elog",
		fieldPID:    c.session.PID,
		fieldKind:   c.kind.String(),
	})
	return c
}

// Config returns the thresholds the context reads.
func (c *Context) Config() *Config { return c.cfg }

// SetConfig swaps in a reloaded configuration.
func (c *Context) SetConfig(cfg *Config) { c.cfg = cfg }

// Session returns the identity fields of the context.
func (c *Context) Session() *Session { return &c.session }

// Kind returns the role of the context.
func (c *Context) Kind() Kind { return c.kind }

// Depth returns the index of the top error frame, or -1 when the stack
// is empty.
func (c *Context) Depth() int { return c.depth }

// RecursionDepth returns the re-entrancy counter.
func (c *Context) RecursionDepth() int { return c.recursion }

// InRecursionTrouble reports whether error processing has re-entered
// itself often enough that auxiliary work should be skipped.
func (c *Context) InRecursionTrouble() bool { return c.recursion > 2 }

// SetDebugQuery records the statement currently being executed. It is
// logged (masked) alongside errors.
func (c *Context) SetDebugQuery(q string) { c.debugQuery = q }

// DebugQuery returns the statement currently being executed.
func (c *Context) DebugQuery() string { return c.debugQuery }

// SetErrno saves the OS error number reported by the next Begin. It
// accepts any error wrapping a syscall.Errno; other errors clear it.
func (c *Context) SetErrno(err error) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		c.errno = errno
		return
	}
	c.errno = 0
}

// SetDestination changes where client-bound messages go.
func (c *Context) SetDestination(d OutputDest) { c.dest = d }

// OnExit registers cleanup run before a FATAL report terminates the
// context. Hooks run in reverse order of registration.
func (c *Context) OnExit(fn func(code int)) {
	c.exitHooks = append(c.exitHooks, fn)
}

// callback is one link of the error context callback chain.
type callback struct {
	fn   func()
	prev *callback
}

// PushCallback registers fn to run while any report is being finished;
// fn typically calls ErrContext to describe what the caller was doing.
// The returned function unregisters it and must be called in LIFO
// order.
func (c *Context) PushCallback(fn func()) (pop func()) {
	cb := &callback{fn: fn, prev: c.callbacks}
	c.callbacks = cb
	return func() { c.callbacks = cb.prev }
}

// top returns the frame field calls act on.
func (c *Context) top() *Record {
	if c.depth < 0 {
		return nil
	}
	return &c.stack[c.depth]
}

// abandonFrames drops the text of every frame still on the stack. It
// runs when the arena is reset underneath them.
func (c *Context) abandonFrames() {
	c.arena.Reset()
	for i := 0; i <= c.depth; i++ {
		c.stack[i].clearText()
	}
}
