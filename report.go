package elog

// Field fills in part of a report. Fields are applied in order between
// Begin and Finish.
type Field func(c *Context)

// Report raises a report at sev built from fields, taking the caller
// as its origin:
//
//	ctx.Report(elog.Error,
//	    elog.Code(pgerrcode.UndefinedTable),
//	    elog.Msg("relation %q does not exist", name),
//	)
//
// Report returns only for severities below ERROR; see Finish.
func (c *Context) Report(sev Severity, fields ...Field) {
	if !c.begin(sev, CallerAt(1), "") {
		return
	}
	for _, f := range fields {
		f(c)
	}
	c.Finish()
}

// ReportAt is Report with an explicit origin and message domain.
func (c *Context) ReportAt(sev Severity, origin Frame, domain string, fields ...Field) {
	if !c.begin(sev, origin, domain) {
		return
	}
	for _, f := range fields {
		f(c)
	}
	c.Finish()
}

// Elog raises a report with an untranslated message and the default
// SQLSTATE for sev. It is meant for internal conditions that need no
// more than a message.
func (c *Context) Elog(sev Severity, format string, args ...interface{}) {
	if !c.begin(sev, CallerAt(1), "") {
		return
	}
	c.MsgInternal(format, args...)
	c.Finish()
}

func Msg(format string, args ...interface{}) Field {
	return func(c *Context) { c.Msg(format, args...) }
}

func MsgInternal(format string, args ...interface{}) Field {
	return func(c *Context) { c.MsgInternal(format, args...) }
}

func MsgPlural(singular, plural string, n int, args ...interface{}) Field {
	return func(c *Context) { c.MsgPlural(singular, plural, n, args...) }
}

func Detail(format string, args ...interface{}) Field {
	return func(c *Context) { c.Detail(format, args...) }
}

func DetailInternal(format string, args ...interface{}) Field {
	return func(c *Context) { c.DetailInternal(format, args...) }
}

func DetailLog(format string, args ...interface{}) Field {
	return func(c *Context) { c.DetailLog(format, args...) }
}

func DetailPlural(singular, plural string, n int, args ...interface{}) Field {
	return func(c *Context) { c.DetailPlural(singular, plural, n, args...) }
}

func Hint(format string, args ...interface{}) Field {
	return func(c *Context) { c.Hint(format, args...) }
}

func ErrContext(format string, args ...interface{}) Field {
	return func(c *Context) { c.ErrContext(format, args...) }
}

func HideStatement(hide bool) Field {
	return func(c *Context) { c.HideStatement(hide) }
}

func Position(pos int) Field {
	return func(c *Context) { c.Position(pos) }
}

func InternalPosition(pos int) Field {
	return func(c *Context) { c.InternalPosition(pos) }
}

func InternalQuery(query string) Field {
	return func(c *Context) { c.InternalQuery(query) }
}

func Code(code string) Field {
	return func(c *Context) { c.Code(code) }
}

func CodeForFileAccess() Field {
	return func(c *Context) { c.CodeForFileAccess() }
}

func CodeForSocketAccess() Field {
	return func(c *Context) { c.CodeForSocketAccess() }
}

// InModule tags the report with the subsystem raising it.
func InModule(m Module) Field {
	return func(c *Context) { c.Module(m) }
}

func HandleInClient(handle bool) Field {
	return func(c *Context) { c.HandleInClient(handle) }
}

func IgnoreInterrupt(ignore bool) Field {
	return func(c *Context) { c.IgnoreInterrupt(ignore) }
}
