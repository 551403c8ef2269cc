package elog

// The methods in this file fill in the report started by the last
// successful Begin. Calling one with no report in progress raises an
// internal error.

// text renders format for the top frame, translating it first when
// asked to and when the context is healthy enough to try.
func (c *Context) text(rec *Record, translate bool, format string, args []interface{}) string {
	c.recursion++
	if translate && c.tr != nil && !c.InRecursionTrouble() {
		format = c.tr.Translate(rec.Domain, format)
	}
	s := c.arena.String(formatMessage(format, rec.SavedErrno, args))
	c.recursion--
	return s
}

func (c *Context) pluralText(rec *Record, singular, plural string, n int, args []interface{}) string {
	c.recursion++
	var format string
	if c.tr != nil && !c.InRecursionTrouble() {
		format = c.tr.TranslatePlural(rec.Domain, singular, plural, n)
	} else if n == 1 {
		format = singular
	} else {
		format = plural
	}
	s := c.arena.String(formatMessage(format, rec.SavedErrno, args))
	c.recursion--
	return s
}

// Msg sets the primary message, translated through the message
// catalog.
func (c *Context) Msg(format string, args ...interface{}) {
	rec := c.checkStack()
	rec.MessageID = c.arena.String(format)
	rec.Message = c.text(rec, true, format, args)
}

// MsgInternal sets the primary message without translation. It is for
// conditions that should never reach an ordinary user.
func (c *Context) MsgInternal(format string, args ...interface{}) {
	rec := c.checkStack()
	rec.MessageID = c.arena.String(format)
	rec.Message = c.text(rec, false, format, args)
}

// MsgPlural sets the primary message, choosing the singular or plural
// form for n.
func (c *Context) MsgPlural(singular, plural string, n int, args ...interface{}) {
	rec := c.checkStack()
	rec.MessageID = c.arena.String(singular)
	rec.Message = c.pluralText(rec, singular, plural, n, args)
}

func (c *Context) Detail(format string, args ...interface{}) {
	rec := c.checkStack()
	rec.Detail = c.text(rec, true, format, args)
}

func (c *Context) DetailInternal(format string, args ...interface{}) {
	rec := c.checkStack()
	rec.Detail = c.text(rec, false, format, args)
}

// DetailLog sets a detail line shown in the server log in place of
// Detail. The client never sees it.
func (c *Context) DetailLog(format string, args ...interface{}) {
	rec := c.checkStack()
	rec.DetailLog = c.text(rec, true, format, args)
}

func (c *Context) DetailPlural(singular, plural string, n int, args ...interface{}) {
	rec := c.checkStack()
	rec.Detail = c.pluralText(rec, singular, plural, n, args)
}

func (c *Context) Hint(format string, args ...interface{}) {
	rec := c.checkStack()
	rec.Hint = c.text(rec, true, format, args)
}

// ErrContext adds a line to the context chain. Callbacks call it while
// the report is being finished, innermost first.
func (c *Context) ErrContext(format string, args ...interface{}) {
	rec := c.checkStack()
	line := c.text(rec, true, format, args)
	if rec.Context == "" {
		rec.Context = line
		return
	}
	rec.Context = c.arena.Concat(rec.Context, "\n", line)
}

// HideStatement keeps the current statement out of the server log
// entry, for statements that may contain secrets in a form the masker
// cannot recognize.
func (c *Context) HideStatement(hide bool) {
	c.checkStack().HideStmt = hide
}

// Position sets the 1-based character offset of the error in the
// client's statement.
func (c *Context) Position(pos int) {
	c.checkStack().CursorPos = pos
}

// InternalPosition sets the character offset of the error in the
// internally generated query.
func (c *Context) InternalPosition(pos int) {
	c.checkStack().InternalPos = pos
}

// InternalQuery records the internally generated query the error
// occurred in. An empty query clears it.
func (c *Context) InternalQuery(query string) {
	c.checkStack().InternalQuery = c.arena.String(query)
}

// Code sets the SQLSTATE.
func (c *Context) Code(code string) {
	c.checkStack().Code = code
}

// CodeForFileAccess sets the SQLSTATE that best describes the saved
// errno of a failed file operation, and returns it.
func (c *Context) CodeForFileAccess() string {
	rec := c.checkStack()
	rec.Code = codeForFileAccess(rec.SavedErrno)
	return rec.Code
}

// CodeForSocketAccess sets the SQLSTATE that best describes the saved
// errno of a failed socket operation, and returns it.
func (c *Context) CodeForSocketAccess() string {
	rec := c.checkStack()
	rec.Code = codeForSocketAccess(rec.SavedErrno)
	return rec.Code
}

// Module tags the report with the subsystem raising it.
func (c *Context) Module(m Module) {
	c.checkStack().Module = m
}

// HandleInClient marks the report as one the client should process
// itself rather than display.
func (c *Context) HandleInClient(handle bool) {
	c.checkStack().HandleInClient = handle
}

// IgnoreInterrupt marks the report as safe to raise while interrupts
// are pending.
func (c *Context) IgnoreInterrupt(ignore bool) {
	c.checkStack().IgnoreInterrupt = ignore
}

// CurrentCode returns the SQLSTATE of the report in progress, or ""
// when there is none.
func (c *Context) CurrentCode() string {
	if rec := c.top(); rec != nil {
		return rec.Code
	}
	return ""
}

// CurrentPosition returns the cursor position of the report in
// progress, or 0.
func (c *Context) CurrentPosition() int {
	if rec := c.top(); rec != nil {
		return rec.CursorPos
	}
	return 0
}

// CurrentInternalPosition returns the internal query position of the
// report in progress, or 0.
func (c *Context) CurrentInternalPosition() int {
	if rec := c.top(); rec != nil {
		return rec.InternalPos
	}
	return 0
}
