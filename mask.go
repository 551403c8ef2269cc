package elog

import (
	"github.com/secureworks/elog/redact"
)

// MaskQuery returns query with any passwords and keys it contains
// replaced by asterisks, ready to be written to a log or sent to a
// client. A query with nothing to mask, or one the scanner cannot
// read, is returned unchanged.
//
// Masking does not nest: a call made while the context is already
// masking returns its input as is.
func (c *Context) MaskQuery(query string) string {
	if query == "" || c.masking {
		return query
	}
	c.masking = true
	defer func() { c.masking = false }()

	m := redact.Masker{MinLength: c.cfg.PasswordMinLength}
	masked, changed, err := m.Scan(query)
	if err != nil {
		c.log.WithError(err).Debug("Statement could not be scanned for secrets")
		return query
	}
	if !changed {
		return query
	}
	c.metrics.recordMasked()
	return masked
}
