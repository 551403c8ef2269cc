//go:build elogdebug

package elog

import "github.com/jackc/pgx/v5/pgproto3"

// addSourceFields exposes the origin of a report to clients. Debug
// builds only.
func addSourceFields(resp *pgproto3.ErrorResponse, rec *Record) {
	resp.File = rec.Filename
	resp.Line = int32(rec.Lineno)
	resp.Routine = rec.Funcname
}
