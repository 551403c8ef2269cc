//go:build !elogdebug

package elog

import "github.com/jackc/pgx/v5/pgproto3"

func addSourceFields(*pgproto3.ErrorResponse, *Record) {}
