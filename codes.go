package elog

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/jackc/pgerrcode"
	"golang.org/x/sys/unix"
)

// validCode reports whether code is a well-formed SQLSTATE: five
// characters drawn from digits and upper-case letters.
func validCode(code string) bool {
	if len(code) != 5 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

// defaultCode is the SQLSTATE a new frame starts with.
func defaultCode(sev Severity) string {
	switch {
	case sev >= Error:
		return pgerrcode.InternalError
	case sev == Warning:
		return pgerrcode.Warning
	default:
		return pgerrcode.SuccessfulCompletion
	}
}

// codeForFileAccess classifies a failed file system call.
func codeForFileAccess(errno syscall.Errno) string {
	switch errno {
	case unix.EPERM, unix.EACCES, unix.EROFS:
		return pgerrcode.InsufficientPrivilege
	case unix.ENOENT:
		return pgerrcode.UndefinedFile
	case unix.EEXIST:
		return pgerrcode.DuplicateFile
	case unix.ENOTDIR, unix.EISDIR, unix.ENOTEMPTY:
		return pgerrcode.WrongObjectType
	case unix.ENOSPC:
		return pgerrcode.DiskFull
	case unix.ENFILE, unix.EMFILE:
		return pgerrcode.InsufficientResources
	case unix.EIO:
		return pgerrcode.IOError
	default:
		return pgerrcode.InternalError
	}
}

// codeForSocketAccess classifies a failed socket call.
func codeForSocketAccess(errno syscall.Errno) string {
	switch errno {
	case unix.EPIPE, unix.ECONNRESET:
		return pgerrcode.ConnectionFailure
	default:
		return pgerrcode.InternalError
	}
}

// strerror renders errno for %m. Unknown numbers get a generic text
// rather than the runtime's "errno N".
func strerror(errno syscall.Errno) string {
	if errno != 0 {
		if s := errno.Error(); s != "" && !strings.HasPrefix(s, "errno ") {
			return s
		}
		if name := unix.ErrnoName(errno); name != "" {
			return name
		}
	}
	return fmt.Sprintf("operating system error %d", int(errno))
}
