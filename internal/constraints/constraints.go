// Package constraints should only be used as a blank import. When
// imported it will cause `go build` to fail with an obvious and clean
// message if the constraints defined in the package are not met.
package constraints

var (
	// Only available when on Go v1.22 or more.
	_ = Go122

	// Only available on unix-like systems: the core signals itself with
	// SIGABRT and reads errno values from golang.org/x/sys/unix.
	_ = Unix
)
