//go:build unix

package constraints

const Unix = uint8(0)
