//go:build go1.22

package constraints

const Go122 = uint8(0)
