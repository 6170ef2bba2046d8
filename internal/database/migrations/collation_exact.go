//go:build !windows && !darwin

package migrations

// PathCollation compares paths byte for byte.
const PathCollation = "BINARY"
