//go:build windows || darwin

package migrations

// PathCollation matches paths case-insensitively on platforms whose
// filesystems do.
const PathCollation = "NOCASE"
