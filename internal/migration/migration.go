package migration

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/aqasim81/sqlaltery/internal/ops"
)

// Migration is one numbered, immutable bundle of operations loaded from disk.
type Migration struct {
	Number   int             // 1-based position in the chain, taken from the filename
	Ops      []ops.Operation // forward operations in execution order
	Path     string          // file the migration was read from or written to
	Checksum string          // SHA-256 hex digest of the file contents
}

// ComputeChecksum returns the SHA-256 hex digest of the given file contents.
func ComputeChecksum(data []byte) string {
	h := sha256.Sum256(data)

	return hex.EncodeToString(h[:])
}
