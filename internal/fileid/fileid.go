// Package fileid provides deterministic record IDs for records imported from files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
)

const prefix = "file:"

// FileID returns a stable ID for the given absolute path.
// Same path always yields the same ID.
func FileID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:8])
}

// RowID returns a stable record ID for the n-th record (0-based) of the import file at
// absolutePath, so re-importing a file updates the same records.
func RowID(absolutePath string, n int) string {
	return FileID(absolutePath) + "-" + strconv.Itoa(n)
}
