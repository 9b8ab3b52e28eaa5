package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// UniquePath resolves a collision-free path for filename inside dir by
// suffixing an incrementing counter to the stem ("a.jpg" -> "a-1.jpg",
// "a-2.jpg", ...). Deterministic for a fixed directory snapshot; a single
// sequential writer is the supported model, so no locking is attempted.
func UniquePath(dir, filename string) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	candidate := filepath.Join(dir, filename)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
}
