package worker

import (
	"os"
	"path/filepath"
)

// dirOf returns the parent directory of path, used before writing an
// artifact to ensure vods/, chats/, or finals/ exists.
func dirOf(path string) string {
	return filepath.Dir(path)
}

// removeIfExists deletes path if present, swallowing os.ErrNotExist.
// Workers call this before producing an artifact so a crash mid-write on a
// prior attempt never leaves a corrupt file alongside a freshly completed
// one — the idempotence-on-restart requirement in §4.3.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
