package datastore

import (
	"os"
	"path/filepath"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
)

// writeFileAtomic writes data to a temp file beside path and renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errorwrapper.WrapErrorf(err, "failed to create directory '%s'", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errorwrapper.WrapErrorf(err, "failed to create temp file in '%s'", dir)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errorwrapper.WrapErrorf(err, "failed to write temp file '%s'", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errorwrapper.WrapErrorf(err, "failed to sync temp file '%s'", tmpName)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errorwrapper.WrapErrorf(err, "failed to close temp file '%s'", tmpName)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return errorwrapper.WrapErrorf(err, "failed to set permissions on '%s'", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errorwrapper.WrapErrorf(err, "failed to replace '%s'", path)
	}
	return nil
}
