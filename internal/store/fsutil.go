package store

import (
	"os"
	"path/filepath"
)

// atomicWriteFile writes b through a unique temp file so concurrent processes never
// observe a half-written file.
func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

// WriteFileAtomic is atomicWriteFile for callers outside the store.
func WriteFileAtomic(path string, b []byte, perm os.FileMode) error {
	return atomicWriteFile(filepath.Dir(path), ".eventcal.*.tmp", path, b, perm)
}
