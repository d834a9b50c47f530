package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// rename is swapped out in tests to simulate a failing filesystem.
var rename = os.Rename

// File is a fully buffered output destined for Path.
type File struct {
	Path string
	Data []byte
}

// Commit writes every file or none of them. Each file is compressed per its
// extension and staged in a temp file beside its destination. Existing
// destinations are moved aside before the temp files are renamed into
// place; if any step fails, installed files are removed and the originals
// restored.
func Commit(files ...File) error {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f.Path)
		if err != nil {
			return &IOError{Op: "resolve", Path: f.Path, Err: err}
		}
		if seen[abs] {
			return &IOError{Op: "commit", Path: f.Path, Err: fmt.Errorf("destination given more than once")}
		}
		seen[abs] = true

		fi, err := os.Lstat(f.Path)
		switch {
		case err == nil && fi.IsDir():
			return &IOError{Op: "commit", Path: f.Path, Err: fmt.Errorf("destination is a directory")}
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return &IOError{Op: "stat", Path: f.Path, Err: err}
		}
	}

	temps := make([]string, 0, len(files))
	removeTemps := func() {
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}
	for _, f := range files {
		tmp, err := stage(f)
		if tmp != "" {
			temps = append(temps, tmp)
		}
		if err != nil {
			removeTemps()
			return err
		}
	}

	backups := make(map[int]string, len(files))
	var installed []int
	rollback := func() {
		for _, i := range installed {
			_ = os.Remove(files[i].Path)
		}
		for i, b := range backups {
			_ = rename(b, files[i].Path)
		}
		removeTemps()
	}

	for i, f := range files {
		if _, err := os.Lstat(f.Path); err != nil {
			continue
		}
		b := temps[i] + ".orig"
		if err := rename(f.Path, b); err != nil {
			rollback()
			return &IOError{Op: "backup", Path: f.Path, Err: err}
		}
		backups[i] = b
	}

	for i, f := range files {
		if err := rename(temps[i], f.Path); err != nil {
			rollback()
			return &IOError{Op: "rename", Path: f.Path, Err: err}
		}
		installed = append(installed, i)
	}

	for _, b := range backups {
		_ = os.Remove(b)
	}
	return nil
}

func stage(f File) (string, error) {
	data, err := Compress(ForPath(f.Path), f.Data)
	if err != nil {
		return "", &IOError{Op: "compress", Path: f.Path, Err: err}
	}

	dir, base := filepath.Split(f.Path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return "", &IOError{Op: "create", Path: f.Path, Err: err}
	}
	name := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return name, &IOError{Op: "chmod", Path: f.Path, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return name, &IOError{Op: "write", Path: f.Path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return name, &IOError{Op: "sync", Path: f.Path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return name, &IOError{Op: "close", Path: f.Path, Err: err}
	}
	return name, nil
}
