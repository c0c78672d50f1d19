// Package toolutil provides shared file helpers for the pipeline commands.
package toolutil

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// ReadJSONFile decodes the JSON document at path into a value of type T.
func ReadJSONFile[T any](path string) (T, error) {
	var out T
	data, err := os.ReadFile(path)
	if err != nil {
		return out, errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, errors.Wrapf(err, "decode %s", path)
	}
	return out, nil
}

// WriteJSONFile marshals v with indentation and writes it to path atomically:
// readers see either the old file or the complete new one.
func WriteJSONFile[T any](path string, v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "create temp for %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "rename into %s", path)
	}
	return nil
}

// CopyFile copies src to dst, creating dst's directory when needed.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, "read %s", src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", dst)
	}
	return errors.Wrapf(os.WriteFile(dst, data, 0o644), "write %s", dst)
}

// MoveFile renames src to dst, creating dst's directory when needed.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", dst)
	}
	return errors.Wrapf(os.Rename(src, dst), "move %s", src)
}
