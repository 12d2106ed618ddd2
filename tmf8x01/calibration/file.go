// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package calibration

import (
	"fmt"
	"os"
	"path/filepath"
)

// File persists a calibration blob as its raw 14 bytes.
type File struct {
	Path string
}

// Load reads the blob from disk.
func (f *File) Load() (Data, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return Data{}, err
	}
	d, err := Parse(b)
	if err != nil {
		return Data{}, fmt.Errorf("%s: %w", f.Path, err)
	}
	return d, nil
}

// Save writes the blob to disk. The file is replaced atomically so a reader
// never observes a truncated blob.
func (f *File) Save(d Data) error {
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(d[:]); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

func (f *File) String() string {
	return "calibration.File{" + f.Path + "}"
}
