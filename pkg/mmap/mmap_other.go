//go:build !linux && !darwin

package mmap

import (
	"io"
	"os"
)

// Without mmap the file is read into memory.
func mmap(f *os.File, length int) ([]byte, error) {
	data := make([]byte, length)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, int64(length)), data); err != nil {
		return nil, err
	}
	return data, nil
}

func munmap([]byte) error { return nil }

func adviseSequential([]byte) error { return nil }
