//go:build unix

package store

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// mapping is a released-on-Close view over a file's bytes. On unix
// platforms it is backed by a real mmap (unix.Mmap), matching the merge
// engine's requirement to scan blob content without fully buffering it.
type mapping struct {
	data []byte
}

func openMapping(path string) (mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return mapping{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return mapping{}, err
	}
	size := info.Size()
	if size == 0 {
		return mapping{}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return mapping{}, err
	}
	return mapping{data: data}, nil
}

func (m mapping) bytes() []byte { return m.data }

func (m mapping) Close() error {
	if m.data == nil {
		return nil
	}
	if err := unix.Munmap(m.data); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}
	return nil
}
