//go:build !unix

package store

import "os"

// mapping falls back to a fully-buffered read on non-unix platforms, where
// unix.Mmap is unavailable. The line-scanning contract (random access over
// line-delimited bytes) is preserved; only the zero-copy guarantee is lost.
type mapping struct {
	data []byte
}

func openMapping(path string) (mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mapping{}, err
	}
	return mapping{data: data}, nil
}

func (m mapping) bytes() []byte { return m.data }

func (m mapping) Close() error { return nil }
