package store

import (
	"fmt"

	"github.com/cafvcs/caf/internal/objects"
)

// LineSequence is a random-access, line-indexed view over a blob's bytes.
// Lines include their trailing newline when present; a final line without
// one is still a distinct line. The zero value (via OpenLineSequence on the
// empty hash) is an empty sequence, matching merge3's "no such side"
// convention.
type LineSequence struct {
	data    mapping
	offsets []int
}

// Len returns the number of lines.
func (s *LineSequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.offsets)
}

// Line returns the content of the i-th line (0-indexed), including its
// trailing newline if the underlying bytes had one.
func (s *LineSequence) Line(i int) []byte {
	start := s.offsets[i]
	var end int
	if i+1 < len(s.offsets) {
		end = s.offsets[i+1]
	} else {
		end = len(s.data.bytes())
	}
	return s.data.bytes()[start:end]
}

// Lines returns all lines in [from, to).
func (s *LineSequence) Lines(from, to int) [][]byte {
	out := make([][]byte, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, s.Line(i))
	}
	return out
}

// Close releases the underlying memory map, if any.
func (s *LineSequence) Close() error {
	if s == nil {
		return nil
	}
	return s.data.Close()
}

// Bytes returns the full mapped content of the blob, or nil for the empty
// "no such side" sequence.
func (s *LineSequence) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.data.bytes()
}

func buildLineIndex(b []byte) []int {
	if len(b) == 0 {
		return nil
	}
	offsets := []int{0}
	for i, c := range b {
		if c == '\n' && i+1 < len(b) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// OpenLineSequence opens the blob stored under hash as a line-indexed view.
// A zero-value Hash ("no such side") yields an empty sequence.
func (s *Store) OpenLineSequence(hash objects.Hash) (*LineSequence, error) {
	if hash == "" {
		return &LineSequence{}, nil
	}
	p, err := s.path(hash)
	if err != nil {
		return nil, err
	}
	m, err := openMapping(p)
	if err != nil {
		return nil, fmt.Errorf("opening %s for line scan: %w", hash, err)
	}
	return &LineSequence{data: m, offsets: buildLineIndex(m.bytes())}, nil
}
