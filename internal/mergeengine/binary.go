package mergeengine

import (
	"github.com/cafvcs/caf/internal/objects"
)

// sampleSize is the number of leading bytes inspected when classifying a
// blob as binary or text.
const sampleSize = 8192

// binaryThreshold is the fraction of non-text bytes in the sample above
// which a blob is classified as binary.
const binaryThreshold = 0.3

// Store is the subset of the object store the merge engine needs. It is
// satisfied by *store.Store through an adapter, since Go requires an
// interface method's return type to match exactly and store.OpenLineSequence
// returns the concrete *store.LineSequence.
type Store interface {
	LoadBlob(hash objects.Hash) (objects.Blob, error)
	SaveBlob(b objects.Blob) (objects.Hash, error)
	LoadTree(hash objects.Hash) (*objects.Tree, error)
	SaveTree(t *objects.Tree) (objects.Hash, error)
	LoadCommit(hash objects.Hash) (objects.Commit, error)
	OpenLineSequence(hash objects.Hash) (LineSequence, error)
}

// LineSequence is the line-indexed, memory-mapped, random-access view the
// text merger and binary sniffer read through. Satisfied by
// *store.LineSequence.
type LineSequence interface {
	Len() int
	Line(i int) []byte
	Bytes() []byte
	Close() error
}

// isBinaryBlob reports whether the blob stored under hash looks like
// binary data, sniffing its first sampleSize bytes via the same
// memory-mapped view the text merger uses. An empty hash (no such side) is
// never binary.
func isBinaryBlob(s Store, hash objects.Hash) bool {
	if hash == "" {
		return false
	}
	ls, err := s.OpenLineSequence(hash)
	if err != nil {
		return false
	}
	defer ls.Close()

	sample := ls.Bytes()
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	size := len(sample)
	if size == 0 {
		return false
	}

	for _, c := range sample {
		if c == 0x00 {
			return true
		}
	}

	nonText := 0
	for _, c := range sample {
		if c < 0x20 && c != 0x09 && c != 0x0A && c != 0x0D {
			nonText++
		} else if c == 0x7F {
			nonText++
		}
	}
	return float64(nonText) > float64(size)*binaryThreshold
}
