// Package objects defines the canonical byte encoding of blobs, trees, and
// commits and the hash identity that binds them.
package objects

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Hash is a 40-character lowercase hex SHA-1 digest.
type Hash string

// HashLength is the fixed length of a valid Hash string.
const HashLength = 40

// NewHash validates s as a well-formed Hash.
func NewHash(s string) (Hash, error) {
	if len(s) != HashLength {
		return "", fmt.Errorf("invalid hash length: %d", len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return Hash(strings.ToLower(s)), nil
}

// IsValid reports whether s has the shape of a Hash without allocating one.
func IsValid(s string) bool {
	if len(s) != HashLength {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}

func hashBytes(b []byte) Hash {
	sum := sha1.Sum(b)
	return Hash(hex.EncodeToString(sum[:]))
}

// RecordType distinguishes a TreeRecord's target kind.
type RecordType int

const (
	// BlobRecord marks a TreeRecord pointing at a Blob.
	BlobRecord RecordType = iota
	// TreeRecordKind marks a TreeRecord pointing at a Tree.
	TreeRecordKind
)

func (t RecordType) String() string {
	switch t {
	case BlobRecord:
		return "blob"
	case TreeRecordKind:
		return "tree"
	default:
		return "unknown"
	}
}

// ParseRecordType maps a canonical tree-entry type token back to a RecordType.
func ParseRecordType(s string) (RecordType, error) {
	switch s {
	case "blob":
		return BlobRecord, nil
	case "tree":
		return TreeRecordKind, nil
	default:
		return 0, fmt.Errorf("unknown tree entry type %q", s)
	}
}

// Blob is an immutable byte sequence. Its identity is the hash of its raw
// content — no header or framing is added.
type Blob struct {
	Content []byte
}

// Hash returns the content-addressed identity of b.
func (b Blob) Hash() Hash { return hashBytes(b.Content) }

// TreeRecord is one entry of a Tree: a named pointer to a Blob or a Tree.
type TreeRecord struct {
	Type RecordType
	Hash Hash
	Name string
}

// Equal reports whether two records (or their absence) are identical by
// type+hash+name. Two nil records are equal; a nil and non-nil are not.
func (r *TreeRecord) Equal(o *TreeRecord) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Type == o.Type && r.Hash == o.Hash && r.Name == o.Name
}

// Tree is a mapping from name to TreeRecord. The zero value is an empty
// tree. Records must always be accessed through NewTree/Records so that
// lexicographic order is enforced at construction, not merely at encode
// time.
type Tree struct {
	records map[string]TreeRecord
}

// NewTree builds a Tree from a set of records, rejecting duplicate or
// malformed names.
func NewTree(records []TreeRecord) (*Tree, error) {
	m := make(map[string]TreeRecord, len(records))
	for _, r := range records {
		if r.Name == "" || strings.Contains(r.Name, "/") {
			return nil, fmt.Errorf("invalid tree entry name %q", r.Name)
		}
		if _, exists := m[r.Name]; exists {
			return nil, fmt.Errorf("duplicate tree entry name %q", r.Name)
		}
		m[r.Name] = r
	}
	return &Tree{records: m}, nil
}

// Get returns the record for name, or nil if absent.
func (t *Tree) Get(name string) *TreeRecord {
	if t == nil {
		return nil
	}
	if r, ok := t.records[name]; ok {
		rr := r
		return &rr
	}
	return nil
}

// Names returns the entry names of t in lexicographic order.
func (t *Tree) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.records))
	for n := range t.records {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Records returns the entries of t sorted lexicographically by name.
func (t *Tree) Records() []TreeRecord {
	names := t.Names()
	out := make([]TreeRecord, 0, len(names))
	for _, n := range names {
		out = append(out, t.records[n])
	}
	return out
}

// Encode produces the canonical byte serialization of t: one
// "<type> <hash> <name>\n" line per entry, sorted by name.
func (t *Tree) Encode() []byte {
	var sb strings.Builder
	for _, r := range t.Records() {
		sb.WriteString(r.Type.String())
		sb.WriteByte(' ')
		sb.WriteString(string(r.Hash))
		sb.WriteByte(' ')
		sb.WriteString(r.Name)
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// Hash returns the content-addressed identity of t.
func (t *Tree) Hash() Hash { return hashBytes(t.Encode()) }

// DecodeTree parses the canonical tree encoding produced by Encode.
func DecodeTree(data []byte) (*Tree, error) {
	var records []TreeRecord
	text := string(data)
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed tree entry: %q", line)
		}
		rt, err := ParseRecordType(parts[0])
		if err != nil {
			return nil, err
		}
		h, err := NewHash(parts[1])
		if err != nil {
			return nil, fmt.Errorf("malformed tree entry hash: %w", err)
		}
		records = append(records, TreeRecord{Type: rt, Hash: h, Name: parts[2]})
	}
	return NewTree(records)
}

// Commit is a versioned snapshot: a tree plus an optional parent, author,
// message, and timestamp. At most one parent is stored — merges produce a
// tree only; the caller decides whether and how to commit it.
type Commit struct {
	Tree      Hash
	Parent    Hash // empty if none
	Author    string
	Message   string
	Timestamp int64 // unix seconds
}

// Encode produces the canonical byte serialization of c.
func (c Commit) Encode() []byte {
	var sb strings.Builder
	sb.WriteString("tree ")
	sb.WriteString(string(c.Tree))
	sb.WriteByte('\n')
	if c.Parent != "" {
		sb.WriteString("parent ")
		sb.WriteString(string(c.Parent))
		sb.WriteByte('\n')
	}
	sb.WriteString("author ")
	sb.WriteString(c.Author)
	sb.WriteByte('\n')
	sb.WriteString("timestamp ")
	sb.WriteString(strconv.FormatInt(c.Timestamp, 10))
	sb.WriteByte('\n')
	sb.WriteByte('\n')
	sb.WriteString("message ")
	sb.WriteString(c.Message)
	return []byte(sb.String())
}

// Hash returns the content-addressed identity of c.
func (c Commit) Hash() Hash { return hashBytes(c.Encode()) }

// DecodeCommit parses the canonical commit encoding produced by Encode.
func DecodeCommit(data []byte) (Commit, error) {
	text := string(data)
	headerBody := strings.SplitN(text, "\n\n", 2)
	if len(headerBody) != 2 {
		return Commit{}, fmt.Errorf("malformed commit: missing header/message separator")
	}
	var c Commit
	for _, line := range strings.Split(headerBody[0], "\n") {
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			return Commit{}, fmt.Errorf("malformed commit header line: %q", line)
		}
		switch key {
		case "tree":
			h, err := NewHash(value)
			if err != nil {
				return Commit{}, fmt.Errorf("malformed commit tree hash: %w", err)
			}
			c.Tree = h
		case "parent":
			h, err := NewHash(value)
			if err != nil {
				return Commit{}, fmt.Errorf("malformed commit parent hash: %w", err)
			}
			c.Parent = h
		case "author":
			c.Author = value
		case "timestamp":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Commit{}, fmt.Errorf("malformed commit timestamp: %w", err)
			}
			c.Timestamp = ts
		default:
			return Commit{}, fmt.Errorf("unknown commit header key %q", key)
		}
	}
	if c.Tree == "" {
		return Commit{}, fmt.Errorf("malformed commit: missing tree")
	}
	const prefix = "message "
	msg := headerBody[1]
	if strings.HasPrefix(msg, prefix) {
		msg = msg[len(prefix):]
	}
	c.Message = msg
	return c, nil
}

// HashFile hashes raw bytes the same way a Blob built from them would hash:
// no header, no framing, just SHA-1 of the bytes themselves.
func HashFile(content []byte) Hash { return hashBytes(content) }

// HashString hashes a UTF-8 string the same way HashFile hashes bytes.
func HashString(s string) Hash { return hashBytes([]byte(s)) }
