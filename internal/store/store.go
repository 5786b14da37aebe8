// Package store implements the content-addressed object store: a directory
// of immutable object files laid out as <hh>/<full-hash>, written atomically
// and read back either fully buffered or as a memory-mapped byte stream.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cafvcs/caf/internal/objects"
)

// ErrObjectNotFound is returned by Load* and OpenForReading when the
// requested hash has no corresponding object file.
var ErrObjectNotFound = errors.New("object not found")

// Store is a directory-backed content-addressed object store.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. dir is not created by New; callers
// create it as part of repository initialization.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root objects directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(hash objects.Hash) (string, error) {
	if !objects.IsValid(string(hash)) {
		return "", fmt.Errorf("invalid object hash %q", hash)
	}
	h := string(hash)
	return filepath.Join(s.dir, h[:2], h), nil
}

// HashExists reports whether an object file for hash is present.
func (s *Store) HashExists(hash objects.Hash) bool {
	p, err := s.path(hash)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// saveBytes writes content under hash, atomically and idempotently: if the
// destination already exists, the write is skipped entirely.
func (s *Store) saveBytes(hash objects.Hash, content []byte) error {
	p, err := s.path(hash)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err == nil {
		return nil
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating shard directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp object file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing object content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing object content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp object file: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("publishing object file: %w", err)
	}
	return nil
}

func (s *Store) loadBytes(hash objects.Hash) ([]byte, error) {
	p, err := s.path(hash)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, hash)
		}
		return nil, err
	}
	return content, nil
}

// SaveBlob writes b's raw content under its content hash and returns it.
func (s *Store) SaveBlob(b objects.Blob) (objects.Hash, error) {
	h := b.Hash()
	if err := s.saveBytes(h, b.Content); err != nil {
		return "", err
	}
	return h, nil
}

// LoadBlob reads the blob stored under hash.
func (s *Store) LoadBlob(hash objects.Hash) (objects.Blob, error) {
	content, err := s.loadBytes(hash)
	if err != nil {
		return objects.Blob{}, err
	}
	return objects.Blob{Content: content}, nil
}

// SaveTree writes t's canonical encoding under its hash and returns it.
func (s *Store) SaveTree(t *objects.Tree) (objects.Hash, error) {
	h := t.Hash()
	if err := s.saveBytes(h, t.Encode()); err != nil {
		return "", err
	}
	return h, nil
}

// LoadTree reads and decodes the tree stored under hash.
func (s *Store) LoadTree(hash objects.Hash) (*objects.Tree, error) {
	content, err := s.loadBytes(hash)
	if err != nil {
		return nil, err
	}
	t, err := objects.DecodeTree(content)
	if err != nil {
		return nil, fmt.Errorf("decoding tree %s: %w", hash, err)
	}
	return t, nil
}

// SaveCommit writes c's canonical encoding under its hash and returns it.
func (s *Store) SaveCommit(c objects.Commit) (objects.Hash, error) {
	h := c.Hash()
	if err := s.saveBytes(h, c.Encode()); err != nil {
		return "", err
	}
	return h, nil
}

// LoadCommit reads and decodes the commit stored under hash.
func (s *Store) LoadCommit(hash objects.Hash) (objects.Commit, error) {
	content, err := s.loadBytes(hash)
	if err != nil {
		return objects.Commit{}, err
	}
	c, err := objects.DecodeCommit(content)
	if err != nil {
		return objects.Commit{}, fmt.Errorf("decoding commit %s: %w", hash, err)
	}
	return c, nil
}

// SaveFile hashes a file's content directly (no blob framing) and stores it,
// mirroring the original plumbing's save_file_content contract.
func (s *Store) SaveFile(path string) (objects.Hash, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return s.SaveBlob(objects.Blob{Content: content})
}

// OpenForReading opens the object stored under hash for streaming reads.
// Callers that want memory-mapped random access should use OpenLineSequence
// instead.
func (s *Store) OpenForReading(hash objects.Hash) (io.ReadCloser, error) {
	p, err := s.path(hash)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, hash)
		}
		return nil, err
	}
	return f, nil
}

// OpenForWriting opens a temp file for writing new content for hash,
// returning a WriteCloser whose Close atomically publishes the object.
// The caller must write exactly the content whose hash is hash; Close does
// not check the written bytes against hash.
func (s *Store) OpenForWriting(hash objects.Hash) (io.WriteCloser, error) {
	p, err := s.path(hash)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating shard directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp object file: %w", err)
	}
	return &publishingWriter{tmp: tmp, dest: p}, nil
}

type publishingWriter struct {
	tmp  *os.File
	dest string
}

func (w *publishingWriter) Write(p []byte) (int, error) { return w.tmp.Write(p) }

func (w *publishingWriter) Close() error {
	name := w.tmp.Name()
	if err := w.tmp.Sync(); err != nil {
		w.tmp.Close()
		os.Remove(name)
		return fmt.Errorf("syncing object content: %w", err)
	}
	if err := w.tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("closing temp object file: %w", err)
	}
	if _, err := os.Stat(w.dest); err == nil {
		os.Remove(name)
		return nil
	}
	if err := os.Rename(name, w.dest); err != nil {
		os.Remove(name)
		return fmt.Errorf("publishing object file: %w", err)
	}
	return nil
}

// Delete removes the object file for hash. Deleting a missing object
// succeeds (idempotent) since the only caller-visible contract is "the
// object is gone afterward".
func (s *Store) Delete(hash objects.Hash) error {
	p, err := s.path(hash)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting object %s: %w", hash, err)
	}
	return nil
}
