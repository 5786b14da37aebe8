// Package refs implements the reference store: files under <repo>/refs/…
// and <repo>/HEAD holding either a direct hash reference or a symbolic
// pointer to another reference, with atomic read/write and bounded-depth
// symbolic resolution.
package refs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cafvcs/caf/internal/objects"
)

// RefError reports a malformed or wrong-typed reference.
type RefError struct {
	Msg string
}

func (e *RefError) Error() string { return e.Msg }

func refErrorf(format string, args ...any) error {
	return &RefError{Msg: fmt.Sprintf(format, args...)}
}

// maxSymlinkDepth bounds SymRef chain resolution; beyond it resolution
// fails with a cycle RefError rather than recursing forever. The Python
// source this was ported from only ever followed one hop, but an
// implementation should be robust against ref files edited by hand.
const maxSymlinkDepth = 8

// Ref is a reference value: either a HashRef or a SymRef. A nil Ref
// denotes "no target yet" (an empty ref file).
type Ref interface {
	isRef()
	// Encode returns the exact bytes written to a ref file for this value.
	Encode() string
}

// HashRef is a direct pointer to a commit hash.
type HashRef objects.Hash

func (HashRef) isRef() {}

func (r HashRef) Encode() string { return string(r) }

func (r HashRef) Hash() objects.Hash { return objects.Hash(r) }

// SymRef is a symbolic pointer to another reference by path, e.g.
// "heads/main".
type SymRef string

func (SymRef) isRef()           {}
func (r SymRef) Encode() string { return "ref: " + string(r) }

// BranchName returns the last '/'-separated segment of the symref target,
// e.g. SymRef("heads/main").BranchName() == "main".
func (r SymRef) BranchName() string {
	s := string(r)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// BranchRef builds the conventional symref pointing at a branch by name.
func BranchRef(name string) SymRef { return SymRef("heads/" + name) }

// Store reads and writes reference files rooted at a repository directory.
type Store struct {
	repoDir string
}

// New returns a Store rooted at repoDir (the directory containing HEAD and
// refs/).
func New(repoDir string) *Store {
	return &Store{repoDir: repoDir}
}

func (s *Store) absPath(refPath string) string {
	if refPath == "HEAD" {
		return filepath.Join(s.repoDir, "HEAD")
	}
	return filepath.Join(s.repoDir, "refs", refPath)
}

// Read parses the reference file at refPath. It returns (nil, nil) for an
// empty, existing file — "no target yet" is a valid state, not an error.
// A missing file is an error: ref files are expected to exist once a branch
// or HEAD has been created, so their disappearance indicates repository
// corruption rather than "no target yet".
func (s *Store) Read(refPath string) (Ref, error) {
	p := s.absPath(refPath)
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading ref %s: %w", refPath, err)
	}
	return parseRef(string(content))
}

func parseRef(content string) (Ref, error) {
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return nil, nil
	}
	if strings.HasPrefix(content, "ref:") {
		_, target, ok := strings.Cut(content, ": ")
		if !ok {
			return nil, refErrorf("malformed symbolic ref: %q", content)
		}
		return SymRef(target), nil
	}
	if objects.IsValid(content) {
		return HashRef(content), nil
	}
	return nil, refErrorf("malformed ref content: %q", content)
}

// Write atomically writes ref's encoding to refPath. Writing a nil Ref
// writes an empty file.
func (s *Store) Write(refPath string, ref Ref) error {
	p := s.absPath(refPath)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating ref directory: %w", err)
	}

	var content string
	if ref != nil {
		content = ref.Encode()
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-ref-*")
	if err != nil {
		return fmt.Errorf("creating temp ref file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing ref content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing ref content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp ref file: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("publishing ref file: %w", err)
	}
	return nil
}

// Delete removes the reference file at refPath.
func (s *Store) Delete(refPath string) error {
	p := s.absPath(refPath)
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("deleting ref %s: %w", refPath, err)
	}
	return nil
}

// Exists reports whether a reference file is present at refPath (whether
// or not it has a target).
func (s *Store) Exists(refPath string) bool {
	_, err := os.Stat(s.absPath(refPath))
	return err == nil
}

// Resolve follows ref, chasing SymRef chains (bounded by maxSymlinkDepth),
// and returns the terminal HashRef's hash, or ("", nil) if the chain
// terminates at an empty ref.
func (s *Store) Resolve(refPath string) (objects.Hash, error) {
	path := refPath
	for depth := 0; depth < maxSymlinkDepth; depth++ {
		ref, err := s.Read(path)
		if err != nil {
			return "", err
		}
		switch r := ref.(type) {
		case nil:
			return "", nil
		case HashRef:
			return r.Hash(), nil
		case SymRef:
			path = string(r)
			continue
		default:
			return "", refErrorf("unknown ref variant for %q", path)
		}
	}
	return "", refErrorf("cycle: symbolic ref chain exceeded depth %d starting at %q", maxSymlinkDepth, refPath)
}

// ResolveHead follows HEAD to its terminal hash and also reports, when
// HEAD is a SymRef to a branch, which branch that is ("" if HEAD is
// detached-empty or unattached).
func (s *Store) ResolveHead() (hash objects.Hash, branch string, err error) {
	headRef, err := s.Read("HEAD")
	if err != nil {
		return "", "", err
	}
	sym, ok := headRef.(SymRef)
	if !ok {
		if headRef == nil {
			return "", "", nil
		}
		return "", "", refErrorf("HEAD must be a symbolic ref, got %T", headRef)
	}
	branch = sym.BranchName()
	hash, err = s.Resolve("HEAD")
	return hash, branch, err
}

// IsCycleError reports whether err is the bounded-depth cycle RefError.
func IsCycleError(err error) bool {
	var re *RefError
	if errors.As(err, &re) {
		return strings.Contains(re.Msg, "cycle")
	}
	return false
}
