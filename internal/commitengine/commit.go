// Package commitengine walks a working directory into a content-addressed
// tree and builds the commit object that snapshots it.
package commitengine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cafvcs/caf/internal/objects"
)

// Store is the subset of the object store the commit engine needs.
type Store interface {
	SaveFile(path string) (objects.Hash, error)
	SaveTree(t *objects.Tree) (objects.Hash, error)
	SaveCommit(c objects.Commit) (objects.Hash, error)
}

// Clock supplies the current time, injected so callers (and tests) can
// control commit timestamps deterministically.
type Clock func() time.Time

// BuildTree walks workDir recursively, skipping repoDir (the absolute path
// of the repository's own metadata directory, e.g. "<workDir>/.caf"),
// saving a Blob for every regular file and a Tree for every directory,
// bottom-up. It returns the hash of the root tree. An empty working
// directory produces the well-defined empty-tree hash.
func BuildTree(s Store, workDir, repoDir string) (objects.Hash, error) {
	tree, err := buildTreeDir(s, workDir, repoDir)
	if err != nil {
		return "", err
	}
	return s.SaveTree(tree)
}

func buildTreeDir(s Store, dir, repoDir string) (*objects.Tree, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var records []objects.TreeRecord
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if full == repoDir {
			continue
		}

		switch {
		case entry.IsDir():
			subtree, err := buildTreeDir(s, full, repoDir)
			if err != nil {
				return nil, err
			}
			hash, err := s.SaveTree(subtree)
			if err != nil {
				return nil, err
			}
			records = append(records, objects.TreeRecord{Type: objects.TreeRecordKind, Hash: hash, Name: entry.Name()})

		case entry.Type().IsRegular():
			hash, err := s.SaveFile(full)
			if err != nil {
				return nil, err
			}
			records = append(records, objects.TreeRecord{Type: objects.BlobRecord, Hash: hash, Name: entry.Name()})

		default:
			// Symlinks, sockets, devices, etc. are out of scope; skip them.
			continue
		}
	}

	return objects.NewTree(records)
}

// HeadState is the information the caller's Repository layer must supply
// about HEAD's current position before committing.
type HeadState struct {
	// ParentHash is the HashRef target of the branch HEAD points to, or ""
	// if there is no parent yet (first commit, or HEAD unattached).
	ParentHash objects.Hash
}

// CommitWorkingDir builds the root tree for workDir (skipping repoDir),
// constructs a Commit referencing it and the resolved parent, saves the
// commit object, and returns its hash. Advancing the branch that HEAD
// points to is the caller's responsibility (see repo.Repository), since
// that requires the reference store, which this package does not depend
// on.
func CommitWorkingDir(s Store, workDir, repoDir string, head HeadState, author, message string, now Clock) (objects.Hash, error) {
	treeHash, err := BuildTree(s, workDir, repoDir)
	if err != nil {
		return "", err
	}

	commit := objects.Commit{
		Tree:      treeHash,
		Parent:    head.ParentHash,
		Author:    author,
		Message:   message,
		Timestamp: now().Unix(),
	}

	return s.SaveCommit(commit)
}
