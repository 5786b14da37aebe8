// Package repo implements the Repository abstraction: it binds a working
// directory to a repo directory and exposes init/delete, branch/tag CRUD,
// HEAD resolution, and the top-level commit/diff/merge operations.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cafvcs/caf/internal/commitengine"
	"github.com/cafvcs/caf/internal/diffengine"
	"github.com/cafvcs/caf/internal/mergeengine"
	"github.com/cafvcs/caf/internal/objects"
	"github.com/cafvcs/caf/internal/refs"
	"github.com/cafvcs/caf/internal/store"
)

// DefaultRepoDirName is the conventional name of the repo directory
// within a working directory.
const DefaultRepoDirName = ".caf"

// RepositoryError wraps any failure raised by the Repository layer with a
// descriptive message; the CLI translates it to exit code -1 and a stderr
// line prefixed "Repository error".
type RepositoryError struct {
	Msg string
	Err error
}

func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *RepositoryError) Unwrap() error { return e.Err }

func repoErrorf(err error, format string, args ...any) error {
	return &RepositoryError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// Repository binds a working directory to its .caf repo directory and
// provides single-process access to the object store, reference store, and
// the engines built on top of them. There is no file locking across
// processes; within a process, mu serializes the mutating methods.
type Repository struct {
	workDir string
	repoDir string

	objects *store.Store
	refs    *refs.Store

	mu sync.Mutex
}

// Open binds a Repository to workDir, using repoDirName (default ".caf")
// as the repo directory name. Open does not require the repo directory to
// already exist — callers call Init for a fresh repository, or any other
// method against an existing one.
func Open(workDir, repoDirName string) *Repository {
	if repoDirName == "" {
		repoDirName = DefaultRepoDirName
	}
	repoDir := filepath.Join(workDir, repoDirName)
	return &Repository{
		workDir: workDir,
		repoDir: repoDir,
		objects: store.New(filepath.Join(repoDir, "objects")),
		refs:    refs.New(repoDir),
	}
}

// RepoDir returns the path of the repo directory: the working directory
// joined with the repo directory name.
func (r *Repository) RepoDir() string { return r.repoDir }

// WorkDir returns the working directory path as passed to Open.
func (r *Repository) WorkDir() string { return r.workDir }

// Exists reports whether the repo directory is present on disk.
func (r *Repository) Exists() bool {
	_, err := os.Stat(r.repoDir)
	return err == nil
}

// Init creates the repo directory structure and an initial empty branch,
// with HEAD attached to it. It fails with RepositoryError if the repo
// directory already exists.
func (r *Repository) Init(defaultBranch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if defaultBranch == "" {
		defaultBranch = "main"
	}
	if r.Exists() {
		return &RepositoryError{Msg: fmt.Sprintf("repository already exists at %s", r.repoDir)}
	}

	for _, dir := range []string{r.repoDir, r.objects.Dir(), filepath.Join(r.repoDir, "refs", "heads"), filepath.Join(r.repoDir, "refs", "tags")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return repoErrorf(err, "creating %s", dir)
		}
	}

	if err := r.refs.Write("heads/"+defaultBranch, nil); err != nil {
		return repoErrorf(err, "creating default branch %q", defaultBranch)
	}
	if err := r.refs.Write("HEAD", refs.BranchRef(defaultBranch)); err != nil {
		return repoErrorf(err, "writing HEAD")
	}
	return nil
}

// Delete recursively removes the repo directory. It fails if the
// directory is not present.
func (r *Repository) Delete() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.Exists() {
		return &RepositoryError{Msg: fmt.Sprintf("No repository found at %s", r.repoDir)}
	}
	if err := os.RemoveAll(r.repoDir); err != nil {
		return repoErrorf(err, "deleting repository at %s", r.repoDir)
	}
	return nil
}

// validateBranchOrTagName checks name against the naming rules shared by
// branches and tags. kind is the capitalized noun ("Branch" or "Tag") used
// to build the error message.
func validateBranchOrTagName(kind, name string) error {
	if name == "" {
		return &RepositoryError{Msg: fmt.Sprintf("%s name is required", kind)}
	}
	if strings.ContainsAny(name, "\x00") || strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return &RepositoryError{Msg: fmt.Sprintf("invalid %s name %q", kind, name)}
	}
	return nil
}

// AddBranch creates an empty refs/heads/<name>. It fails if the branch
// already exists.
func (r *Repository) AddBranch(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := validateBranchOrTagName("Branch", name); err != nil {
		return err
	}
	if r.refs.Exists("heads/" + name) {
		return &RepositoryError{Msg: fmt.Sprintf("Branch %q already exists", name)}
	}
	if err := r.refs.Write("heads/"+name, nil); err != nil {
		return repoErrorf(err, "creating branch %q", name)
	}
	return nil
}

// DeleteBranch removes refs/heads/<name>. It fails if the branch is
// missing.
func (r *Repository) DeleteBranch(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := validateBranchOrTagName("Branch", name); err != nil {
		return err
	}
	if !r.refs.Exists("heads/" + name) {
		return &RepositoryError{Msg: fmt.Sprintf("Branch %q does not exist", name)}
	}
	if err := r.refs.Delete("heads/" + name); err != nil {
		return repoErrorf(err, "deleting branch %q", name)
	}
	return nil
}

// BranchExists reports whether refs/heads/<name> is present.
func (r *Repository) BranchExists(name string) bool {
	return r.refs.Exists("heads/" + name)
}

// ListBranches returns the sorted branch names and, separately, the name
// of the branch HEAD currently points to ("" if detached/unattached).
func (r *Repository) ListBranches() (names []string, current string, err error) {
	dir := filepath.Join(r.repoDir, "refs", "heads")
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, "", nil
		}
		return nil, "", repoErrorf(readErr, "listing branches")
	}
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	headRef, readErr := r.refs.Read("HEAD")
	if readErr != nil {
		return nil, "", repoErrorf(readErr, "reading HEAD")
	}
	if sym, ok := headRef.(refs.SymRef); ok {
		current = sym.BranchName()
	}
	return names, current, nil
}

// CreateTag writes refs/tags/<name> pointing at targetHash. It fails if
// the tag already exists or targetHash is not a known commit.
func (r *Repository) CreateTag(name string, targetHash objects.Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := validateBranchOrTagName("Tag", name); err != nil {
		return err
	}
	if name != "" && targetHash == "" {
		return &RepositoryError{Msg: "Target commit hash is required"}
	}
	if r.refs.Exists("tags/" + name) {
		return &RepositoryError{Msg: fmt.Sprintf("Tag %q already exists", name)}
	}
	if _, err := r.objects.LoadCommit(targetHash); err != nil {
		return repoErrorf(err, "target commit %s does not exist", targetHash)
	}
	if err := r.refs.Write("tags/"+name, refs.HashRef(targetHash)); err != nil {
		return repoErrorf(err, "creating tag %q", name)
	}
	return nil
}

// DeleteTag removes refs/tags/<name>. It fails if absent.
func (r *Repository) DeleteTag(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := validateBranchOrTagName("Tag", name); err != nil {
		return err
	}
	if !r.refs.Exists("tags/" + name) {
		return &RepositoryError{Msg: fmt.Sprintf("Tag %q does not exist", name)}
	}
	if err := r.refs.Delete("tags/" + name); err != nil {
		return repoErrorf(err, "deleting tag %q", name)
	}
	return nil
}

// ListTags returns the sorted tag names.
func (r *Repository) ListTags() ([]string, error) {
	dir := filepath.Join(r.repoDir, "refs", "tags")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, repoErrorf(err, "listing tags")
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// UpdateRef writes a HashRef to <repoDir>/<refPath> (e.g. "heads/feature").
func (r *Repository) UpdateRef(refPath string, hash objects.Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.refs.Write(refPath, refs.HashRef(hash)); err != nil {
		return repoErrorf(err, "updating ref %q", refPath)
	}
	return nil
}

// ResolveCommit resolves name to a commit hash. name may be "HEAD", a
// 40-char hex hash, a branch name, or a tag name.
func (r *Repository) ResolveCommit(name string) (objects.Hash, error) {
	switch {
	case name == "HEAD":
		hash, err := r.refs.Resolve("HEAD")
		if err != nil {
			return "", repoErrorf(err, "resolving HEAD")
		}
		if hash == "" {
			return "", &RepositoryError{Msg: "unknown revision: HEAD has no commits yet"}
		}
		return hash, nil

	case objects.IsValid(name):
		hash := objects.Hash(name)
		if _, err := r.objects.LoadCommit(hash); err != nil {
			return "", &RepositoryError{Msg: fmt.Sprintf("unknown revision: %s", name), Err: err}
		}
		return hash, nil

	case r.refs.Exists("heads/" + name):
		hash, err := r.refs.Resolve("heads/" + name)
		if err != nil {
			return "", repoErrorf(err, "resolving branch %q", name)
		}
		if hash == "" {
			return "", &RepositoryError{Msg: fmt.Sprintf("unknown revision: branch %q has no commits yet", name)}
		}
		return hash, nil

	case r.refs.Exists("tags/" + name):
		hash, err := r.refs.Resolve("tags/" + name)
		if err != nil {
			return "", repoErrorf(err, "resolving tag %q", name)
		}
		return hash, nil

	default:
		return "", &RepositoryError{Msg: fmt.Sprintf("unknown revision: %q", name)}
	}
}

// CommitWorkingDir snapshots the working directory into a tree, builds a
// Commit referencing it and HEAD's current target as parent, and, if HEAD
// is attached to a branch, advances that branch to the new commit.
func (r *Repository) CommitWorkingDir(author, message string) (objects.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	headRef, err := r.refs.Read("HEAD")
	if err != nil {
		return "", repoErrorf(err, "reading HEAD")
	}
	var parentHash objects.Hash
	var branch string
	if sym, ok := headRef.(refs.SymRef); ok {
		branch = string(sym)
		parentHash, err = r.refs.Resolve("HEAD")
		if err != nil {
			return "", repoErrorf(err, "resolving HEAD")
		}
	}

	hash, err := commitengine.CommitWorkingDir(
		r.objects, r.workDir, r.repoDir,
		commitengine.HeadState{ParentHash: parentHash},
		author, message, time.Now,
	)
	if err != nil {
		return "", repoErrorf(err, "committing working directory")
	}

	if branch != "" {
		if err := r.refs.Write(branch, refs.HashRef(hash)); err != nil {
			return "", repoErrorf(err, "advancing branch")
		}
	}
	return hash, nil
}

// DiffCommits resolves a and b (each "HEAD" if empty) and returns the
// hierarchical diff between their trees.
func (r *Repository) DiffCommits(a, b string) ([]*diffengine.Diff, error) {
	if a == "" {
		a = "HEAD"
	}
	if b == "" {
		b = "HEAD"
	}
	aHash, err := r.ResolveCommit(a)
	if err != nil {
		return nil, err
	}
	bHash, err := r.ResolveCommit(b)
	if err != nil {
		return nil, err
	}
	if aHash == bHash {
		return nil, nil
	}

	aCommit, err := r.objects.LoadCommit(aHash)
	if err != nil {
		return nil, repoErrorf(err, "loading commit %s", aHash)
	}
	bCommit, err := r.objects.LoadCommit(bHash)
	if err != nil {
		return nil, repoErrorf(err, "loading commit %s", bHash)
	}

	diffs, err := diffengine.DiffTrees(r.objects, aCommit.Tree, bCommit.Tree)
	if err != nil {
		return nil, repoErrorf(err, "diffing commits")
	}
	return diffs, nil
}

// CommonAncestor returns the lowest common ancestor of a and b, or "" if
// their histories are disjoint.
func (r *Repository) CommonAncestor(a, b objects.Hash) (objects.Hash, error) {
	hash, err := mergeengine.CommonAncestor(mergeStoreOf(r.objects), a, b)
	if err != nil {
		return "", repoErrorf(err, "finding common ancestor")
	}
	return hash, nil
}

// MergeCommits performs a three-way merge of ours and theirs and returns
// the merged tree hash plus any conflicted paths.
func (r *Repository) MergeCommits(ours, theirs objects.Hash) (mergeengine.Result, error) {
	result, err := mergeengine.MergeCommits(mergeStoreOf(r.objects), ours, theirs)
	if err != nil {
		return mergeengine.Result{}, repoErrorf(err, "merging commits")
	}
	return result, nil
}

// mergeStoreAdapter adapts *store.Store to mergeengine.Store. Go requires an
// interface method's return type to match exactly, and
// (*store.Store).OpenLineSequence returns the concrete *store.LineSequence
// rather than the mergeengine.LineSequence interface it satisfies, so
// *store.Store cannot be passed to mergeengine directly.
type mergeStoreAdapter struct {
	*store.Store
}

func mergeStoreOf(s *store.Store) mergeStoreAdapter { return mergeStoreAdapter{s} }

func (a mergeStoreAdapter) OpenLineSequence(hash objects.Hash) (mergeengine.LineSequence, error) {
	return a.Store.OpenLineSequence(hash)
}

// Objects exposes the underlying object store for callers (e.g. the CLI)
// that need direct read access (hash-file, log).
func (r *Repository) Objects() *store.Store { return r.objects }

// Refs exposes the underlying reference store.
func (r *Repository) Refs() *refs.Store { return r.refs }
