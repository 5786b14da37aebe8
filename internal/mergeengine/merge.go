package mergeengine

import (
	"errors"
	"fmt"
	"path"

	"github.com/cafvcs/caf/internal/objects"
)

// MergeError reports a failure specific to the merge algorithm: no common
// ancestor, or a commit/tree that could not be loaded mid-merge.
type MergeError struct {
	Msg string
	Err error
}

func (e *MergeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *MergeError) Unwrap() error { return e.Err }

func mergeErrorf(err error, format string, args ...any) error {
	return &MergeError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// Result is the output of a three-way merge: the merged root tree hash and
// the fully-qualified paths where a conflict was recorded.
type Result struct {
	TreeHash  objects.Hash
	Conflicts []string
}

// mergeBlobBinary selects between two binary blob versions, or marks a
// conflict, following the fixed priority policy: identical sides win with
// no conflict; a side unchanged from base defers to the other side; else
// ours wins and the path is flagged.
func mergeBlobBinary(baseHash, oursHash, theirsHash objects.Hash) (objects.Hash, bool, error) {
	if oursHash == theirsHash {
		return oursHash, false, nil
	}
	if baseHash == oursHash && theirsHash != "" {
		return theirsHash, false, nil
	}
	if baseHash == theirsHash && oursHash != "" {
		return oursHash, false, nil
	}
	if oursHash != "" {
		return oursHash, true, nil
	}
	if theirsHash != "" {
		return theirsHash, true, nil
	}
	return "", false, &MergeError{Msg: "cannot merge binary blobs without any valid version"}
}

// mergeBlob merges two blob versions given their common ancestor, dispatching
// to the binary or text strategy based on content sniffing of either side.
func mergeBlob(s Store, baseHash, oursHash, theirsHash objects.Hash) (objects.Hash, bool, error) {
	if isBinaryBlob(s, oursHash) || isBinaryBlob(s, theirsHash) {
		return mergeBlobBinary(baseHash, oursHash, theirsHash)
	}
	return mergeBlobText(s, baseHash, oursHash, theirsHash)
}

func recordsEqual(a, b *objects.TreeRecord) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// mergeTrees recursively three-way merges base/ours/theirs (any may be nil,
// meaning "absent"), saving the merged subtree and returning its hash.
// pathPrefix is the slash-joined path of this subtree from the merge root,
// used to qualify conflict paths; conflicts accumulates across the whole
// recursion.
func mergeTrees(s Store, base, ours, theirs *objects.Tree, pathPrefix string, conflicts *[]string) (objects.Hash, error) {
	names := unionNames(base, ours, theirs)
	var merged []objects.TreeRecord

	for _, name := range names {
		b := base.Get(name)
		o := ours.Get(name)
		t := theirs.Get(name)
		p := name
		if pathPrefix != "" {
			p = path.Join(pathPrefix, name)
		}

		switch {
		case recordsEqual(o, t):
			if o != nil {
				merged = append(merged, *o)
			}

		case recordsEqual(b, o):
			if t != nil {
				merged = append(merged, *t)
			}

		case recordsEqual(b, t):
			if o != nil {
				merged = append(merged, *o)
			}

		case o != nil && t != nil && o.Type == objects.TreeRecordKind && t.Type == objects.TreeRecordKind:
			var baseSub *objects.Tree
			if b != nil && b.Type == objects.TreeRecordKind {
				sub, err := s.LoadTree(b.Hash)
				if err != nil {
					return "", mergeErrorf(err, "loading base subtree %q", p)
				}
				baseSub = sub
			}
			oursSub, err := s.LoadTree(o.Hash)
			if err != nil {
				return "", mergeErrorf(err, "loading ours subtree %q", p)
			}
			theirsSub, err := s.LoadTree(t.Hash)
			if err != nil {
				return "", mergeErrorf(err, "loading theirs subtree %q", p)
			}
			mergedHash, err := mergeTrees(s, baseSub, oursSub, theirsSub, p, conflicts)
			if err != nil {
				return "", err
			}
			merged = append(merged, objects.TreeRecord{Type: objects.TreeRecordKind, Hash: mergedHash, Name: name})

		case o != nil && t != nil && o.Type == objects.BlobRecord && t.Type == objects.BlobRecord:
			var baseHash objects.Hash
			if b != nil && b.Type == objects.BlobRecord {
				baseHash = b.Hash
			}
			mergedHash, conflict, err := mergeBlob(s, baseHash, o.Hash, t.Hash)
			if err != nil {
				return "", err
			}
			if conflict {
				*conflicts = append(*conflicts, p)
			}
			merged = append(merged, objects.TreeRecord{Type: objects.BlobRecord, Hash: mergedHash, Name: name})

		default:
			chosen := o
			if chosen == nil {
				chosen = t
			}
			if chosen != nil {
				merged = append(merged, *chosen)
			}
			*conflicts = append(*conflicts, p)
		}
	}

	mergedTree, err := objects.NewTree(merged)
	if err != nil {
		return "", fmt.Errorf("building merged tree at %q: %w", pathPrefix, err)
	}
	return s.SaveTree(mergedTree)
}

func unionNames(trees ...*objects.Tree) []string {
	set := make(map[string]struct{})
	var order []string
	for _, t := range trees {
		for _, n := range t.Names() {
			if _, ok := set[n]; !ok {
				set[n] = struct{}{}
				order = append(order, n)
			}
		}
	}
	// re-sort since the union of already-sorted lists isn't necessarily
	// sorted as concatenated.
	sortStrings(order)
	return order
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// CommonAncestor walks a's parent chain into a set, then walks b's parent
// chain returning the first hash found in that set, or "" if the chains
// are disjoint.
func CommonAncestor(s Store, a, b objects.Hash) (objects.Hash, error) {
	ancestors := make(map[objects.Hash]struct{})
	current := a
	for current != "" {
		ancestors[current] = struct{}{}
		c, err := s.LoadCommit(current)
		if err != nil {
			return "", mergeErrorf(err, "loading commit %s during ancestor search", current)
		}
		current = c.Parent
	}

	current = b
	for current != "" {
		if _, ok := ancestors[current]; ok {
			return current, nil
		}
		c, err := s.LoadCommit(current)
		if err != nil {
			return "", mergeErrorf(err, "loading commit %s during ancestor search", current)
		}
		current = c.Parent
	}
	return "", nil
}

// ErrNoCommonAncestor is returned by MergeCommits when ours and theirs share
// no ancestor.
var ErrNoCommonAncestor = errors.New("no common ancestor found for merge")

// MergeCommits performs a three-way merge of ours and theirs using their
// common ancestor as base, recursively merging their root trees. The
// result's tree is saved to the store; no commit object is created — the
// caller decides whether and how to commit the merged tree.
func MergeCommits(s Store, oursHash, theirsHash objects.Hash) (Result, error) {
	ancestorHash, err := CommonAncestor(s, oursHash, theirsHash)
	if err != nil {
		return Result{}, err
	}
	if ancestorHash == "" {
		return Result{}, &MergeError{Msg: "cannot merge", Err: ErrNoCommonAncestor}
	}

	oursCommit, err := s.LoadCommit(oursHash)
	if err != nil {
		return Result{}, mergeErrorf(err, "loading ours commit")
	}
	theirsCommit, err := s.LoadCommit(theirsHash)
	if err != nil {
		return Result{}, mergeErrorf(err, "loading theirs commit")
	}
	ancestorCommit, err := s.LoadCommit(ancestorHash)
	if err != nil {
		return Result{}, mergeErrorf(err, "loading ancestor commit")
	}

	oursTree, err := s.LoadTree(oursCommit.Tree)
	if err != nil {
		return Result{}, mergeErrorf(err, "loading ours tree")
	}
	theirsTree, err := s.LoadTree(theirsCommit.Tree)
	if err != nil {
		return Result{}, mergeErrorf(err, "loading theirs tree")
	}
	ancestorTree, err := s.LoadTree(ancestorCommit.Tree)
	if err != nil {
		return Result{}, mergeErrorf(err, "loading ancestor tree")
	}

	var conflicts []string
	treeHash, err := mergeTrees(s, ancestorTree, oursTree, theirsTree, "", &conflicts)
	if err != nil {
		return Result{}, err
	}
	return Result{TreeHash: treeHash, Conflicts: conflicts}, nil
}
