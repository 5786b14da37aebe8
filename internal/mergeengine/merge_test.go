package mergeengine

import (
	"bytes"
	"testing"

	"github.com/cafvcs/caf/internal/objects"
)

// memStore is a minimal in-memory Store for exercising the merge engine
// without touching a real object-store directory.
type memStore struct {
	blobs   map[objects.Hash][]byte
	trees   map[objects.Hash]*objects.Tree
	commits map[objects.Hash]objects.Commit
}

func newMemStore() *memStore {
	return &memStore{
		blobs:   make(map[objects.Hash][]byte),
		trees:   make(map[objects.Hash]*objects.Tree),
		commits: make(map[objects.Hash]objects.Commit),
	}
}

func (m *memStore) LoadBlob(hash objects.Hash) (objects.Blob, error) {
	c, ok := m.blobs[hash]
	if !ok {
		return objects.Blob{}, errNotFound(hash)
	}
	return objects.Blob{Content: c}, nil
}

func (m *memStore) SaveBlob(b objects.Blob) (objects.Hash, error) {
	h := b.Hash()
	m.blobs[h] = b.Content
	return h, nil
}

func (m *memStore) LoadTree(hash objects.Hash) (*objects.Tree, error) {
	t, ok := m.trees[hash]
	if !ok {
		return nil, errNotFound(hash)
	}
	return t, nil
}

func (m *memStore) SaveTree(t *objects.Tree) (objects.Hash, error) {
	h := t.Hash()
	m.trees[h] = t
	return h, nil
}

func (m *memStore) LoadCommit(hash objects.Hash) (objects.Commit, error) {
	c, ok := m.commits[hash]
	if !ok {
		return objects.Commit{}, errNotFound(hash)
	}
	return c, nil
}

func (m *memStore) SaveCommit(c objects.Commit) objects.Hash {
	h := c.Hash()
	m.commits[h] = c
	return h
}

func (m *memStore) OpenLineSequence(hash objects.Hash) (LineSequence, error) {
	if hash == "" {
		return &memLineSeq{}, nil
	}
	content, ok := m.blobs[hash]
	if !ok {
		return nil, errNotFound(hash)
	}
	var offsets []int
	if len(content) > 0 {
		offsets = []int{0}
		for i, c := range content {
			if c == '\n' && i+1 < len(content) {
				offsets = append(offsets, i+1)
			}
		}
	}
	return &memLineSeq{content: content, offsets: offsets}, nil
}

type memLineSeq struct {
	content []byte
	offsets []int
}

func (s *memLineSeq) Len() int { return len(s.offsets) }

func (s *memLineSeq) Line(i int) []byte {
	start := s.offsets[i]
	var end int
	if i+1 < len(s.offsets) {
		end = s.offsets[i+1]
	} else {
		end = len(s.content)
	}
	return s.content[start:end]
}

func (s *memLineSeq) Bytes() []byte { return s.content }

func (s *memLineSeq) Close() error { return nil }

type errNotFound objects.Hash

func (e errNotFound) Error() string { return "not found: " + string(e) }

func saveBlob(t *testing.T, s *memStore, content string) objects.Hash {
	t.Helper()
	h, err := s.SaveBlob(objects.Blob{Content: []byte(content)})
	if err != nil {
		t.Fatalf("SaveBlob: %v", err)
	}
	return h
}

func saveTree(t *testing.T, s *memStore, records ...objects.TreeRecord) objects.Hash {
	t.Helper()
	tree, err := objects.NewTree(records)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	h, err := s.SaveTree(tree)
	if err != nil {
		t.Fatalf("SaveTree: %v", err)
	}
	return h
}

func TestMergeBlobBinaryPolicy(t *testing.T) {
	s := newMemStore()
	base := saveBlob(t, s, "\x00\x01base")
	ours := saveBlob(t, s, "\x00\x01ours")
	theirs := saveBlob(t, s, "\x00\x01theirs")

	hash, conflict, err := mergeBlob(s, base, ours, theirs)
	if err != nil {
		t.Fatalf("mergeBlob: %v", err)
	}
	if hash != ours {
		t.Fatalf("expected ours to win binary conflict, got %s want %s", hash, ours)
	}
	if !conflict {
		t.Fatal("expected conflict to be reported")
	}
}

func TestMergeBlobBinaryNoConflictWhenIdentical(t *testing.T) {
	s := newMemStore()
	base := saveBlob(t, s, "\x00base")
	same := saveBlob(t, s, "\x00same")

	hash, conflict, err := mergeBlob(s, base, same, same)
	if err != nil {
		t.Fatalf("mergeBlob: %v", err)
	}
	if hash != same || conflict {
		t.Fatalf("expected clean merge to %s, got %s conflict=%v", same, hash, conflict)
	}
}

func TestMergeBlobTextConflictMarkers(t *testing.T) {
	s := newMemStore()
	base := saveBlob(t, s, "base")
	ours := saveBlob(t, s, "main change")
	theirs := saveBlob(t, s, "feature change")

	hash, conflict, err := mergeBlob(s, base, ours, theirs)
	if err != nil {
		t.Fatalf("mergeBlob: %v", err)
	}
	if !conflict {
		t.Fatal("expected text conflict")
	}
	got := s.blobs[hash]
	want := []byte("<<<<<<< ours\nmain change=======\nfeature change>>>>>>> theirs\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("conflict marker bytes = %q, want %q", got, want)
	}
}

func TestMergeTreesNonConflicting(t *testing.T) {
	s := newMemStore()
	fileA := saveBlob(t, s, "base")
	baseTree := saveTree(t, s, objects.TreeRecord{Type: objects.BlobRecord, Hash: fileA, Name: "file_a"})

	fileAOurs := saveBlob(t, s, "main change")
	fileB := saveBlob(t, s, "feature content")
	oursTree := saveTree(t, s,
		objects.TreeRecord{Type: objects.BlobRecord, Hash: fileAOurs, Name: "file_a"},
		objects.TreeRecord{Type: objects.BlobRecord, Hash: fileB, Name: "file_b"},
	)
	theirsTree := saveTree(t, s,
		objects.TreeRecord{Type: objects.BlobRecord, Hash: fileA, Name: "file_a"},
		objects.TreeRecord{Type: objects.BlobRecord, Hash: fileB, Name: "file_b"},
	)

	bt, _ := s.LoadTree(baseTree)
	ot, _ := s.LoadTree(oursTree)
	tt, _ := s.LoadTree(theirsTree)

	var conflicts []string
	mergedHash, err := mergeTrees(s, bt, ot, tt, "", &conflicts)
	if err != nil {
		t.Fatalf("mergeTrees: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", conflicts)
	}
	merged, err := s.LoadTree(mergedHash)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if merged.Get("file_a").Hash != fileAOurs {
		t.Fatalf("expected file_a to take ours' hash")
	}
	if merged.Get("file_b").Hash != fileB {
		t.Fatalf("expected file_b to be present")
	}
}

func TestCommonAncestorLinear(t *testing.T) {
	s := newMemStore()
	tree := saveTree(t, s)
	a := s.SaveCommit(objects.Commit{Tree: tree, Author: "x", Message: "A", Timestamp: 1})
	b := s.SaveCommit(objects.Commit{Tree: tree, Parent: a, Author: "x", Message: "B", Timestamp: 2})

	got, err := CommonAncestor(s, b, a)
	if err != nil {
		t.Fatalf("CommonAncestor: %v", err)
	}
	if got != a {
		t.Fatalf("CommonAncestor(B, A) = %s, want %s", got, a)
	}

	got2, err := CommonAncestor(s, a, b)
	if err != nil {
		t.Fatalf("CommonAncestor: %v", err)
	}
	if got2 != got {
		t.Fatalf("CommonAncestor should be symmetric: %s != %s", got2, got)
	}
}

func TestMergeCommitsSelfMergeIsConflictFree(t *testing.T) {
	s := newMemStore()
	fileA := saveBlob(t, s, "content")
	tree := saveTree(t, s, objects.TreeRecord{Type: objects.BlobRecord, Hash: fileA, Name: "file_a"})
	commitHash := s.SaveCommit(objects.Commit{Tree: tree, Author: "x", Message: "init", Timestamp: 1})

	result, err := MergeCommits(s, commitHash, commitHash)
	if err != nil {
		t.Fatalf("MergeCommits: %v", err)
	}
	if len(result.Conflicts) != 0 {
		t.Fatalf("expected no conflicts merging a commit with itself, got %v", result.Conflicts)
	}
	if result.TreeHash != tree {
		t.Fatalf("expected merged tree hash to equal original tree hash: %s != %s", result.TreeHash, tree)
	}
}

func TestMergeCommitsNoCommonAncestor(t *testing.T) {
	s := newMemStore()
	tree := saveTree(t, s)
	a := s.SaveCommit(objects.Commit{Tree: tree, Author: "x", Message: "A", Timestamp: 1})
	b := s.SaveCommit(objects.Commit{Tree: tree, Author: "x", Message: "B", Timestamp: 2})

	_, err := MergeCommits(s, a, b)
	if err == nil {
		t.Fatal("expected MergeError for disjoint histories")
	}
}
