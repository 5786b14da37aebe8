package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cafvcs/caf/internal/objects"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "objects"))
}

func TestSaveLoadBlobRoundTrip(t *testing.T) {
	s := newTestStore(t)
	b := objects.Blob{Content: []byte("hello\n")}

	hash, err := s.SaveBlob(b)
	if err != nil {
		t.Fatalf("SaveBlob: %v", err)
	}
	if hash != b.Hash() {
		t.Fatalf("SaveBlob returned %s, want %s", hash, b.Hash())
	}

	loaded, err := s.LoadBlob(hash)
	if err != nil {
		t.Fatalf("LoadBlob: %v", err)
	}
	if !bytes.Equal(loaded.Content, b.Content) {
		t.Fatalf("LoadBlob content mismatch: got %q, want %q", loaded.Content, b.Content)
	}
}

func TestShardedPathLayout(t *testing.T) {
	s := newTestStore(t)
	b := objects.Blob{Content: []byte("shard test")}
	hash, err := s.SaveBlob(b)
	if err != nil {
		t.Fatalf("SaveBlob: %v", err)
	}
	want := filepath.Join(s.Dir(), string(hash)[:2], string(hash))
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected object at %s: %v", want, err)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	b := objects.Blob{Content: []byte("idempotent")}
	h1, err := s.SaveBlob(b)
	if err != nil {
		t.Fatalf("SaveBlob: %v", err)
	}
	h2, err := s.SaveBlob(b)
	if err != nil {
		t.Fatalf("second SaveBlob: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hash changed across saves: %s != %s", h1, h2)
	}
}

func TestLoadMissingObject(t *testing.T) {
	s := newTestStore(t)
	missing := objects.Hash("000000000000000000000000000000000000000a")
	if _, err := s.LoadBlob(missing); err == nil {
		t.Fatal("expected error loading missing object")
	}
	if _, err := s.OpenForReading(missing); err == nil {
		t.Fatal("expected error opening missing object for reading")
	}
}

func TestDeleteMissingObjectIsNoop(t *testing.T) {
	s := newTestStore(t)
	missing := objects.Hash("000000000000000000000000000000000000000a")
	if err := s.Delete(missing); err != nil {
		t.Fatalf("Delete of missing object should be idempotent, got: %v", err)
	}
}

func TestHashExists(t *testing.T) {
	s := newTestStore(t)
	b := objects.Blob{Content: []byte("present")}
	hash, err := s.SaveBlob(b)
	if err != nil {
		t.Fatalf("SaveBlob: %v", err)
	}
	if !s.HashExists(hash) {
		t.Fatal("expected HashExists to be true after save")
	}
	if s.HashExists(objects.Hash("000000000000000000000000000000000000000a")) {
		t.Fatal("expected HashExists to be false for missing hash")
	}
}

func TestTreeAndCommitRoundTrip(t *testing.T) {
	s := newTestStore(t)
	blobHash, err := s.SaveBlob(objects.Blob{Content: []byte("file content")})
	if err != nil {
		t.Fatalf("SaveBlob: %v", err)
	}
	tree, err := objects.NewTree([]objects.TreeRecord{
		{Type: objects.BlobRecord, Hash: blobHash, Name: "file.txt"},
	})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	treeHash, err := s.SaveTree(tree)
	if err != nil {
		t.Fatalf("SaveTree: %v", err)
	}
	loadedTree, err := s.LoadTree(treeHash)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if loadedTree.Hash() != treeHash {
		t.Fatalf("loaded tree hash mismatch: %s != %s", loadedTree.Hash(), treeHash)
	}

	commit := objects.Commit{Tree: treeHash, Author: "tester", Message: "msg", Timestamp: 1700000000}
	commitHash, err := s.SaveCommit(commit)
	if err != nil {
		t.Fatalf("SaveCommit: %v", err)
	}
	loadedCommit, err := s.LoadCommit(commitHash)
	if err != nil {
		t.Fatalf("LoadCommit: %v", err)
	}
	if loadedCommit != commit {
		t.Fatalf("loaded commit mismatch: got %+v, want %+v", loadedCommit, commit)
	}
}

func TestOpenLineSequence(t *testing.T) {
	s := newTestStore(t)
	hash, err := s.SaveBlob(objects.Blob{Content: []byte("one\ntwo\nthree")})
	if err != nil {
		t.Fatalf("SaveBlob: %v", err)
	}
	seq, err := s.OpenLineSequence(hash)
	if err != nil {
		t.Fatalf("OpenLineSequence: %v", err)
	}
	defer seq.Close()

	if seq.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", seq.Len())
	}
	if string(seq.Line(0)) != "one\n" {
		t.Fatalf("Line(0) = %q, want %q", seq.Line(0), "one\n")
	}
	if string(seq.Line(2)) != "three" {
		t.Fatalf("Line(2) = %q, want %q", seq.Line(2), "three")
	}
}

func TestOpenLineSequenceEmptyHash(t *testing.T) {
	s := newTestStore(t)
	seq, err := s.OpenLineSequence("")
	if err != nil {
		t.Fatalf("OpenLineSequence(\"\"): %v", err)
	}
	if seq.Len() != 0 {
		t.Fatalf("expected empty sequence, got Len() = %d", seq.Len())
	}
}

func TestOpenForWritingPublishesAtomically(t *testing.T) {
	s := newTestStore(t)
	content := []byte("streamed content")
	hash := objects.HashFile(content)

	w, err := s.OpenForWriting(hash)
	if err != nil {
		t.Fatalf("OpenForWriting: %v", err)
	}
	if _, err := w.Write(content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	loaded, err := s.LoadBlob(hash)
	if err != nil {
		t.Fatalf("LoadBlob: %v", err)
	}
	if !bytes.Equal(loaded.Content, content) {
		t.Fatalf("content mismatch: got %q, want %q", loaded.Content, content)
	}
}
