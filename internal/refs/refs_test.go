package refs

import (
	"testing"

	"github.com/cafvcs/caf/internal/objects"
)

func TestReadWriteHashRef(t *testing.T) {
	s := New(t.TempDir())
	want := HashRef("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	if err := s.Write("heads/main", want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("heads/main")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != want {
		t.Fatalf("Read() = %v, want %v", got, want)
	}
}

func TestReadWriteSymRef(t *testing.T) {
	s := New(t.TempDir())
	want := SymRef("heads/main")
	if err := s.Write("HEAD", want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("HEAD")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != want {
		t.Fatalf("Read() = %v, want %v", got, want)
	}
}

func TestEmptyRefIsNil(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Write("heads/empty", nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("heads/empty")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestReadMissingRefIsError(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Read("heads/does-not-exist"); err == nil {
		t.Fatal("expected error reading a missing ref file, got nil")
	}
}

func TestBranchName(t *testing.T) {
	if got := SymRef("heads/feature/login").BranchName(); got != "login" {
		t.Fatalf("BranchName() = %q, want %q", got, "login")
	}
	if got := BranchRef("main"); got != SymRef("heads/main") {
		t.Fatalf("BranchRef(\"main\") = %v, want heads/main", got)
	}
}

func TestResolveFollowsSymRefChain(t *testing.T) {
	s := New(t.TempDir())
	commit := HashRef("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	if err := s.Write("heads/main", commit); err != nil {
		t.Fatalf("Write branch: %v", err)
	}
	if err := s.Write("HEAD", SymRef("heads/main")); err != nil {
		t.Fatalf("Write HEAD: %v", err)
	}
	hash, err := s.Resolve("HEAD")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if hash != commit.Hash() {
		t.Fatalf("Resolve() = %s, want %s", hash, commit.Hash())
	}
}

func TestResolveEmptyBranchYieldsNoHash(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Write("heads/main", nil); err != nil {
		t.Fatalf("Write branch: %v", err)
	}
	if err := s.Write("HEAD", SymRef("heads/main")); err != nil {
		t.Fatalf("Write HEAD: %v", err)
	}
	hash, err := s.Resolve("HEAD")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if hash != objects.Hash("") {
		t.Fatalf("Resolve() = %s, want empty", hash)
	}
}

func TestResolveDetectsCycle(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Write("heads/a", SymRef("heads/b")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write("heads/b", SymRef("heads/a")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_, err := s.Resolve("heads/a")
	if err == nil || !IsCycleError(err) {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestResolveHeadReportsBranch(t *testing.T) {
	s := New(t.TempDir())
	commit := HashRef("cccccccccccccccccccccccccccccccccccccccc")
	if err := s.Write("heads/main", commit); err != nil {
		t.Fatalf("Write branch: %v", err)
	}
	if err := s.Write("HEAD", SymRef("heads/main")); err != nil {
		t.Fatalf("Write HEAD: %v", err)
	}
	hash, branch, err := s.ResolveHead()
	if err != nil {
		t.Fatalf("ResolveHead: %v", err)
	}
	if branch != "main" {
		t.Fatalf("branch = %q, want %q", branch, "main")
	}
	if hash != commit.Hash() {
		t.Fatalf("hash = %s, want %s", hash, commit.Hash())
	}
}

func TestMalformedRefContentIsError(t *testing.T) {
	s := New(t.TempDir())
	// Write raw invalid content directly, bypassing Write's type safety.
	if err := s.Write("heads/bad", rawRef("not-a-hash-and-not-a-symref")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := s.Read("heads/bad"); err == nil {
		t.Fatal("expected RefError for malformed content")
	}
}

type rawRef string

func (rawRef) isRef() {}

func (r rawRef) Encode() string { return string(r) }
