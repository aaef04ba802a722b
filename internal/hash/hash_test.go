package hash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/forgcli/forg/internal/model"
	"github.com/forgcli/forg/internal/store"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFast64Deterministic(t *testing.T) {
	path := writeTemp(t, "hello world")
	h := NewFast64()
	a, err := h.Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, _ := h.Hash(path)
	if a != b {
		t.Fatalf("expected deterministic hash, got %q then %q", a, b)
	}
	if h.Name() != Fast64Name {
		t.Fatalf("Name() = %q, want %q", h.Name(), Fast64Name)
	}
}

func TestFast64DiffersOnContent(t *testing.T) {
	h := NewFast64()
	a, _ := h.Hash(writeTemp(t, "hi"))
	b, _ := h.Hash(writeTemp(t, "bye"))
	if a == b {
		t.Fatal("expected different hashes for different content")
	}
}

func TestSHA256KnownValue(t *testing.T) {
	path := writeTemp(t, "")
	got, err := NewSHA256().Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Fatalf("Hash(empty) = %q, want %q", got, want)
	}
}

func TestServicePersists(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "t.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	repo := s.Files()
	path := writeTemp(t, "abc")
	id, err := repo.Upsert(model.FileInfo{Path: path, Size: 3})
	if err != nil {
		t.Fatal(err)
	}

	svc := NewService(NewFast64(), repo)
	value, err := svc.HashFile(id, path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}

	stored, ok, err := repo.GetHash(id, Fast64Name)
	if err != nil || !ok || stored != value {
		t.Fatalf("GetHash = %q, %v, %v; want %q", stored, ok, err, value)
	}
}
