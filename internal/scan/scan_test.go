package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/forgcli/forg/internal/config"
	"github.com/forgcli/forg/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "scan.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestWalkDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c/d.txt"} {
		full := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s := New(newStore(t).Files())
	res, err := s.Walk(context.Background(), []string{root}, Options{})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	var names []string
	for _, f := range res.Files {
		names = append(names, filepath.Base(f.Path))
	}
	// pre-order DFS, siblings sorted lexicographically: a.txt, b.txt, c, c/d.txt
	want := []string{"a.txt", "b.txt", "c", "d.txt"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("position %d: got %q, want %q (full: %v)", i, names[i], want[i], names)
		}
	}
}

func TestWalkIdempotent(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	st := newStore(t)
	s := New(st.Files())

	r1, err := s.Walk(context.Background(), []string{root}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	r2, err := s.Walk(context.Background(), []string{root}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(r1.Files) != len(r2.Files) {
		t.Fatalf("expected stable file count, got %d then %d", len(r1.Files), len(r2.Files))
	}
	all, err := st.Files().IterateAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(r1.Files) {
		t.Fatalf("expected repo row count unchanged by second scan, got %d rows for %d files", len(all), len(r1.Files))
	}
}

func TestExtensionAllowList(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.jpg"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(root, "b.txt"), []byte("x"), 0o644)

	s := New(newStore(t).Files())
	res, err := s.Walk(context.Background(), []string{root}, Options{Extensions: []string{".JPG"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 1 || filepath.Base(res.Files[0].Path) != "a.jpg" {
		t.Fatalf("expected only a.jpg, got %v", res.Files)
	}
}

func TestPruneRemovesMissing(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "keep.txt")
	gone := filepath.Join(root, "gone.txt")
	os.WriteFile(keep, []byte("x"), 0o644)
	os.WriteFile(gone, []byte("x"), 0o644)

	st := newStore(t)
	s := New(st.Files())
	if _, err := s.Walk(context.Background(), []string{root}, Options{}); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Walk(context.Background(), []string{root}, Options{Prune: true}); err != nil {
		t.Fatal(err)
	}

	all, err := st.Files().IterateAll()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range all {
		if f.Path == gone {
			t.Fatalf("expected %s pruned, still present: %v", gone, all)
		}
	}
}

func TestWalkCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		os.WriteFile(filepath.Join(root, string(rune('a'+i))+".txt"), []byte("x"), 0o644)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(newStore(t).Files())
	res, err := s.Walk(ctx, []string{root}, Options{})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if !res.Cancelled {
		t.Fatal("expected Cancelled=true for pre-cancelled context")
	}
}

func TestWalkSkipsExcludedGlobs(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644)
	os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0o755)
	os.WriteFile(filepath.Join(root, "node_modules", "pkg", "b.txt"), []byte("x"), 0o644)
	os.MkdirAll(filepath.Join(root, ".git"), 0o755)
	os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("x"), 0o644)

	s := New(newStore(t).Files())
	skip := config.SkipGlobs{ExcludeGlobs: []string{"node_modules/**", ".git/**"}}
	res, err := s.Walk(context.Background(), []string{root}, Options{Skip: skip})
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range res.Files {
		name := filepath.Base(f.Path)
		if name == "b.txt" || name == "HEAD" {
			t.Fatalf("expected excluded paths skipped, got %v", res.Files)
		}
	}
	var sawA bool
	for _, f := range res.Files {
		if filepath.Base(f.Path) == "a.txt" {
			sawA = true
		}
	}
	if !sawA {
		t.Fatal("expected a.txt to still be visited")
	}
}

func TestWalkMissingRootIsNotFound(t *testing.T) {
	s := New(newStore(t).Files())
	_, err := s.Walk(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, Options{})
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}
