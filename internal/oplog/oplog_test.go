package oplog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/forgcli/forg/internal/store"
)

func newTestLog(t *testing.T) (*Log, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "oplog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	l := New(s.Operations())
	l.Now = func() time.Time { return time.Unix(0, 0).UTC() }
	return l, s
}

func TestMoveLogsAndExecutes(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.txt")
	dest := filepath.Join(dir, "sub", "b.txt")
	if err := os.WriteFile(source, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, s := newTestLog(t)
	rec, err := l.Move(source, dest)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected dest to exist: %v", err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatalf("expected source gone, stat err=%v", err)
	}

	all, err := s.Operations().GetAll(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != rec.ID {
		t.Fatalf("expected logged record, got %+v", all)
	}
}

func TestCopyPreservesSourceAndLogs(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.txt")
	dest := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(source, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, _ := newTestLog(t)
	if _, err := l.Copy(source, dest); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("expected source to remain: %v", err)
	}
	content, err := os.ReadFile(dest)
	if err != nil || string(content) != "hello" {
		t.Fatalf("expected copied content, got %q err=%v", content, err)
	}
}

func TestDeleteLogsUnrecoverable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, s := newTestLog(t)
	if _, err := l.Delete(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected file removed")
	}

	_, unrecoverable, err := s.Operations().UndoLast()
	if err != nil {
		t.Fatal(err)
	}
	if !unrecoverable {
		t.Fatal("expected delete undo to be unrecoverable")
	}
}

func TestMoveLogsBeforeMutationSurvivesMutationFailure(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(source, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	// dest's parent is a regular file, so MkdirAll(filepath.Dir(dest))
	// fails after the log row is already written.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(blocker, "b.txt")

	l, s := newTestLog(t)
	rec, err := l.Move(source, dest)
	if err == nil {
		t.Fatal("expected Move to fail when dest's parent can't be created")
	}

	all, err := s.Operations().GetAll(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != rec.ID {
		t.Fatalf("expected the log row to survive the mutation failure (ordering guarantee (iii)), got %+v", all)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("expected source left in place since the mutation never ran: %v", err)
	}
}

func TestMoveThenUndoRestoresFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.txt")
	dest := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(source, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, s := newTestLog(t)
	if _, err := l.Move(source, dest); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Operations().UndoLast(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("expected source restored: %v", err)
	}
}
