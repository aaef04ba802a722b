package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/forgcli/forg/internal/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFileUpsertIdempotent(t *testing.T) {
	s := openTest(t)
	repo := s.Files()

	now := time.Now().UTC().Truncate(time.Second)
	fi := model.FileInfo{Path: "/a/b.txt", Size: 10, MTime: now}

	id1, err := repo.Upsert(fi)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	id2, err := repo.Upsert(fi)
	if err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected stable id, got %d then %d", id1, id2)
	}

	all, err := repo.IterateAll()
	if err != nil {
		t.Fatalf("IterateAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 row after idempotent upsert, got %d", len(all))
	}

	fi.Size = 20
	if _, err := repo.Upsert(fi); err != nil {
		t.Fatalf("Upsert changed size: %v", err)
	}
	got, ok, err := repo.GetByPath("/a/b.txt")
	if err != nil || !ok {
		t.Fatalf("GetByPath: %v, %v", got, err)
	}
	if got.Size != 20 {
		t.Fatalf("expected updated size 20, got %d", got.Size)
	}
}

func TestDeleteMissing(t *testing.T) {
	s := openTest(t)
	repo := s.Files()

	dir := t.TempDir()
	present := filepath.Join(dir, "present.txt")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	gone := filepath.Join(dir, "gone.txt")

	if _, err := repo.Upsert(model.FileInfo{Path: present, Size: 1, MTime: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Upsert(model.FileInfo{Path: gone, Size: 1, MTime: time.Now()}); err != nil {
		t.Fatal(err)
	}

	removed, err := repo.DeleteMissing([]string{dir})
	if err != nil {
		t.Fatalf("DeleteMissing: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	all, _ := repo.IterateAll()
	if len(all) != 1 || all[0].Path != present {
		t.Fatalf("expected only %s to remain, got %v", present, all)
	}
}

func TestTagsOrderedByConfidence(t *testing.T) {
	s := openTest(t)
	repo := s.Files()
	id, err := repo.Upsert(model.FileInfo{Path: "/x.jpg", Size: 5, MTime: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.AddTag(id, "beach", 0.4, "ai"); err != nil {
		t.Fatal(err)
	}
	if err := repo.AddTag(id, "sunset", 0.9, "ai"); err != nil {
		t.Fatal(err)
	}
	if err := repo.AddTag(id, "beach", 0.95, "ai"); err != nil { // last-write-wins
		t.Fatal(err)
	}

	tags, err := repo.GetTags(id)
	if err != nil {
		t.Fatalf("GetTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	if tags[0].Label != "beach" || tags[0].Confidence != 0.95 {
		t.Fatalf("expected beach(0.95) first, got %+v", tags[0])
	}
}

func TestFindSimilarImages(t *testing.T) {
	s := openTest(t)
	repo := s.Files()
	a, _ := repo.Upsert(model.FileInfo{Path: "/a.jpg", Size: 1, MTime: time.Now()})
	b, _ := repo.Upsert(model.FileInfo{Path: "/b.jpg", Size: 1, MTime: time.Now()})

	if err := repo.AddPerceptualHash(a, model.AlgoAHash, 0x00); err != nil {
		t.Fatal(err)
	}
	if err := repo.AddPerceptualHash(b, model.AlgoAHash, 0x0F); err != nil { // 4 bits differ
		t.Fatal(err)
	}

	matches, err := repo.FindSimilarImages(model.AlgoAHash, 0x00, 4)
	if err != nil {
		t.Fatalf("FindSimilarImages: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected both files within threshold 4, got %v", matches)
	}

	matches, err = repo.FindSimilarImages(model.AlgoAHash, 0x00, 3)
	if err != nil {
		t.Fatalf("FindSimilarImages: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected only exact match within threshold 3, got %v", matches)
	}
}

func TestGetPerceptualHash(t *testing.T) {
	s := openTest(t)
	repo := s.Files()
	a, _ := repo.Upsert(model.FileInfo{Path: "/a.jpg", Size: 1, MTime: time.Now()})

	if _, ok, err := repo.GetPerceptualHash(a, model.AlgoAHash); err != nil || ok {
		t.Fatalf("expected no hash yet, ok=%v err=%v", ok, err)
	}
	if err := repo.AddPerceptualHash(a, model.AlgoAHash, 0x1234); err != nil {
		t.Fatal(err)
	}
	value, ok, err := repo.GetPerceptualHash(a, model.AlgoAHash)
	if err != nil || !ok {
		t.Fatalf("expected stored hash, ok=%v err=%v", ok, err)
	}
	if value != 0x1234 {
		t.Fatalf("got %x, want %x", value, 0x1234)
	}
}

func TestDuplicateReplaceAllTransactional(t *testing.T) {
	s := openTest(t)
	dup := s.Duplicates()
	files := s.Files()

	a, _ := files.Upsert(model.FileInfo{Path: "/a", Size: 2, MTime: time.Now()})
	b, _ := files.Upsert(model.FileInfo{Path: "/b", Size: 2, MTime: time.Now()})

	groups := []model.DuplicateGroup{
		{ContentHash: "deadbeef", Size: 2, MemberIDs: []int64{a, b}, PrimaryFileID: a},
	}
	if err := dup.ReplaceAll(groups); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	got, err := dup.GetAllGroups()
	if err != nil || len(got) != 1 || len(got[0].MemberIDs) != 2 {
		t.Fatalf("GetAllGroups = %+v, %v", got, err)
	}

	if err := dup.ReplaceAll(nil); err != nil {
		t.Fatalf("ReplaceAll(nil): %v", err)
	}
	got, err = dup.GetAllGroups()
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty set after ReplaceAll(nil), got %+v", got)
	}
}

func TestOperationLogAndUndoMove(t *testing.T) {
	s := openTest(t)
	ops := s.Operations()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(src, dst); err != nil {
		t.Fatal(err)
	}

	id, err := ops.LogOperation(model.OperationRecord{
		Timestamp: time.Now(), Type: model.OpMove, SourcePath: src, DestPath: dst, FileSize: 2,
	})
	if err != nil {
		t.Fatalf("LogOperation: %v", err)
	}
	if id == 0 {
		t.Fatal("expected nonzero operation id")
	}

	rec, unrecoverable, err := ops.UndoLast()
	if err != nil {
		t.Fatalf("UndoLast: %v", err)
	}
	if unrecoverable {
		t.Fatal("move should be recoverable")
	}
	if !rec.Undone {
		t.Fatal("expected Undone=true")
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("expected %s restored: %v", src, err)
	}

	_, _, err = ops.UndoLast()
	if err != ErrNoOperations {
		t.Fatalf("expected ErrNoOperations on second undo, got %v", err)
	}

	all, err := ops.GetAll(0)
	if err != nil || len(all) != 1 || !all[0].Undone {
		t.Fatalf("GetAll = %+v, %v", all, err)
	}
}
