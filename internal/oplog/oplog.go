// Package oplog appends an entry to the append-only operation log and
// only then performs the corresponding filesystem mutation (move, copy,
// rename, delete), per spec.md §5 ordering guarantee (iii): an operation
// is logged before its filesystem mutation is considered durable. A
// crash between the log write and the mutation leaves a "pending" row
// that store.OperationRepository.UndoLast will attempt and fail cleanly
// on, rather than a completed mutation with no record of it.
package oplog

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/model"
	"github.com/forgcli/forg/internal/store"
)

// Log executes filesystem operations and records them.
type Log struct {
	Operations *store.OperationRepository
	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// New builds a Log backed by repo.
func New(repo *store.OperationRepository) *Log {
	return &Log{Operations: repo, Now: time.Now}
}

func (l *Log) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Move logs an OpMove record, then renames source to dest, creating
// dest's parent directories as needed.
func (l *Log) Move(source, dest string) (model.OperationRecord, error) {
	size, err := fileSize(source)
	if err != nil {
		return model.OperationRecord{}, err
	}
	rec, err := l.record(model.OpMove, source, dest, size)
	if err != nil {
		return model.OperationRecord{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return rec, forgerr.New(forgerr.IoError, "Log.Move", err)
	}
	if err := os.Rename(source, dest); err != nil {
		return rec, forgerr.New(forgerr.IoError, "Log.Move", err)
	}
	return rec, nil
}

// Rename is Move under a distinct operation type, for same-directory
// renames driven by the rule engine's {name} template output.
func (l *Log) Rename(source, dest string) (model.OperationRecord, error) {
	size, err := fileSize(source)
	if err != nil {
		return model.OperationRecord{}, err
	}
	rec, err := l.record(model.OpRename, source, dest, size)
	if err != nil {
		return model.OperationRecord{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return rec, forgerr.New(forgerr.IoError, "Log.Rename", err)
	}
	if err := os.Rename(source, dest); err != nil {
		return rec, forgerr.New(forgerr.IoError, "Log.Rename", err)
	}
	return rec, nil
}

// Copy logs an OpCopy record, then duplicates source to dest, creating
// dest's parent directories as needed.
func (l *Log) Copy(source, dest string) (model.OperationRecord, error) {
	size, err := fileSize(source)
	if err != nil {
		return model.OperationRecord{}, err
	}
	rec, err := l.record(model.OpCopy, source, dest, size)
	if err != nil {
		return model.OperationRecord{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return rec, forgerr.New(forgerr.IoError, "Log.Copy", err)
	}
	if err := copyFile(source, dest); err != nil {
		return rec, forgerr.New(forgerr.IoError, "Log.Copy", err)
	}
	return rec, nil
}

// Delete logs an OpDelete record, then removes path. Deletes are
// unrecoverable: store.OperationRepository.UndoLast marks them undone
// without attempting a restore.
func (l *Log) Delete(path string) (model.OperationRecord, error) {
	size, err := fileSize(path)
	if err != nil {
		return model.OperationRecord{}, err
	}
	rec, err := l.record(model.OpDelete, path, "", size)
	if err != nil {
		return model.OperationRecord{}, err
	}
	if err := os.Remove(path); err != nil {
		return rec, forgerr.New(forgerr.IoError, "Log.Delete", err)
	}
	return rec, nil
}

func (l *Log) record(typ model.OperationType, source, dest string, size uint64) (model.OperationRecord, error) {
	rec := model.OperationRecord{
		Timestamp:  l.now(),
		Type:       typ,
		SourcePath: source,
		DestPath:   dest,
		FileSize:   size,
	}
	id, err := l.Operations.LogOperation(rec)
	if err != nil {
		return model.OperationRecord{}, err
	}
	rec.ID = id
	return rec, nil
}

func fileSize(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, forgerr.New(forgerr.NotFound, "oplog.fileSize", err)
	}
	return uint64(info.Size()), nil
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
