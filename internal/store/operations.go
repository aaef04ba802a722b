package store

import (
	"database/sql"
	"errors"
	"os"
	"time"

	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/model"
)

// OperationRepository is the typed sub-repository over the append-only
// operations table (spec.md §4.2, §4.8).
type OperationRepository struct {
	s *Store
}

// Operations returns the OperationRepository view over the store.
func (s *Store) Operations() *OperationRepository { return &OperationRepository{s: s} }

// LogOperation appends a fully populated record and returns its id.
func (r *OperationRepository) LogOperation(rec model.OperationRecord) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, err := r.s.db.Exec(`
		INSERT INTO operations (timestamp, type, source_path, dest_path, file_size, undone)
		VALUES (?, ?, ?, ?, ?, 0)
	`, rec.Timestamp.UTC().Format(time.RFC3339Nano), string(rec.Type), rec.SourcePath, rec.DestPath, rec.FileSize)
	if err != nil {
		return 0, forgerr.New(forgerr.IoError, "OperationRepository.LogOperation", err)
	}
	return res.LastInsertId()
}

// GetAll returns up to limit records, newest first. limit <= 0 means no
// bound.
func (r *OperationRepository) GetAll(limit int) ([]model.OperationRecord, error) {
	query := `SELECT id, timestamp, type, source_path, dest_path, file_size, undone FROM operations ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.s.db.Query(query, args...)
	if err != nil {
		return nil, forgerr.New(forgerr.IoError, "OperationRepository.GetAll", err)
	}
	defer rows.Close()

	var out []model.OperationRecord
	for rows.Next() {
		rec, err := scanOperationRow(rows)
		if err != nil {
			return nil, forgerr.New(forgerr.IoError, "OperationRepository.GetAll", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanOperationRow(rows *sql.Rows) (model.OperationRecord, error) {
	var rec model.OperationRecord
	var ts, typ string
	var undone int
	if err := rows.Scan(&rec.ID, &ts, &typ, &rec.SourcePath, &rec.DestPath, &rec.FileSize, &undone); err != nil {
		return model.OperationRecord{}, err
	}
	rec.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
	rec.Type = model.OperationType(typ)
	rec.Undone = undone != 0
	return rec, nil
}

// ErrNoOperations is returned by UndoLast when every record is already
// undone (or none exist).
var ErrNoOperations = errors.New("no undoable operations")

// UndoLast atomically selects the newest non-undone record, performs its
// filesystem inverse, and marks it undone (spec.md §4.2, §4.8):
//   - Move, Rename: rename dest back to source
//   - Copy: delete dest
//   - Delete: unrecoverable in this core; marked undone with no action
//
// If the filesystem step fails the record is left undone=false and the
// call returns an IoError, per the "pending row" design note in spec.md §9.
func (r *OperationRepository) UndoLast() (model.OperationRecord, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx, err := r.s.db.Begin()
	if err != nil {
		return model.OperationRecord{}, false, forgerr.New(forgerr.IoError, "OperationRepository.UndoLast", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRow(`
		SELECT id, timestamp, type, source_path, dest_path, file_size, undone FROM operations
		WHERE undone = 0 ORDER BY id DESC LIMIT 1
	`)
	var rec model.OperationRecord
	var ts, typ string
	var undone int
	err = row.Scan(&rec.ID, &ts, &typ, &rec.SourcePath, &rec.DestPath, &rec.FileSize, &undone)
	if errors.Is(err, sql.ErrNoRows) {
		return model.OperationRecord{}, false, ErrNoOperations
	}
	if err != nil {
		return model.OperationRecord{}, false, forgerr.New(forgerr.IoError, "OperationRepository.UndoLast", err)
	}
	rec.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
	rec.Type = model.OperationType(typ)

	unrecoverable := false
	switch rec.Type {
	case model.OpMove, model.OpRename:
		if err := os.Rename(rec.DestPath, rec.SourcePath); err != nil {
			return model.OperationRecord{}, false, forgerr.New(forgerr.IoError, "OperationRepository.UndoLast", err)
		}
	case model.OpCopy:
		if err := os.Remove(rec.DestPath); err != nil && !os.IsNotExist(err) {
			return model.OperationRecord{}, false, forgerr.New(forgerr.IoError, "OperationRepository.UndoLast", err)
		}
	case model.OpDelete:
		unrecoverable = true
	default:
		return model.OperationRecord{}, false, forgerr.Newf(forgerr.InvalidInput, "OperationRepository.UndoLast", "unknown operation type %q", rec.Type)
	}

	if _, err := tx.Exec(`UPDATE operations SET undone = 1 WHERE id = ?`, rec.ID); err != nil {
		return model.OperationRecord{}, false, forgerr.New(forgerr.IoError, "OperationRepository.UndoLast", err)
	}
	if err := tx.Commit(); err != nil {
		return model.OperationRecord{}, false, forgerr.New(forgerr.IoError, "OperationRepository.UndoLast", err)
	}

	rec.Undone = true
	return rec, unrecoverable, nil
}
