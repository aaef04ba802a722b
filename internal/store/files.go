package store

import (
	"database/sql"
	"errors"
	"math/bits"
	"os"
	"strings"
	"time"

	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/model"
)

// FileRepository is the typed sub-repository over the files, hashes,
// phash, and tags tables (spec.md §4.2).
type FileRepository struct {
	s *Store
}

// Files returns the FileRepository view over the store.
func (s *Store) Files() *FileRepository { return &FileRepository{s: s} }

// Upsert inserts or updates a file row, keyed on path, and returns its id.
// An existing row's size, mtime and is_dir are overwritten with fi's
// values on every call, so a rescan picks up any size or mtime change.
func (r *FileRepository) Upsert(fi model.FileInfo) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	mtime := fi.MTime.UTC().Format(time.RFC3339Nano)
	isDir := 0
	if fi.IsDir {
		isDir = 1
	}

	tx, err := r.s.db.Begin()
	if err != nil {
		return 0, forgerr.New(forgerr.IoError, "FileRepository.Upsert", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRow(`SELECT id FROM files WHERE path = ?`, fi.Path).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec(`INSERT INTO files (path, size, mtime, is_dir) VALUES (?, ?, ?, ?)`,
			fi.Path, fi.Size, mtime, isDir)
		if err != nil {
			return 0, forgerr.New(forgerr.IoError, "FileRepository.Upsert", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, forgerr.New(forgerr.IoError, "FileRepository.Upsert", err)
		}
	case err != nil:
		return 0, forgerr.New(forgerr.IoError, "FileRepository.Upsert", err)
	default:
		if _, err := tx.Exec(`UPDATE files SET size = ?, mtime = ?, is_dir = ? WHERE id = ?`,
			fi.Size, mtime, isDir, id); err != nil {
			return 0, forgerr.New(forgerr.IoError, "FileRepository.Upsert", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, forgerr.New(forgerr.IoError, "FileRepository.Upsert", err)
	}
	return id, nil
}

// GetByID returns the file row with the given id, or ok=false if absent.
func (r *FileRepository) GetByID(id int64) (model.FileInfo, bool, error) {
	return r.scanOne(`SELECT id, path, size, mtime, is_dir FROM files WHERE id = ?`, id)
}

// GetByPath returns the file row with the given path, or ok=false if absent.
func (r *FileRepository) GetByPath(path string) (model.FileInfo, bool, error) {
	return r.scanOne(`SELECT id, path, size, mtime, is_dir FROM files WHERE path = ?`, path)
}

func (r *FileRepository) scanOne(query string, arg any) (model.FileInfo, bool, error) {
	row := r.s.db.QueryRow(query, arg)
	fi, err := scanFileRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FileInfo{}, false, nil
	}
	if err != nil {
		return model.FileInfo{}, false, forgerr.New(forgerr.IoError, "FileRepository.scanOne", err)
	}
	return fi, true, nil
}

func scanFileRow(row *sql.Row) (model.FileInfo, error) {
	var fi model.FileInfo
	var mtime string
	var isDir int
	if err := row.Scan(&fi.ID, &fi.Path, &fi.Size, &mtime, &isDir); err != nil {
		return model.FileInfo{}, err
	}
	fi.IsDir = isDir != 0
	fi.MTime, _ = time.Parse(time.RFC3339Nano, mtime)
	return fi, nil
}

// IterateAll returns every file row in the store, ordered by path.
func (r *FileRepository) IterateAll() ([]model.FileInfo, error) {
	rows, err := r.s.db.Query(`SELECT id, path, size, mtime, is_dir FROM files ORDER BY path`)
	if err != nil {
		return nil, forgerr.New(forgerr.IoError, "FileRepository.IterateAll", err)
	}
	defer rows.Close()

	var out []model.FileInfo
	for rows.Next() {
		var fi model.FileInfo
		var mtime string
		var isDir int
		if err := rows.Scan(&fi.ID, &fi.Path, &fi.Size, &mtime, &isDir); err != nil {
			return nil, forgerr.New(forgerr.IoError, "FileRepository.IterateAll", err)
		}
		fi.IsDir = isDir != 0
		fi.MTime, _ = time.Parse(time.RFC3339Nano, mtime)
		out = append(out, fi)
	}
	return out, rows.Err()
}

// DeleteMissing removes rows whose path is under one of roots and no
// longer exists on disk, returning the number of rows removed.
func (r *FileRepository) DeleteMissing(roots []string) (int, error) {
	all, err := r.IterateAll()
	if err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx, err := r.s.db.Begin()
	if err != nil {
		return 0, forgerr.New(forgerr.IoError, "FileRepository.DeleteMissing", err)
	}
	defer func() { _ = tx.Rollback() }()

	var removed int
	for _, fi := range all {
		if !underAnyRoot(fi.Path, roots) {
			continue
		}
		if _, err := os.Stat(fi.Path); err == nil {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM files WHERE id = ?`, fi.ID); err != nil {
			return 0, forgerr.New(forgerr.IoError, "FileRepository.DeleteMissing", err)
		}
		removed++
	}
	if err := tx.Commit(); err != nil {
		return 0, forgerr.New(forgerr.IoError, "FileRepository.DeleteMissing", err)
	}
	return removed, nil
}

func underAnyRoot(path string, roots []string) bool {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/") {
			return true
		}
	}
	return false
}

// AddHash upserts a (file_id, algorithm) -> value hash row. A no-op write
// of an identical value is harmless (upsert semantics per spec.md §4.4).
func (r *FileRepository) AddHash(fileID int64, algorithm, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, err := r.s.db.Exec(`
		INSERT INTO hashes (file_id, algorithm, value) VALUES (?, ?, ?)
		ON CONFLICT (file_id, algorithm) DO UPDATE SET value = excluded.value
	`, fileID, algorithm, value)
	if err != nil {
		return forgerr.New(forgerr.IoError, "FileRepository.AddHash", err)
	}
	return nil
}

// GetHash returns the value stored for (file_id, algorithm), or ok=false.
func (r *FileRepository) GetHash(fileID int64, algorithm string) (string, bool, error) {
	var value string
	err := r.s.db.QueryRow(`SELECT value FROM hashes WHERE file_id = ? AND algorithm = ?`, fileID, algorithm).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, forgerr.New(forgerr.IoError, "FileRepository.GetHash", err)
	}
	return value, true, nil
}

// AddTag upserts a (file_id, label, source) tag row; confidence is
// last-write-wins per spec.md's Tag uniqueness invariant.
func (r *FileRepository) AddTag(fileID int64, label string, confidence float64, source string) error {
	if strings.TrimSpace(label) == "" {
		return forgerr.Newf(forgerr.InvalidInput, "FileRepository.AddTag", "tag label must not be empty")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, err := r.s.db.Exec(`
		INSERT INTO tags (file_id, label, source, confidence) VALUES (?, ?, ?, ?)
		ON CONFLICT (file_id, label, source) DO UPDATE SET confidence = excluded.confidence
	`, fileID, label, source, confidence)
	if err != nil {
		return forgerr.New(forgerr.IoError, "FileRepository.AddTag", err)
	}
	return nil
}

// GetTags returns every tag for fileID, ordered by descending confidence.
func (r *FileRepository) GetTags(fileID int64) ([]model.Tag, error) {
	rows, err := r.s.db.Query(`
		SELECT file_id, label, source, confidence FROM tags
		WHERE file_id = ? ORDER BY confidence DESC, label ASC
	`, fileID)
	if err != nil {
		return nil, forgerr.New(forgerr.IoError, "FileRepository.GetTags", err)
	}
	defer rows.Close()

	var out []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.FileID, &t.Label, &t.Source, &t.Confidence); err != nil {
			return nil, forgerr.New(forgerr.IoError, "FileRepository.GetTags", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddPerceptualHash upserts a (file_id, algorithm) -> 64-bit value row.
func (r *FileRepository) AddPerceptualHash(fileID int64, algorithm string, value uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// SQLite integers are signed 64-bit; round-trip via int64 bit pattern.
	_, err := r.s.db.Exec(`
		INSERT INTO phash (file_id, algorithm, value_u64) VALUES (?, ?, ?)
		ON CONFLICT (file_id, algorithm) DO UPDATE SET value_u64 = excluded.value_u64
	`, fileID, algorithm, int64(value))
	if err != nil {
		return forgerr.New(forgerr.IoError, "FileRepository.AddPerceptualHash", err)
	}
	return nil
}

// GetPerceptualHash returns the stored (algorithm-specific) perceptual
// hash for fileID, if one has been computed.
func (r *FileRepository) GetPerceptualHash(fileID int64, algorithm string) (uint64, bool, error) {
	row := r.s.db.QueryRow(`SELECT value_u64 FROM phash WHERE file_id = ? AND algorithm = ?`, fileID, algorithm)
	var raw int64
	switch err := row.Scan(&raw); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, forgerr.New(forgerr.IoError, "FileRepository.GetPerceptualHash", err)
	}
	return uint64(raw), true, nil
}

// FindSimilarImages returns the ids of files whose stored perceptual hash
// for algorithm has Hamming distance <= threshold from target. Per
// DESIGN.md's resolution of spec.md §9 Open Question (b), a query is
// restricted to one algorithm so the comparison is meaningful.
func (r *FileRepository) FindSimilarImages(algorithm string, target uint64, threshold int) ([]int64, error) {
	rows, err := r.s.db.Query(`SELECT file_id, value_u64 FROM phash WHERE algorithm = ?`, algorithm)
	if err != nil {
		return nil, forgerr.New(forgerr.IoError, "FileRepository.FindSimilarImages", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var fileID int64
		var raw int64
		if err := rows.Scan(&fileID, &raw); err != nil {
			return nil, forgerr.New(forgerr.IoError, "FileRepository.FindSimilarImages", err)
		}
		if bits.OnesCount64(uint64(raw)^target) <= threshold {
			out = append(out, fileID)
		}
	}
	return out, rows.Err()
}
