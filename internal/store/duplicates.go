package store

import (
	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/model"
)

// DuplicateRepository is the typed sub-repository over duplicate_groups
// and duplicate_members (spec.md §4.2).
type DuplicateRepository struct {
	s *Store
}

// Duplicates returns the DuplicateRepository view over the store.
func (s *Store) Duplicates() *DuplicateRepository { return &DuplicateRepository{s: s} }

// ReplaceAll atomically replaces the entire stored duplicate-group set:
// either the full new set becomes visible, or the previous set remains,
// per spec.md §4.2's transactional Replacement invariant.
func (r *DuplicateRepository) ReplaceAll(groups []model.DuplicateGroup) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx, err := r.s.db.Begin()
	if err != nil {
		return forgerr.New(forgerr.IoError, "DuplicateRepository.ReplaceAll", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM duplicate_members`); err != nil {
		return forgerr.New(forgerr.IoError, "DuplicateRepository.ReplaceAll", err)
	}
	if _, err := tx.Exec(`DELETE FROM duplicate_groups`); err != nil {
		return forgerr.New(forgerr.IoError, "DuplicateRepository.ReplaceAll", err)
	}

	for _, g := range groups {
		res, err := tx.Exec(`INSERT INTO duplicate_groups (content_hash, size, primary_file_id) VALUES (?, ?, ?)`,
			g.ContentHash, g.Size, g.PrimaryFileID)
		if err != nil {
			return forgerr.New(forgerr.IoError, "DuplicateRepository.ReplaceAll", err)
		}
		groupID, err := res.LastInsertId()
		if err != nil {
			return forgerr.New(forgerr.IoError, "DuplicateRepository.ReplaceAll", err)
		}
		for _, memberID := range g.MemberIDs {
			if _, err := tx.Exec(`INSERT INTO duplicate_members (group_id, file_id) VALUES (?, ?)`, groupID, memberID); err != nil {
				return forgerr.New(forgerr.IoError, "DuplicateRepository.ReplaceAll", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return forgerr.New(forgerr.IoError, "DuplicateRepository.ReplaceAll", err)
	}
	return nil
}

// GetAllGroups returns every stored duplicate group, ordered by descending
// size then ascending content hash (the same order the finder emits).
func (r *DuplicateRepository) GetAllGroups() ([]model.DuplicateGroup, error) {
	rows, err := r.s.db.Query(`
		SELECT id, content_hash, size, primary_file_id FROM duplicate_groups
		ORDER BY size DESC, content_hash ASC
	`)
	if err != nil {
		return nil, forgerr.New(forgerr.IoError, "DuplicateRepository.GetAllGroups", err)
	}
	defer rows.Close()

	var groups []model.DuplicateGroup
	for rows.Next() {
		var g model.DuplicateGroup
		if err := rows.Scan(&g.GroupID, &g.ContentHash, &g.Size, &g.PrimaryFileID); err != nil {
			return nil, forgerr.New(forgerr.IoError, "DuplicateRepository.GetAllGroups", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, forgerr.New(forgerr.IoError, "DuplicateRepository.GetAllGroups", err)
	}

	for i := range groups {
		memberRows, err := r.s.db.Query(`SELECT file_id FROM duplicate_members WHERE group_id = ? ORDER BY file_id`, groups[i].GroupID)
		if err != nil {
			return nil, forgerr.New(forgerr.IoError, "DuplicateRepository.GetAllGroups", err)
		}
		var members []int64
		for memberRows.Next() {
			var id int64
			if err := memberRows.Scan(&id); err != nil {
				memberRows.Close()
				return nil, forgerr.New(forgerr.IoError, "DuplicateRepository.GetAllGroups", err)
			}
			members = append(members, id)
		}
		memberRows.Close()
		groups[i].MemberIDs = members
	}
	return groups, nil
}
