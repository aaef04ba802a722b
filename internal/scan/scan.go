// Package scan implements forg's directory walker: a deterministic,
// pre-order depth-first traversal that upserts every visited entry into
// the file repository (spec.md §4.3).
package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forgcli/forg/internal/config"
	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/fsutil"
	"github.com/forgcli/forg/internal/logger"
	"github.com/forgcli/forg/internal/model"
	"github.com/forgcli/forg/internal/store"
)

// Options controls how Scanner.Walk traverses a tree.
type Options struct {
	// Extensions is a case-insensitive allow-list (each entry includes the
	// leading dot, e.g. ".jpg"); empty admits every file.
	Extensions []string
	// FollowSymlinks enables traversal into symlinked directories.
	FollowSymlinks bool
	// Prune, when set, calls FileRepository.DeleteMissing(roots) after the
	// walk completes.
	Prune bool
	// Skip holds the exclude/read-only globs the walk refuses to descend
	// into or record, matched root-relative via fsutil.MatchesSkipGlob
	// (spec.md §2.3's "guardrail" skip-directories).
	Skip config.SkipGlobs
}

// Scanner walks one or more root paths and upserts every entry it visits.
type Scanner struct {
	Files *store.FileRepository
}

// New builds a Scanner backed by repo.
func New(repo *store.FileRepository) *Scanner {
	return &Scanner{Files: repo}
}

// Result is the outcome of a Walk: the files found, in deterministic
// order, plus whether the walk was cut short by cancellation.
type Result struct {
	Files     []model.FileInfo
	Cancelled bool
}

// Walk traverses roots in the order supplied, each in pre-order
// depth-first order with siblings sorted lexicographically by name. Every
// visited entry is upserted before being appended to the result, per
// spec.md §5's "upserted before yielded" ordering guarantee. ctx is
// checked between entries for cooperative cancellation.
func (s *Scanner) Walk(ctx context.Context, roots []string, opts Options) (Result, error) {
	var result Result
	visited := make(map[string]struct{})

	extAllowed := func(path string) bool {
		if len(opts.Extensions) == 0 {
			return true
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range opts.Extensions {
			if strings.ToLower(want) == ext {
				return true
			}
		}
		return false
	}

	visit := func(path string, isDir bool) error {
		info, err := os.Lstat(path)
		if err != nil {
			logger.Warn("scan: skip %s: %v", path, err)
			return nil
		}
		var size uint64
		if !isDir {
			size = uint64(info.Size())
		}
		fi := model.FileInfo{Path: path, Size: size, MTime: info.ModTime().UTC(), IsDir: isDir}
		id, err := s.Files.Upsert(fi)
		if err != nil {
			return err
		}
		fi.ID = id
		result.Files = append(result.Files, fi)
		return nil
	}

	var currentRoot string
	skipped := func(path string) bool {
		rel, err := filepath.Rel(currentRoot, path)
		if err != nil {
			return false
		}
		return fsutil.MatchesSkipGlob(rel, opts.Skip)
	}

	var walkDir func(dir string) error
	walkDir = func(dir string) error {
		select {
		case <-ctx.Done():
			result.Cancelled = true
			return nil
		default:
		}

		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			if _, seen := visited[resolved]; seen {
				return nil
			}
			visited[resolved] = struct{}{}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("scan: cannot read %s: %v", dir, err)
			return nil
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, entry := range entries {
			if result.Cancelled {
				return nil
			}
			select {
			case <-ctx.Done():
				result.Cancelled = true
				return nil
			default:
			}

			path := filepath.Join(dir, entry.Name())
			if skipped(path) {
				continue
			}
			isSymlink := entry.Type()&os.ModeSymlink != 0

			if isSymlink {
				target, err := os.Stat(path)
				if err != nil {
					continue // broken symlink
				}
				if target.IsDir() {
					if opts.FollowSymlinks {
						if err := walkDir(path); err != nil {
							return err
						}
					}
					continue
				}
				if extAllowed(path) {
					if err := visit(path, false); err != nil {
						return err
					}
				}
				continue
			}

			if entry.IsDir() {
				if err := visit(path, true); err != nil {
					return err
				}
				if err := walkDir(path); err != nil {
					return err
				}
				continue
			}

			if extAllowed(path) {
				if err := visit(path, false); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return result, forgerr.New(forgerr.InvalidInput, "Scanner.Walk", err)
		}
		if _, err := os.Stat(abs); err != nil {
			return result, forgerr.New(forgerr.NotFound, "Scanner.Walk", err)
		}
		currentRoot = abs
		if err := walkDir(abs); err != nil {
			return result, forgerr.New(forgerr.IoError, "Scanner.Walk", err)
		}
		if result.Cancelled {
			break
		}
	}

	if opts.Prune && !result.Cancelled {
		absRoots := make([]string, 0, len(roots))
		for _, root := range roots {
			if abs, err := filepath.Abs(root); err == nil {
				absRoots = append(absRoots, abs)
			}
		}
		if _, err := s.Files.DeleteMissing(absRoots); err != nil {
			return result, err
		}
	}

	return result, nil
}
