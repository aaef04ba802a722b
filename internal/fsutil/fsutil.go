// Package fsutil walks a workspace tree collecting candidate files for
// scanning, honoring skip-globs and symlink policy.
package fsutil

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/forgcli/forg/internal/config"
)

// MatchesSkipGlob reports whether path (workspace-relative, slash form)
// matches any of the configured exclude or read-only globs.
func MatchesSkipGlob(path string, skip config.SkipGlobs) bool {
	normalized := filepath.ToSlash(path)
	for _, g := range skip.ExcludeGlobs {
		if g == "" {
			continue
		}
		if ok, err := doublestar.Match(g, normalized); err == nil && ok {
			return true
		}
	}
	for _, g := range skip.ReadOnlyGlobs {
		if g == "" {
			continue
		}
		if ok, err := doublestar.Match(g, normalized); err == nil && ok {
			return true
		}
	}
	return false
}

// WalkOptions controls how ListFiles traverses a tree.
type WalkOptions struct {
	Skip           config.SkipGlobs
	Extensions     []string // allow-list, lowercase with leading dot; empty means all
	FollowSymlinks bool
}

// ListFiles returns workspace-relative, slash-separated paths for every
// regular file under root that passes the skip-glob and extension filters.
// Symlinked directories are only followed when FollowSymlinks is set, and a
// visited-inode set prevents cycles from recursing forever.
func ListFiles(root string, opts WalkOptions) ([]string, error) {
	var files []string
	visited := make(map[string]struct{})

	extAllowed := func(path string) bool {
		if len(opts.Extensions) == 0 {
			return true
		}
		ext := filepathExtLower(path)
		for _, e := range opts.Extensions {
			if e == ext {
				return true
			}
		}
		return false
	}

	var walk func(dir string) error
	walk = func(dir string) error {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			if _, seen := visited[resolved]; seen {
				return nil
			}
			visited[resolved] = struct{}{}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if MatchesSkipGlob(rel, opts.Skip) {
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
						if err := walk(path); err != nil {
							return err
						}
					}
					continue
				}
				if extAllowed(rel) {
					files = append(files, rel)
				}
				continue
			}

			if entry.IsDir() {
				if err := walk(path); err != nil {
					return err
				}
				continue
			}

			if extAllowed(rel) {
				files = append(files, rel)
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return files, nil
}

func filepathExtLower(path string) string {
	ext := filepath.Ext(path)
	out := make([]byte, len(ext))
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// ErrNotFound mirrors os.ErrNotExist for callers that don't want to import os.
var ErrNotFound = os.ErrNotExist

// FileStat is the subset of file metadata forg records per entry.
type FileStat struct {
	Size    int64
	ModTime time.Time
}

// StatFile returns size and mod time for a path.
func StatFile(path string) (FileStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileStat{}, ErrNotFound
		}
		return FileStat{}, err
	}
	return FileStat{
		Size:    info.Size(),
		ModTime: NormalizeModTime(info.ModTime()),
	}, nil
}

// NormalizeModTime truncates mod time to second precision for deterministic comparisons.
func NormalizeModTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
