// Package engine wires the registry, repository, scanner, hasher, and
// duplicate finder into the single facade forg's CLI drives (spec.md
// §4.9).
package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/forgcli/forg/internal/config"
	"github.com/forgcli/forg/internal/dedup"
	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/hash"
	"github.com/forgcli/forg/internal/model"
	"github.com/forgcli/forg/internal/registry"
	"github.com/forgcli/forg/internal/scan"
	"github.com/forgcli/forg/internal/store"
)

// Config selects the named providers and database an Engine is built
// from.
type Config struct {
	ScannerName string // when non-empty, must name a registered scanner; scans always use the built-in walker
	HasherName  string
	DBPath      string
}

// Engine is the process-facing facade over forg's core packages.
type Engine struct {
	db      *store.Store
	hasher  hash.Hasher
	scanner *scan.Scanner
	finder  *dedup.Finder

	// SessionID stamps this Engine instance the way the teacher stamps a
	// scan document with a UUID.
	SessionID string
}

// New resolves scanner_name/hasher_name via providers and opens db_path.
// Fails fast with NotFound if a named provider is absent, per spec.md
// §4.9/§7, rather than deferring the failure to first use.
func New(cfg Config, providers *registry.Set) (*Engine, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if cfg.ScannerName != "" {
		if _, err := providers.Scanner.Create(cfg.ScannerName); err != nil {
			db.Close()
			return nil, err
		}
	}

	hasherName := cfg.HasherName
	if hasherName == "" {
		hasherName = hash.Fast64Name
	}
	raw, err := providers.ContentHasher.Create(hasherName)
	if err != nil {
		db.Close()
		return nil, err
	}
	hasher, ok := raw.(hash.Hasher)
	if !ok {
		db.Close()
		return nil, forgerr.Newf(forgerr.ProviderError, "engine.New", "provider %q does not implement hash.Hasher", hasherName)
	}

	return &Engine{
		db:        db,
		hasher:    hasher,
		scanner:   scan.New(db.Files()),
		finder:    dedup.New(hash.NewService(hasher, db.Files())),
		SessionID: uuid.NewString(),
	}, nil
}

// Close releases the underlying database connection.
func (e *Engine) Close() error { return e.db.Close() }

// Hasher returns the resolved content hasher.
func (e *Engine) Hasher() hash.Hasher { return e.hasher }

// Database returns the open store.
func (e *Engine) Database() *store.Store { return e.db }

// FileRepository exposes the file sub-repository for direct callers.
func (e *Engine) FileRepository() *store.FileRepository { return e.db.Files() }

// DuplicateRepository exposes the duplicate sub-repository for direct
// callers.
func (e *Engine) DuplicateRepository() *store.DuplicateRepository { return e.db.Duplicates() }

// OperationRepository exposes the operation sub-repository for direct
// callers.
func (e *Engine) OperationRepository() *store.OperationRepository { return e.db.Operations() }

// Scan walks roots, persisting every visited entry, and returns the
// resulting files in deterministic order (spec.md §4.9). skip holds the
// exclude/read-only globs (spec.md §2.3's "guardrail" skip-directories,
// e.g. .git/**, node_modules/**) the walk refuses to descend into.
func (e *Engine) Scan(ctx context.Context, roots []string, exts []string, followSymlinks, prune bool, skip config.SkipGlobs) (scan.Result, error) {
	return e.scanner.Walk(ctx, roots, scan.Options{
		Extensions:     exts,
		FollowSymlinks: followSymlinks,
		Prune:          prune,
		Skip:           skip,
	})
}

// FindDuplicates runs the duplicate finder over files and persists the
// resulting groups, replacing any previously persisted set (spec.md
// §4.9, §5 ordering guarantee (ii)).
func (e *Engine) FindDuplicates(ctx context.Context, files []model.FileInfo, opts dedup.Options) ([]model.DuplicateGroup, bool, error) {
	groups, cancelled, err := e.finder.Find(ctx, files, opts)
	if err != nil {
		return nil, cancelled, err
	}
	if err := e.db.Duplicates().ReplaceAll(groups); err != nil {
		return nil, cancelled, err
	}
	return groups, cancelled, nil
}
