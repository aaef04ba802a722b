// Package dedup implements forg's duplicate finder: bucket by size, then
// by content hash, emitting deterministically ordered groups (spec.md
// §4.6).
package dedup

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/forgcli/forg/internal/hash"
	"github.com/forgcli/forg/internal/logger"
	"github.com/forgcli/forg/internal/model"
)

// Options controls how Find buckets candidates.
type Options struct {
	// IncludeZeroLength controls whether zero-byte files participate in
	// duplicate grouping. The zero value excludes them; the CLI's
	// --include-zero-length flag passes true unless turned off.
	IncludeZeroLength bool
	// Keep selects the primary of each emitted group.
	Keep model.KeepStrategy
	// Concurrency bounds the number of files hashed in parallel per
	// surviving size-bucket; 0 means sequential.
	Concurrency int
}

// Finder groups scanned files into duplicate sets using a content hasher.
// Hashing goes through a hash.Service so every successful hash is
// persisted via FileRepository.AddHash before a group built from it is
// ever emitted (spec.md §4.4, §5 ordering guarantee (ii)).
type Finder struct {
	Hashes *hash.Service
}

// New builds a Finder backed by svc.
func New(svc *hash.Service) *Finder {
	return &Finder{Hashes: svc}
}

type hashedGroup struct {
	hash    string
	size    uint64
	members []model.FileInfo
}

// Find buckets files by size, discards singleton buckets, hashes the
// remaining candidates (optionally in parallel within a bucket, never
// across buckets, so result order stays deterministic), re-buckets by
// hash, and emits a DuplicateGroup for every resulting bucket of >= 2.
// ctx is checked between buckets for cooperative cancellation.
func (f *Finder) Find(ctx context.Context, files []model.FileInfo, opts Options) ([]model.DuplicateGroup, bool, error) {
	bySize := make(map[uint64][]model.FileInfo)
	for _, fi := range files {
		if fi.IsDir {
			continue
		}
		if fi.Size == 0 && !opts.IncludeZeroLength {
			continue
		}
		bySize[fi.Size] = append(bySize[fi.Size], fi)
	}

	var groups []hashedGroup

	for size, bucket := range bySize {
		if len(bucket) < 2 {
			continue
		}
		select {
		case <-ctx.Done():
			return emit(groups, opts.Keep), true, nil
		default:
		}

		hashes := make([]string, len(bucket))
		if opts.Concurrency > 1 {
			g, _ := errgroup.WithContext(ctx)
			g.SetLimit(opts.Concurrency)
			for i, fi := range bucket {
				i, fi := i, fi
				g.Go(func() error {
					v, err := f.Hashes.HashFile(fi.ID, fi.Path)
					if err != nil {
						logger.Warn("dedup: hash failed for %s: %v", fi.Path, err)
						return nil // per-file hash failures exclude the file, not the whole run
					}
					hashes[i] = v
					return nil
				})
			}
			_ = g.Wait()
		} else {
			for i, fi := range bucket {
				v, err := f.Hashes.HashFile(fi.ID, fi.Path)
				if err != nil {
					logger.Warn("dedup: hash failed for %s: %v", fi.Path, err)
					continue
				}
				hashes[i] = v
			}
		}

		byHash := make(map[string][]model.FileInfo)
		for i, fi := range bucket {
			if hashes[i] == "" {
				continue
			}
			byHash[hashes[i]] = append(byHash[hashes[i]], fi)
		}
		for h, members := range byHash {
			if len(members) < 2 {
				continue
			}
			groups = append(groups, hashedGroup{hash: h, size: size, members: members})
		}
	}

	return emit(groups, opts.Keep), false, nil
}

// emit sorts groups by descending size then ascending hash and converts
// them to the exported model, selecting each group's primary by strategy.
func emit(groups []hashedGroup, keep model.KeepStrategy) []model.DuplicateGroup {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].size != groups[j].size {
			return groups[i].size > groups[j].size
		}
		return groups[i].hash < groups[j].hash
	})

	out := make([]model.DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.DuplicateGroup{
			ContentHash:   g.hash,
			Size:          g.size,
			MemberIDs:     memberIDs(g.members),
			PrimaryFileID: pickPrimary(g.members, keep).ID,
		})
	}
	return out
}

func memberIDs(files []model.FileInfo) []int64 {
	ids := make([]int64, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	return ids
}

// PickPrimary selects the member of a duplicate group that survives per
// strategy, tie-breaking on lexicographically smallest path (spec.md §3,
// §4.6, and the Keep-strategy determinism testable property of §8).
func PickPrimary(members []model.FileInfo, strategy model.KeepStrategy) model.FileInfo {
	return pickPrimary(members, strategy)
}

func pickPrimary(members []model.FileInfo, strategy model.KeepStrategy) model.FileInfo {
	if len(members) == 0 {
		return model.FileInfo{}
	}
	best := members[0]
	better := func(candidate, current model.FileInfo) bool {
		switch strategy {
		case model.KeepNewest:
			if !candidate.MTime.Equal(current.MTime) {
				return candidate.MTime.After(current.MTime)
			}
		case model.KeepShortest:
			if len(candidate.Path) != len(current.Path) {
				return len(candidate.Path) < len(current.Path)
			}
		case model.KeepLongest:
			if len(candidate.Path) != len(current.Path) {
				return len(candidate.Path) > len(current.Path)
			}
		default: // oldest
			if !candidate.MTime.Equal(current.MTime) {
				return candidate.MTime.Before(current.MTime)
			}
		}
		return candidate.Path < current.Path
	}
	for _, m := range members[1:] {
		if better(m, best) {
			best = m
		}
	}
	return best
}
