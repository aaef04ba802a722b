// Package model defines the core data structures shared by forg's scanner,
// repository, duplicate finder, rule engine, and operation log.
package model

import "time"

// FileInfo describes a filesystem entry as seen by the scanner. ID is zero
// for a freshly-discovered entry and is stamped by FileRepository.Upsert
// once the row is persisted; one struct with a zero-value ID sentinel
// serves both the freshly scanned and the stored form, matching the teacher's own FileInfo-with-optional-id shape.
type FileInfo struct {
	ID    int64
	Path  string
	Size  uint64
	MTime time.Time
	IsDir bool
}

// HashRecord is a single named content hash for a file.
type HashRecord struct {
	FileID    int64
	Algorithm string
	Value     string // lowercase hex
}

// Perceptual hash algorithm names.
const (
	AlgoAHash = "ahash"
	AlgoDHash = "dhash"
	AlgoPHash = "phash"
)

// PerceptualHash is a 64-bit image fingerprint for one algorithm.
type PerceptualHash struct {
	FileID    int64
	Algorithm string
	Value     uint64
}

// Tag is a label attached to a file by a metadata/OCR/classifier provider
// or by the user.
type Tag struct {
	FileID     int64
	Label      string
	Confidence float64
	Source     string // e.g. "ai", "user", "exif"
}

// DuplicateGroup is a set of files sharing (size, content hash).
type DuplicateGroup struct {
	GroupID       int64
	ContentHash   string
	Size          uint64
	MemberIDs     []int64
	PrimaryFileID int64
}

// OperationType classifies a mutating filesystem action recorded in the
// operation log.
type OperationType string

const (
	OpMove   OperationType = "move"
	OpCopy   OperationType = "copy"
	OpRename OperationType = "rename"
	OpDelete OperationType = "delete"
)

// OperationRecord is one append-only entry in the operation log.
type OperationRecord struct {
	ID         int64
	Timestamp  time.Time
	Type       OperationType
	SourcePath string
	DestPath   string // empty for Delete
	FileSize   uint64
	Undone     bool
}

// Rule is one entry of an ordered rule set used by the rule engine to
// expand a destination path template for a matching file.
type Rule struct {
	Name        string
	Predicate   string // empty matches every file
	Template    string
	Priority    int
	StopOnMatch bool
}

// KeepStrategy selects which duplicate-group member survives.
type KeepStrategy string

const (
	KeepOldest   KeepStrategy = "oldest"
	KeepNewest   KeepStrategy = "newest"
	KeepShortest KeepStrategy = "shortest"
	KeepLongest  KeepStrategy = "longest"
)

// ExportStats summarizes a workspace for the export command.
type ExportStats struct {
	TotalFiles       int    `json:"totalFiles"`
	TotalDirectories int    `json:"totalDirectories"`
	TotalSize        uint64 `json:"totalSize"`
	TotalSizeHuman   string `json:"totalSizeHuman,omitempty"`
	DuplicateGroups  int    `json:"duplicateGroups"`
	DuplicateFiles   int    `json:"duplicateFiles"`
	DuplicateSize    uint64 `json:"duplicateSize"`
	DuplicateSizeHuman string `json:"duplicateSizeHuman,omitempty"`
}

// ExportFile is one row of the files section of an export document.
type ExportFile struct {
	ID    int64  `json:"id"`
	Path  string `json:"path"`
	Size  uint64 `json:"size"`
	MTime string `json:"mtime"`
	IsDir bool   `json:"isDir"`
}

// ExportGroup is one row of the duplicates section of an export document.
type ExportGroup struct {
	GroupID       int64    `json:"groupId"`
	ContentHash   string   `json:"contentHash"`
	Size          uint64   `json:"size"`
	Members       []string `json:"members"`
	PrimaryPath   string   `json:"primaryPath"`
}

// ExportDocument is the data the export command encodes as json, csv or
// html; the encoders live in internal/cliapp.
type ExportDocument struct {
	Stats      ExportStats   `json:"stats"`
	Files      []ExportFile  `json:"files"`
	Duplicates []ExportGroup `json:"duplicates"`
}
