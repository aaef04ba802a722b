// Package config loads and persists forg's workspace configuration: the
// .forg/ directory layout, config.jsonc, and the default skip-glob list
// applied by the scanner.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forgcli/forg/internal/jsonc"
	"github.com/forgcli/forg/internal/model"
	"github.com/forgcli/forg/internal/validate"
	"github.com/forgcli/forg/schemas"
	"github.com/forgcli/forg/starter"
)

// SkipGlobs holds the doublestar glob patterns the scanner refuses to
// walk into or record, split by how strongly the rule binds.
type SkipGlobs struct {
	ExcludeGlobs []string `json:"excludeGlobs,omitempty"`
	ReadOnlyGlobs []string `json:"readOnlyGlobs,omitempty"`
}

// Config is the shape of .forg/config.jsonc.
type Config struct {
	SchemaVersion string `json:"schemaVersion"`
	Kind          string `json:"kind"`

	// ScannerName and HasherName select providers from the registry.
	ScannerName string `json:"scannerName"`
	HasherName  string `json:"hasherName"`

	// DBPath is relative to the workspace root unless absolute.
	DBPath string `json:"dbPath"`

	// UseADSCache is stored with the config but not read by any command;
	// no alternate-data-stream hash cache exists on any platform.
	UseADSCache bool `json:"useAdsCache,omitempty"`

	// KeepStrategy records the workspace's keep strategy: "oldest",
	// "newest", "shortest_path" or "longest_path". The duplicates and
	// delete-duplicates commands do not read it; they take the strategy
	// from their --keep flag.
	KeepStrategy string `json:"keepStrategy"`

	// IncludeZeroLength records whether zero-byte files take part in
	// duplicate detection (true in Default). The duplicates and
	// delete-duplicates commands do not read it; they take the setting
	// from their --include-zero-length flag.
	IncludeZeroLength bool `json:"includeZeroLength,omitempty"`

	SkipGlobs SkipGlobs `json:"skipGlobs"`

	// Extensions restricts the scanner to these extensions when non-empty
	// (each entry includes the leading dot, e.g. ".jpg").
	Extensions []string `json:"extensions,omitempty"`

	FollowSymlinks bool `json:"followSymlinks,omitempty"`

	Provenance any `json:"provenance,omitempty"`
}

// EnsureLayout creates the .forg/ directory tree under root and returns
// its path.
func EnsureLayout(root string) (string, error) {
	forgDir := filepath.Join(root, ".forg")
	dirs := []string{
		forgDir,
		filepath.Join(forgDir, "schemas"),
		filepath.Join(forgDir, "rules"),
		filepath.Join(forgDir, "outputs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", d, err)
		}
	}
	return forgDir, nil
}

// WriteTemplate materializes an embedded starter template at destPath,
// unless it already exists and allowOverwrite is false.
func WriteTemplate(destPath, templateName string, replacements map[string]string, allowOverwrite bool) error {
	if _, err := os.Stat(destPath); err == nil && !allowOverwrite {
		return nil
	}
	tpl, err := starter.Get(templateName)
	if err != nil {
		return fmt.Errorf("load template %s: %w", templateName, err)
	}
	if replacements == nil {
		replacements = map[string]string{}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	replacements["createdAt"] = replaceZero(replacements["createdAt"], now)
	contents := starter.Apply(tpl, replacements)
	if err := os.WriteFile(destPath, []byte(contents), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return nil
}

// Load reads .forg/config.jsonc under root, validating it against the
// embedded config schema the way the teacher validates its own config
// documents before trusting them.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, ".forg", "config.jsonc")
	if err := validate.JSONC(path, schemas.Config); err != nil {
		return nil, err
	}
	var cfg Config
	if err := jsonc.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSkipGlobs returns the configured skip-globs merged over the built-in
// defaults, or just the defaults if no config exists yet.
func LoadSkipGlobs(root string) SkipGlobs {
	cfg, err := Load(root)
	if err != nil {
		return defaultSkipGlobs()
	}
	def := defaultSkipGlobs()
	return SkipGlobs{
		ExcludeGlobs:  mergeGlobs(def.ExcludeGlobs, cfg.SkipGlobs.ExcludeGlobs),
		ReadOnlyGlobs: mergeGlobs(def.ReadOnlyGlobs, cfg.SkipGlobs.ReadOnlyGlobs),
	}
}

// Default returns a Config with forg's built-in defaults, used both by
// `forg init` and by any command run without a config file present.
func Default() *Config {
	return &Config{
		SchemaVersion: "1",
		Kind:          "forg.config",
		ScannerName:   "fs",
		HasherName:    "fast64",
		DBPath:        ".forg/forg.db",
		KeepStrategy:  "oldest",
		IncludeZeroLength: true,
		SkipGlobs:     defaultSkipGlobs(),
	}
}

// ParseKeepStrategy maps the config's on-disk keep-strategy spelling
// ("shortest_path"/"longest_path") to model.KeepStrategy.
func (c *Config) ParseKeepStrategy() (model.KeepStrategy, error) {
	switch c.KeepStrategy {
	case "oldest", "":
		return model.KeepOldest, nil
	case "newest":
		return model.KeepNewest, nil
	case "shortest_path":
		return model.KeepShortest, nil
	case "longest_path":
		return model.KeepLongest, nil
	default:
		return "", fmt.Errorf("unknown keepStrategy %q", c.KeepStrategy)
	}
}

func defaultSkipGlobs() SkipGlobs {
	return SkipGlobs{
		ExcludeGlobs: []string{
			".git/**",
			".forg/**",
			".idea/**",
			"**/.idea/**",
			".vscode/**",
			"**/.DS_Store",
			"node_modules/**",
			"vendor/**",
			"dist/**",
			"build/**",
			"**/build/**",
			"target/**",
			"out/**",
			"$RECYCLE.BIN/**",
			"System Volume Information/**",
			"**/*.tmp",
			"**/Thumbs.db",
		},
	}
}

func mergeGlobs(defaults, user []string) []string {
	seen := make(map[string]struct{})
	var merged []string
	appendIfMissing := func(globs []string) {
		for _, g := range globs {
			norm := normalizeGlob(g)
			if norm == "" {
				continue
			}
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			merged = append(merged, norm)
		}
	}
	appendIfMissing(defaults)
	appendIfMissing(user)
	return merged
}

func normalizeGlob(g string) string {
	trimmed := strings.TrimSpace(g)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.ReplaceAll(trimmed, "\\", "/")
	for strings.Contains(trimmed, "//") {
		trimmed = strings.ReplaceAll(trimmed, "//", "/")
	}
	return filepath.ToSlash(trimmed)
}

// CopySchemas exports the embedded JSON schemas into .forg/schemas for
// inspection; the embedded copies under schemas/ remain canonical for
// validation.
func CopySchemas(root string, allowOverwrite bool) error {
	_ = allowOverwrite // schemas are always refreshed to match the embedded versions
	schemaDir := filepath.Join(root, ".forg", "schemas")
	if err := os.MkdirAll(schemaDir, 0o755); err != nil {
		return fmt.Errorf("ensure schema dir: %w", err)
	}

	schemaMap, err := schemas.List()
	if err != nil {
		return err
	}
	for name, data := range schemaMap {
		dest := filepath.Join(schemaDir, fmt.Sprintf("%s.schema.json", name))
		if existing, err := os.ReadFile(dest); err == nil && len(existing) > 0 {
			if string(existing) == string(data) {
				continue
			}
		}
		if err := os.WriteFile(dest, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
	}
	return nil
}

// WriteJSON marshals data as indented JSON and writes it to path.
func WriteJSON(path string, data any) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func replaceZero(current, fallback string) string {
	if strings.TrimSpace(current) == "" {
		return fallback
	}
	return current
}
