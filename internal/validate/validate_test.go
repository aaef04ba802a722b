package validate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJSONC(t *testing.T) {
	t.Run("validates valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.jsonc")

		content := `{
			// forg workspace config
			"schemaVersion": "1",
			"kind": "forg.config",
			"scannerName": "fs",
			"hasherName": "fast64",
			"dbPath": ".forg/forg.db",
			"keepStrategy": "oldest"
		}`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		err := JSONC(path, "config")
		if err != nil {
			t.Errorf("JSONC() error = %v", err)
		}
	})

	t.Run("returns error for invalid data against schema", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "invalid.jsonc")

		// Missing required fields
		content := `{"invalid": true}`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		err := JSONC(path, "config")
		if err == nil {
			t.Error("JSONC() expected validation error")
		}
	})

	t.Run("returns error for wrong keepStrategy enum value", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.jsonc")
		content := `{
			"schemaVersion": "1",
			"kind": "forg.config",
			"scannerName": "fs",
			"hasherName": "fast64",
			"dbPath": ".forg/forg.db",
			"keepStrategy": "nonsense"
		}`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		err := JSONC(path, "config")
		if err == nil {
			t.Error("JSONC() expected error for out-of-enum keepStrategy")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		err := JSONC("/nonexistent/file.jsonc", "config")
		if err == nil {
			t.Error("JSONC() expected error for missing file")
		}
	})

	t.Run("returns error for invalid schema name", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "test.jsonc")
		if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
			t.Fatal(err)
		}

		err := JSONC(path, "nonexistent-schema")
		if err == nil {
			t.Error("JSONC() expected error for invalid schema")
		}
	})

	t.Run("returns error for invalid JSON", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "invalid.jsonc")
		if err := os.WriteFile(path, []byte(`{not valid`), 0o644); err != nil {
			t.Fatal(err)
		}

		err := JSONC(path, "config")
		if err == nil {
			t.Error("JSONC() expected error for invalid JSON")
		}
	})
}

func TestJSON(t *testing.T) {
	t.Run("validates valid export document", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "export.json")

		content := `{
			"stats": {
				"totalFiles": 3,
				"totalDirectories": 1,
				"totalSize": 1024,
				"duplicateGroups": 1,
				"duplicateFiles": 2,
				"duplicateSize": 512
			},
			"files": [],
			"duplicates": []
		}`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		err := JSON(path, "export")
		if err != nil {
			t.Errorf("JSON() error = %v", err)
		}
	})

	t.Run("returns error for invalid data against schema", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "invalid.json")

		// Missing required fields
		content := `{"invalid": true}`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		err := JSON(path, "export")
		if err == nil {
			t.Error("JSON() expected validation error")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		err := JSON("/nonexistent/file.json", "export")
		if err == nil {
			t.Error("JSON() expected error for missing file")
		}
	})

	t.Run("returns error for invalid schema name", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "test.json")
		if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
			t.Fatal(err)
		}

		err := JSON(path, "nonexistent-schema")
		if err == nil {
			t.Error("JSON() expected error for invalid schema")
		}
	})

	t.Run("returns error for invalid JSON", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "invalid.json")
		if err := os.WriteFile(path, []byte(`{not valid`), 0o644); err != nil {
			t.Fatal(err)
		}

		err := JSON(path, "export")
		if err == nil {
			t.Error("JSON() expected error for invalid JSON")
		}
	})
}
