package rules

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/forgcli/forg/internal/model"
)

// Attrs is the attribute set a template or predicate is evaluated against.
type Attrs struct {
	File model.FileInfo
	Tags []model.Tag // ordered by descending confidence, per spec.md §4.7

	// Metadata fields default to the zero value when no metadata reader
	// populated them; Taken falls back to File.MTime when absent.
	Taken        time.Time
	CameraMake   string
	CameraModel  string
	GPSLat       float64
	GPSLon       float64
	HasGPS       bool
	HasCameraEXIF bool
}

func (a Attrs) takenOrMTime() time.Time {
	if a.Taken.IsZero() {
		return a.File.MTime
	}
	return a.Taken
}

func (a Attrs) tag(n int) (string, bool) {
	if n < 1 || n > len(a.Tags) {
		return "", false
	}
	return a.Tags[n-1].Label, true
}

func (a Attrs) hasTag(label string) bool {
	for _, t := range a.Tags {
		if strings.EqualFold(t.Label, label) {
			return true
		}
	}
	return false
}

// expandTemplate expands literal text interspersed with `{name}` or
// `{name:default}` placeholders (spec.md §4.7); the default also replaces
// a placeholder that resolves to an empty value. On an unrecognized
// placeholder without a default, expansion fails so the caller can skip this rule rather
// than abort the whole apply_rules call.
func expandTemplate(tmpl string, attrs Attrs) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(tmpl) {
		c := tmpl[i]
		if c != '{' {
			out.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("rules: unterminated placeholder in %q", tmpl)
		}
		token := tmpl[i+1 : i+end]
		i += end + 1

		name, def, hasDefault := token, "", false
		if idx := strings.IndexByte(token, ':'); idx >= 0 {
			// {tag:N} selects the Nth tag; any other suffix is a default.
			if _, err := strconv.Atoi(token[idx+1:]); token[:idx] != "tag" || err != nil {
				name, def, hasDefault = token[:idx], token[idx+1:], true
			}
		}

		value, ok := resolvePlaceholder(name, attrs)
		switch {
		case (!ok || value == "") && hasDefault:
			value = def
		case !ok:
			return "", fmt.Errorf("rules: unrecognized placeholder %q", token)
		}
		out.WriteString(value)
	}
	return sanitizePath(out.String())
}

func resolvePlaceholder(name string, attrs Attrs) (string, bool) {
	switch {
	case name == "name":
		base := filepath.Base(attrs.File.Path)
		return strings.TrimSuffix(base, filepath.Ext(base)), true
	case name == "ext":
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(attrs.File.Path)), "."), true
	case name == "parent":
		abs, err := filepath.Abs(filepath.Dir(attrs.File.Path))
		if err != nil {
			return filepath.Dir(attrs.File.Path), true
		}
		return abs, true
	case name == "size":
		return strconv.FormatUint(attrs.File.Size, 10), true
	case name == "year":
		return fmt.Sprintf("%04d", attrs.takenOrMTime().Year()), true
	case name == "month":
		return fmt.Sprintf("%02d", int(attrs.takenOrMTime().Month())), true
	case name == "day":
		return fmt.Sprintf("%02d", attrs.takenOrMTime().Day()), true
	case name == "hour":
		return fmt.Sprintf("%02d", attrs.takenOrMTime().Hour()), true
	case name == "minute":
		return fmt.Sprintf("%02d", attrs.takenOrMTime().Minute()), true
	case name == "camera_make":
		return attrs.CameraMake, true
	case name == "camera_model":
		return attrs.CameraModel, true
	case name == "gps_lat":
		if !attrs.HasGPS {
			return "", false
		}
		return strconv.FormatFloat(attrs.GPSLat, 'f', 6, 64), true
	case name == "gps_lon":
		if !attrs.HasGPS {
			return "", false
		}
		return strconv.FormatFloat(attrs.GPSLon, 'f', 6, 64), true
	case name == "tag":
		return attrs.tag(1)
	case strings.HasPrefix(name, "tag:"):
		n, err := strconv.Atoi(strings.TrimPrefix(name, "tag:"))
		if err != nil {
			return "", false
		}
		return attrs.tag(n)
	default:
		return "", false
	}
}

// sanitizePath trims whitespace and rejects ".." segments produced by
// expanded user text (spec.md §4.7).
func sanitizePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	for _, part := range strings.Split(filepath.ToSlash(trimmed), "/") {
		if part == ".." {
			return "", fmt.Errorf("rules: expanded path contains '..' segment: %q", trimmed)
		}
	}
	return trimmed, nil
}

// sortByPriority orders rules descending by Priority (stable, so equal
// priorities, including the default of 0, preserve declaration order).
func sortByPriority(rs []model.Rule) []model.Rule {
	out := make([]model.Rule, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}
