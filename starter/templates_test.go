package starter

import "testing"

func TestGetConfigTemplate(t *testing.T) {
	tpl, err := Get("config.jsonc")
	if err != nil {
		t.Fatal(err)
	}
	if tpl == "" {
		t.Fatal("expected non-empty template")
	}
}

func TestGetRulesTemplate(t *testing.T) {
	tpl, err := Get("rules.example.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if tpl == "" {
		t.Fatal("expected non-empty template")
	}
}

func TestGetUnknownTemplateErrors(t *testing.T) {
	if _, err := Get("nope.txt"); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestApplyReplacesPlaceholders(t *testing.T) {
	out := Apply("hello {{name}}", map[string]string{"name": "forg"})
	if out != "hello forg" {
		t.Fatalf("got %q", out)
	}
}

func TestApplyLeavesUnknownPlaceholdersUntouched(t *testing.T) {
	out := Apply("{{createdAt}} / {{other}}", map[string]string{"createdAt": "2024-01-01"})
	if out != "2024-01-01 / {{other}}" {
		t.Fatalf("got %q", out)
	}
}
