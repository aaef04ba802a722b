package flags

import (
	"testing"
)

func TestValidateConfidence(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"zero is valid", 0.0, false},
		{"one is valid", 1.0, false},
		{"mid-range is valid", 0.5, false},
		{"negative is invalid", -0.1, true},
		{"above one is invalid", 1.1, true},
		{"large negative is invalid", -10.0, true},
		{"large positive is invalid", 10.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfidence(tt.value)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateLimit(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"zero is valid", 0, false},
		{"positive is valid", 10, false},
		{"large positive is valid", 1000, false},
		{"negative is invalid", -1, true},
		{"large negative is invalid", -100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLimit(tt.value)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateKeepStrategy(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"oldest is valid", "oldest", false},
		{"newest is valid", "newest", false},
		{"shortest is valid", "shortest", false},
		{"longest is valid", "longest", false},
		{"invalid strategy", "invalid", true},
		{"empty is invalid", "", true},
		{"uppercase oldest is invalid", "OLDEST", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKeepStrategy(tt.value)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateThreshold(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"zero is valid", 0, false},
		{"max is valid", 64, false},
		{"mid-range is valid", 8, false},
		{"negative is invalid", -1, true},
		{"above max is invalid", 65, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThreshold(tt.value)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"port 1 is valid", 1, false},
		{"port 80 is valid", 80, false},
		{"port 443 is valid", 443, false},
		{"port 8080 is valid", 8080, false},
		{"port 65535 is valid", 65535, false},
		{"port 0 is invalid", 0, true},
		{"negative port is invalid", -1, true},
		{"port above 65535 is invalid", 65536, true},
		{"large port is invalid", 100000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePort(tt.value)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
