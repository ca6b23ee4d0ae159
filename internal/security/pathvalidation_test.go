package security

import (
	"path/filepath"
	"testing"
)

func TestSafeJoin(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		member  string
		wantErr bool
	}{
		{"plain file", "IRDFF-II.endf", false},
		{"nested file", "IRDFF-II/README", false},
		{"dot segments inside root", "a/../b.endf", false},
		{"parent traversal", "../etc/passwd", true},
		{"nested traversal", "a/../../x", true},
		{"absolute", "/etc/passwd", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoin(root, tt.member)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SafeJoin(%q) error = %v, wantErr %v", tt.member, err, tt.wantErr)
			}
			if err == nil {
				abs, _ := filepath.Abs(root)
				if rel, _ := filepath.Rel(abs, got); rel == ".." || filepath.IsAbs(rel) {
					t.Errorf("SafeJoin(%q) = %q escapes root", tt.member, got)
				}
			}
		})
	}
}

func TestValidateLabel(t *testing.T) {
	valid := []string{"endfb80", "jeff33", "tendl2021", "fe56", "14MeV", "2.5MeV", "jendl-5"}
	for _, l := range valid {
		if err := ValidateLabel(l); err != nil {
			t.Errorf("ValidateLabel(%q) unexpected error: %v", l, err)
		}
	}

	invalid := []string{"", "fe_56", "a/b", "..", ".", "lib 1", "x\x00"}
	for _, l := range invalid {
		if err := ValidateLabel(l); err == nil {
			t.Errorf("ValidateLabel(%q) should fail", l)
		}
	}
}
