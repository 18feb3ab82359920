package pairing

import (
	"regexp"
	"testing"

	"github.com/dukerupert/helpline/internal/model"
)

var codePattern = regexp.MustCompile(`^(STU|CAR|EDU)-[A-HJ-NP-Z2-9]{3}-[A-HJ-NP-Z2-9]{3}$`)

func TestGenerateCodeFormat(t *testing.T) {
	for _, role := range model.AllRoles {
		for i := 0; i < 50; i++ {
			code, err := GenerateCode(role)
			if err != nil {
				t.Fatalf("GenerateCode(%s): %v", role, err)
			}
			if !codePattern.MatchString(code) {
				t.Fatalf("code %q does not match %s", code, codePattern)
			}
			if code[:3] != role.CodePrefix() {
				t.Errorf("prefix = %q, want %q", code[:3], role.CodePrefix())
			}
		}
	}
}

func TestGenerateCodeInvalidRole(t *testing.T) {
	if _, err := GenerateCode(model.Role(0)); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestGenerateCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, _ := GenerateCode(model.RoleDependent)
		seen[code] = true
	}
	if len(seen) < 90 {
		t.Errorf("only %d distinct codes in 100 draws", len(seen))
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"STU-AB2-XYZ", "STU-AB2-XYZ"},
		{"stu-ab2-xyz", "STU-AB2-XYZ"},
		{"  car-k7m-p3q ", "CAR-K7M-P3Q"},
		{"STUAB2XYZ", "STU-AB2-XYZ"},
		{"stu ab2 xyz", "STU-AB2-XYZ"},
		{"STU-AB2", "STU-AB2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
