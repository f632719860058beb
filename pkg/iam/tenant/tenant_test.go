package tenant_test

import (
	"strings"
	"testing"

	"github.com/konnected/identity/pkg/iam/tenant"
)

func TestDeriveSlug(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Acme Inc", "acme-inc"},
		{"Acme, Inc.", "acme-inc"},
		{"  Spaced   Out  ", "spaced-out"},
		{"UPPER case", "upper-case"},
		{"already-slugged", "already-slugged"},
		{"Numbers 42", "numbers-42"},
		{"!!!", ""},
	}

	for _, tc := range cases {
		if got := tenant.DeriveSlug(tc.name); got != tc.want {
			t.Errorf("DeriveSlug(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestValidSlug(t *testing.T) {
	valid := []string{"acme", "acme-inc", "a1", "big-corp-42"}
	for _, s := range valid {
		if !tenant.ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = false, want true", s)
		}
	}

	invalid := []string{
		"",
		"a",
		"Acme",
		"acme_inc",
		"-acme",
		"acme-",
		"acme--inc",
		"acme inc",
		strings.Repeat("a", 64),
	}
	for _, s := range invalid {
		if tenant.ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = true, want false", s)
		}
	}
}
