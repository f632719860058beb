package user_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/konnected/identity/pkg/iam/user"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"A@Acme.IO":      "a@acme.io",
		"  a@acme.io  ":  "a@acme.io",
		"\tUser@x.COM\n": "user@x.com",
		"":               "",
	}
	for in, want := range cases {
		if got := user.NormalizeEmail(in); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanLogin(t *testing.T) {
	cases := []struct {
		active   bool
		verified bool
		want     bool
	}{
		{true, true, true},
		{true, false, false},
		{false, true, false},
		{false, false, false},
	}
	for _, tc := range cases {
		u := user.User{IsActive: tc.active, EmailVerified: tc.verified}
		if got := u.CanLogin(); got != tc.want {
			t.Errorf("active=%v verified=%v: CanLogin() = %v, want %v", tc.active, tc.verified, got, tc.want)
		}
	}
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	u := user.User{ID: "user-1", Email: "a@acme.io", PasswordHash: "bcrypt-hash"}

	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "bcrypt-hash") {
		t.Fatal("password hash leaked into JSON")
	}

	pub := u.ToPublic()
	rawPub, err := json.Marshal(pub)
	if err != nil {
		t.Fatalf("marshal public: %v", err)
	}
	if strings.Contains(string(rawPub), "bcrypt-hash") {
		t.Fatal("password hash leaked into public JSON")
	}
	if pub.Email != "a@acme.io" {
		t.Fatalf("unexpected public view: %+v", pub)
	}
}
