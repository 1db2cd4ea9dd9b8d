package handler

import (
	"strings"
	"testing"
)

func TestValidator_Messages(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"missing username", registerRequest{Email: "a@b.c", Password: "longenough"}, "username is required"},
		{"bad email", registerRequest{Username: "a", Email: "nope", Password: "longenough"}, "email must be a valid email"},
		{"short password", registerRequest{Username: "a", Email: "a@b.c", Password: "short"}, "password must be at least 8 characters"},
		{"bad slug", reconcileRequest{Slug: "Not A Slug"}, "slug must be lowercase letters, digits and single hyphens"},
		{"double hyphen", reconcileRequest{Slug: "pdf--image"}, "slug must be lowercase"},
	}
	for _, tc := range cases {
		err := v.Validate(tc.in)
		if err == nil {
			t.Errorf("%s: expected an error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: got %q, want it to contain %q", tc.name, err.Error(), tc.want)
		}
	}
}

func TestValidator_AcceptsValidInput(t *testing.T) {
	v := NewValidator()
	for _, in := range []any{
		registerRequest{Username: "yoka", Email: "yoka@example.com", Password: "longenough"},
		reconcileRequest{},
		reconcileRequest{Slug: "pdf-to-image"},
	} {
		if err := v.Validate(in); err != nil {
			t.Errorf("Validate(%+v) = %v", in, err)
		}
	}
}
