package domain

import "testing"

func TestIsVisible_Matrix(t *testing.T) {
	free := &Tool{Slug: "free"}
	premium := &Tool{Slug: "premium", IsPremium: true}
	private := &Tool{Slug: "private", IsPrivate: true}
	both := &Tool{Slug: "both", IsPremium: true, IsPrivate: true}

	cases := []struct {
		role Role
		tool *Tool
		want bool
	}{
		{RoleBasic, free, true},
		{RoleBasic, premium, false},
		{RoleBasic, private, false},
		{RoleBasic, both, false},
		{RolePremium, free, true},
		{RolePremium, premium, true},
		{RolePremium, private, false},
		{RolePremium, both, false},
		{RoleAdmin, free, true},
		{RoleAdmin, premium, true},
		{RoleAdmin, private, true},
		{RoleAdmin, both, true},
		{RoleDeveloper, both, true},
		{Role("guest"), premium, false},
		{Role(""), free, true},
	}

	for _, tc := range cases {
		if got := IsVisible(tc.tool, tc.role); got != tc.want {
			t.Errorf("IsVisible(%s, %q) = %v, want %v", tc.tool.Slug, tc.role, got, tc.want)
		}
	}
}

func TestIsVisible_NilTool(t *testing.T) {
	if IsVisible(nil, RoleAdmin) {
		t.Fatal("nil tool must never be visible")
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"basic":     RoleBasic,
		" Premium ": RolePremium,
		"ADMIN":     RoleAdmin,
		"developer": RoleDeveloper,
		"superuser": RoleBasic,
		"":          RoleBasic,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSession_EffectiveRole(t *testing.T) {
	cases := []struct {
		name string
		s    Session
		want Role
	}{
		{"anonymous", Anonymous(), RoleBasic},
		{"logged out premium account", Session{Role: RolePremium}, RoleBasic},
		{"basic", Session{IsLoggedIn: true, Role: RoleBasic}, RoleBasic},
		{"premium flag", Session{IsLoggedIn: true, Role: RoleBasic, IsPremium: true}, RolePremium},
		{"admin", Session{IsLoggedIn: true, Role: RoleAdmin, IsAdmin: true}, RoleAdmin},
		{"developer", Session{IsLoggedIn: true, IsDeveloper: true}, RoleDeveloper},
	}
	for _, tc := range cases {
		if got := tc.s.EffectiveRole(); got != tc.want {
			t.Errorf("%s: EffectiveRole() = %q, want %q", tc.name, got, tc.want)
		}
	}
}
