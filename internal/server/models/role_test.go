package models

import "testing"

func TestRole_AtLeast(t *testing.T) {
	tests := []struct {
		name string
		r    Role
		min  Role
		want bool
	}{
		{"admin satisfies user", RoleAdmin, RoleUser, true},
		{"admin satisfies admin", RoleAdmin, RoleAdmin, true},
		{"user satisfies user", RoleUser, RoleUser, true},
		{"user does not satisfy admin", RoleUser, RoleAdmin, false},
		{"guest does not satisfy user", RoleGuest, RoleUser, false},
		{"guest satisfies guest", RoleGuest, RoleGuest, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.AtLeast(tt.min); got != tt.want {
				t.Fatalf("%v.AtLeast(%v) = %v, want %v", tt.r, tt.min, got, tt.want)
			}
		})
	}
}

func TestParseRole_RoundTrip(t *testing.T) {
	for _, r := range []Role{RoleGuest, RoleUser, RoleAdmin} {
		if got := ParseRole(r.String()); got != r {
			t.Fatalf("ParseRole(%q) = %v, want %v", r.String(), got, r)
		}
	}
}

func TestParseRole_UnknownFallsBackToGuest(t *testing.T) {
	if got := ParseRole("superadmin"); got != RoleGuest {
		t.Fatalf("ParseRole(unknown) = %v, want RoleGuest", got)
	}
}
