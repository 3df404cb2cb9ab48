package types

import "testing"

func TestNormalizeIdentifier(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"ab12cd34", "AB12CD34"},
		{" AB12CD34 ", "AB12CD34"},
		{"\tab12cd34\n", "AB12CD34"},
		{"AB12CD34", "AB12CD34"},
		{"   ", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeIdentifier(tc.in); got != tc.want {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseAccessLevel(t *testing.T) {
	cases := []struct {
		in   string
		want AccessLevel
		ok   bool
	}{
		{"Admin", AccessLevelAdmin, true},
		{"admin", AccessLevelAdmin, true},
		{"ADMIN", AccessLevelAdmin, true},
		{" user ", AccessLevelUser, true},
		{"Guest", AccessLevelGuest, true},
		{"root", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseAccessLevel(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseAccessLevel(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
