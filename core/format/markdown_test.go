package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"snake_case", `snake\_case`},
		{"a*b", `a\*b`},
		{"x[y]", `x\[y]`},
		{"tick`", "tick\\`"},
	}
	for _, tc := range cases {
		if got := EscapeMarkdown(tc.in); got != tc.want {
			t.Fatalf("EscapeMarkdown(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHashtag(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"coolset", "#coolset"},
		{"#already", "#already"},
		{"my set", "#my_set"},
		{"набор", "#_____"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Hashtag(tc.in); got != tc.want {
			t.Fatalf("Hashtag(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestJoinTags(t *testing.T) {
	if got := JoinTags([]string{"cute_fox", "red"}, false); got != `cute\_fox red` {
		t.Fatalf("escaped join = %q", got)
	}
	if got := JoinTags([]string{"coolset", ""}, true); got != "#coolset" {
		t.Fatalf("hashtag join = %q", got)
	}
}
