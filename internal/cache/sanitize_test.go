package cache

import (
	"regexp"
	"testing"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9\-_/.]`)

func TestSanitizeReplacesUnsafeCharacters(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "/a/b.css", "/a/b.css"},
		{"space", "/a b.js", "/a_b.js"},
		{"backslash traversal", `/..\..\x.js`, "/.._.._x.js"},
		{"null byte", "/a\x00.js", "/a_.js"},
		{"query chars", "/a?b=c&d", "/a_b_c_d"},
		{"unicode", "/样式.css", "/__.css"},
		{"keeps dash underscore", "/lib-1_2/x.min.js", "/lib-1_2/x.min.js"},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Sanitize(tc.in)
			if got != tc.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if unsafeChars.MatchString(got) {
				t.Fatalf("sanitized output still contains unsafe characters: %q", got)
			}
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{"/a b/c?.js", "/../..\\etc/passwd", "/\x00\xff/é", "/ok/path.css"}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Fatalf("Sanitize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}
