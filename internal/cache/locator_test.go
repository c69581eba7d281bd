package cache

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalPathExample(t *testing.T) {
	root := filepath.FromSlash("/cache")

	css, err := LocalPath("https://cdn.example.com/a/b.css", root)
	if err != nil {
		t.Fatalf("local path error: %v", err)
	}
	if want := filepath.FromSlash("/cache/cdn.example.com/a/b.css"); css != want {
		t.Fatalf("expected %s, got %s", want, css)
	}

	js, err := LocalPath("https://cdn.example.com/x.js", root)
	if err != nil {
		t.Fatalf("local path error: %v", err)
	}
	if want := filepath.FromSlash("/cache/cdn.example.com/x.js"); js != want {
		t.Fatalf("expected %s, got %s", want, js)
	}
}

func TestLocalPathIgnoresQuerySchemeAndPort(t *testing.T) {
	root := t.TempDir()
	base, err := LocalPath("https://cdn.example.com/lib/a.js", root)
	if err != nil {
		t.Fatalf("local path error: %v", err)
	}
	for _, raw := range []string{
		"https://cdn.example.com/lib/a.js?v=1",
		"https://cdn.example.com/lib/a.js?v=2#frag",
		"http://cdn.example.com:8080/lib/a.js",
		"https://CDN.example.com/lib/a.js",
	} {
		got, err := LocalPath(raw, root)
		if err != nil {
			t.Fatalf("local path error for %s: %v", raw, err)
		}
		if got != base {
			t.Fatalf("%s should collide with %s, got %s", raw, base, got)
		}
	}
}

func TestLocalPathIsDeterministic(t *testing.T) {
	root := t.TempDir()
	first, err := LocalPath("https://cdn.example.com/a b/c.css", root)
	if err != nil {
		t.Fatalf("local path error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := LocalPath("https://cdn.example.com/a b/c.css", root)
		if again != first {
			t.Fatalf("non deterministic result: %s vs %s", first, again)
		}
	}
}

func TestLocalPathStaysInsideHostDir(t *testing.T) {
	root := t.TempDir()
	hostDir := filepath.Join(root, "cdn.example.com") + string(filepath.Separator)
	for _, raw := range []string{
		"https://cdn.example.com/../../etc/passwd",
		"https://cdn.example.com/a/../../../x.js",
		"https://cdn.example.com/%2e%2e/%2e%2e/secret",
		"https://cdn.example.com/..%5c..%5cwin.ini",
		"https://cdn.example.com/a%00b.js",
		"https://cdn.example.com/",
		"https://cdn.example.com",
	} {
		got, err := LocalPath(raw, root)
		if err != nil {
			t.Fatalf("local path error for %s: %v", raw, err)
		}
		if !strings.HasPrefix(got, hostDir) {
			t.Fatalf("%s escaped host dir: %s", raw, got)
		}
		rel := filepath.ToSlash(strings.TrimPrefix(got, hostDir))
		if unsafeChars.MatchString(rel) {
			t.Fatalf("%s produced unsafe path %s", raw, rel)
		}
	}
}

func TestLocalPathRejectsInvalidURL(t *testing.T) {
	for _, raw := range []string{"http://", "https://%zz", "/relative/a.js", "a.js", "http://../x.js"} {
		_, err := LocalPath(raw, t.TempDir())
		if !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("expected ErrInvalidURL for %q, got %v", raw, err)
		}
		var urlErr *URLError
		if !errors.As(err, &urlErr) || urlErr.URL != raw {
			t.Fatalf("expected URLError carrying %q, got %v", raw, err)
		}
	}
}

func TestParseLocatorRootPath(t *testing.T) {
	loc, err := ParseLocator("https://cdn.example.com")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if loc.Host != "cdn.example.com" || loc.Path != "/root" {
		t.Fatalf("unexpected locator %+v", loc)
	}
	if loc.Key() != "cdn.example.com::/root" {
		t.Fatalf("unexpected key %s", loc.Key())
	}
}

func TestLocalPathUsesEscapedPathAndPunycodeHost(t *testing.T) {
	root := filepath.FromSlash("/cache")
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{"non-ascii path", "https://cdn.example.com/中.js", "/cache/cdn.example.com/_E4_B8_AD.js"},
		{"pre-encoded path", "https://cdn.example.com/%E4%B8%AD.js", "/cache/cdn.example.com/_E4_B8_AD.js"},
		{"encoded space", "https://cdn.example.com/a%20b.js", "/cache/cdn.example.com/a_20b.js"},
		{"raw space", "https://cdn.example.com/a b.js", "/cache/cdn.example.com/a_20b.js"},
		{"encoded slash", "https://cdn.example.com/lib%2Fx.js", "/cache/cdn.example.com/lib_2Fx.js"},
		{"idn host", "https://例子.com/x.js", "/cache/xn--fsqu00a.com/x.js"},
		{"idn host upper case", "https://BÜCHER.de/x.js", "/cache/xn--bcher-kva.de/x.js"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalPath(tc.raw, root)
			if err != nil {
				t.Fatalf("local path error for %s: %v", tc.raw, err)
			}
			if want := filepath.FromSlash(tc.want); got != want {
				t.Fatalf("LocalPath(%q) = %s, want %s", tc.raw, got, want)
			}
		})
	}
}

func TestLocalPathKeepsDistinctResourcesApart(t *testing.T) {
	root := t.TempDir()
	pairs := [][2]string{
		{"https://cdn.example.com/中.js", "https://cdn.example.com/文.js"},
		{"https://cdn.example.com/a%20b.js", "https://cdn.example.com/a_b.js"},
		{"https://cdn.example.com/lib%2Fx.js", "https://cdn.example.com/lib/x.js"},
		{"https://例子.com/x.js", "https://测试.com/x.js"},
	}
	for _, pair := range pairs {
		first, err := ParseLocator(pair[0])
		if err != nil {
			t.Fatalf("parse %s: %v", pair[0], err)
		}
		second, err := ParseLocator(pair[1])
		if err != nil {
			t.Fatalf("parse %s: %v", pair[1], err)
		}
		if first.Key() == second.Key() {
			t.Fatalf("%s and %s share cache key %s", pair[0], pair[1], first.Key())
		}

		a, _ := LocalPath(pair[0], root)
		b, _ := LocalPath(pair[1], root)
		if a == b {
			t.Fatalf("%s and %s share cache file %s", pair[0], pair[1], a)
		}
	}
}
