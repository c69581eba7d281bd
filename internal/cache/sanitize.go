package cache

import "strings"

// Sanitize 将 [A-Za-z0-9-_/.] 之外的每个字符替换为 '_'，保留目录结构便于排查。
func Sanitize(pathname string) string {
	return strings.Map(func(r rune) rune {
		if isSafeRune(r) {
			return r
		}
		return '_'
	}, pathname)
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '/', r == '.':
		return true
	}
	return false
}
