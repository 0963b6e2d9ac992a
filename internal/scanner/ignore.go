package scanner

import (
	"path"
	"strings"
)

// IgnorePattern is a single gitignore-style pattern.
type IgnorePattern struct {
	raw      string
	negate   bool
	dirOnly  bool
	anchored bool
	segments []string
}

// ParseIgnorePattern parses one line of an ignore file. A leading "!"
// negates the pattern, a trailing "/" restricts it to directories and a
// pattern containing "/" anywhere but at the end is anchored at the
// directory holding the ignore file.
func ParseIgnorePattern(line string) IgnorePattern {
	p := IgnorePattern{raw: line}

	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.Contains(line, "/") {
		p.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	p.segments = strings.Split(line, "/")
	return p
}

// IsNegation reports whether the pattern re-includes what it matches.
func (p IgnorePattern) IsNegation() bool {
	return p.negate
}

// String returns the pattern as written.
func (p IgnorePattern) String() string {
	return p.raw
}

// Match reports whether the slash separated relative path matches.
func (p IgnorePattern) Match(rel string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	parts := strings.Split(rel, "/")
	if p.anchored {
		return matchSegments(p.segments, parts)
	}
	// Unanchored patterns are a single segment matched against the name.
	ok, _ := path.Match(p.segments[0], parts[len(parts)-1])
	return ok
}

// matchSegments matches pattern segments against path segments. "**"
// matches any number of segments, including none.
func matchSegments(pattern, parts []string) bool {
	if len(pattern) == 0 {
		return len(parts) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pattern[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	if ok, _ := path.Match(pattern[0], parts[0]); !ok {
		return false
	}
	return matchSegments(pattern[1:], parts[1:])
}
