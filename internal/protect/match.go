package protect

import "strings"

// matchGlob matches a slash-separated path against a glob where "**" spans
// any number of segments and "*" matches within one segment.
func matchGlob(p, pattern string) bool {
	return matchParts(strings.Split(p, "/"), strings.Split(pattern, "/"))
}

func matchParts(segments, pattern []string) bool {
	if len(pattern) == 0 {
		return len(segments) == 0
	}

	head, rest := pattern[0], pattern[1:]
	if head == "**" {
		if len(rest) == 0 {
			return true
		}
		for i := 0; i <= len(segments); i++ {
			if matchParts(segments[i:], rest) {
				return true
			}
		}
		return false
	}

	if len(segments) == 0 || !matchSegment(segments[0], head) {
		return false
	}
	return matchParts(segments[1:], rest)
}

// matchSegment matches one segment against a pattern with "*" wildcards.
func matchSegment(segment, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return segment == pattern
	}

	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(segment, parts[0]) {
		return false
	}
	pos := len(parts[0])
	last := len(parts) - 1
	for _, part := range parts[1:last] {
		idx := strings.Index(segment[pos:], part)
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}
	return len(segment)-pos >= len(parts[last]) && strings.HasSuffix(segment, parts[last])
}
