package biography

import (
	"strconv"
	"strings"
)

// MaxDepth is the deepest section nesting the numbering scheme allows.
const MaxDepth = 3

// Number returns the dotted numeric prefix of a section title
// (e.g. "1.2" for "1.2 Education"). Titles without a space return
// the whole string.
func Number(title string) string {
	if i := strings.IndexByte(title, ' '); i >= 0 {
		return title[:i]
	}
	return title
}

// Label returns the human-readable part of a section title after the
// dotted number.
func Label(title string) string {
	if i := strings.IndexByte(title, ' '); i >= 0 {
		return title[i+1:]
	}
	return ""
}

// IsValidPathFormat reports whether a dotted section number is well formed:
// at most MaxDepth numeric segments, each level a valid extension of the
// previous one. The empty string is valid and denotes a root-level section.
func IsValidPathFormat(number string) bool {
	if number == "" {
		return true
	}
	parts := strings.Split(number, ".")
	if len(parts) > MaxDepth {
		return false
	}
	if !numericSegment(parts[0]) {
		return false
	}
	for i := 1; i < len(parts); i++ {
		parent := strings.Join(parts[:i], ".")
		child := strings.Join(parts[:i+1], ".")
		if !IsValidSubsectionNumber(parent, child) {
			return false
		}
	}
	return true
}

// IsValidSubsectionNumber reports whether child extends parent by exactly
// one numeric segment (parent "1.2" -> child "1.2.3").
func IsValidSubsectionNumber(parent, child string) bool {
	parentParts := strings.Split(parent, ".")
	childParts := strings.Split(child, ".")

	if len(childParts) != len(parentParts)+1 {
		return false
	}
	for i := range parentParts {
		if parentParts[i] != childParts[i] {
			return false
		}
	}
	return numericSegment(childParts[len(childParts)-1])
}

// CompareNumbers orders two dotted section numbers segment-by-segment,
// numerically. A missing trailing segment compares as 0, so "1" sorts
// before "1.1". Non-numeric segments compare as 0.
func CompareNumbers(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av := segmentValue(as, i)
		bv := segmentValue(bs, i)
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func segmentValue(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	v, err := strconv.Atoi(parts[i])
	if err != nil {
		return 0
	}
	return v
}

func numericSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
