package filter

import (
	"regexp"
	"strconv"
	"strings"
)

var tokenizer = regexp.MustCompile(`(\d+|\D+)`)

type sortToken struct {
	str   string
	num   int
	isNum bool
}

func tokenize(s string) []sortToken {
	parts := tokenizer.FindAllString(s, -1)
	tokens := make([]sortToken, len(parts))
	for i, p := range parts {
		if num, err := strconv.Atoi(p); err == nil {
			tokens[i] = sortToken{num: num, isNum: true}
		} else {
			tokens[i] = sortToken{str: strings.ToLower(p)}
		}
	}
	return tokens
}

// NaturalLess orders names case-insensitively, comparing embedded numbers by
// value so "Part 2" sorts before "Part 10".
func NaturalLess(a, b string) bool {
	t1, t2 := tokenize(a), tokenize(b)
	for i := 0; i < min(len(t1), len(t2)); i++ {
		switch {
		case t1[i].isNum && !t2[i].isNum:
			return true
		case !t1[i].isNum && t2[i].isNum:
			return false
		case t1[i].isNum:
			if t1[i].num != t2[i].num {
				return t1[i].num < t2[i].num
			}
		case t1[i].str != t2[i].str:
			return t1[i].str < t2[i].str
		}
	}
	return len(t1) < len(t2)
}
