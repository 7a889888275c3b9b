package filter

import (
	"regexp"
	"strings"
)

// compileKeywords builds case-insensitive whole-word patterns.
func compileKeywords(keywords []string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out = append(out, regexp.MustCompile(`(?i)(?:^|\W)`+regexp.QuoteMeta(k)+`(?:$|\W)`))
	}
	return out
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
