package querier

import (
	"regexp"
	"strings"
)

var (
	repeatedAndRe = regexp.MustCompile(`\|\|+`)
	mixedRunRe    = regexp.MustCompile(`[|;][|;]+`)
)

// Normalize removes redundant separators from a raw column search. Leading
// and trailing separators are dropped, runs of '|' become one '|' and any run
// of separators that contains a ';' becomes one ';'. An empty result means
// the column is not searched.
func Normalize(raw string) string {
	s := strings.Trim(raw, ";|")
	s = repeatedAndRe.ReplaceAllString(s, "|")
	s = mixedRunRe.ReplaceAllString(s, ";")
	return s
}
