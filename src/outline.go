package bookwriter

import (
	"fmt"
	"regexp"
	"strings"
)

var headingPattern = regexp.MustCompile(`(?i)^chapter\s+\d+:`)

// IsHeading reports whether line, once trimmed, starts with "Chapter <N>:".
func IsHeading(line string) bool {
	return headingPattern.MatchString(strings.TrimSpace(line))
}

// NormalizeOutline extracts heading lines from outline text and returns exactly
// n of them. Extra headings are dropped; missing ones are filled with
// "Chapter k: Untitled". Numbers and titles are not otherwise checked.
func NormalizeOutline(outline string, n int) []string {
	if n <= 0 {
		return []string{}
	}
	headings := make([]string, 0, n)
	for _, line := range strings.Split(outline, "\n") {
		if len(headings) == n {
			break
		}
		line = strings.TrimSpace(line)
		if headingPattern.MatchString(line) {
			headings = append(headings, line)
		}
	}
	for k := len(headings) + 1; k <= n; k++ {
		headings = append(headings, fmt.Sprintf("Chapter %d: Untitled", k))
	}
	return headings
}
