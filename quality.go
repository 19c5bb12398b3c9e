package canillita

import (
	"strings"
	"unicode/utf8"
)

// Quality gate rejection reasons.
const (
	ReasonTooShort          = "too short"
	ReasonMissingTitle      = "missing title"
	ReasonRejectPattern     = "matches rejection pattern"
	ReasonDuplicateLines    = "too many duplicate lines"
	ReasonPoorWordDiversity = "poor word diversity"
)

// CheckQuality accepts or rejects an article candidate against the
// ruleset thresholds. Checks run in a fixed order and stop at the first
// failure, which is returned as an EREJECTED error carrying the reason.
func CheckQuality(a *Article, rs *Ruleset) error {
	if a == nil {
		return Errorf(EREJECTED, "no article")
	}

	if n := utf8.RuneCountInString(a.Body); n < rs.Content.MinLength {
		return Errorf(EREJECTED, "%s: %d characters (min %d)", ReasonTooShort, n, rs.Content.MinLength)
	}

	if utf8.RuneCountInString(strings.TrimSpace(a.Title)) < MinTitleLength {
		return Errorf(EREJECTED, ReasonMissingTitle)
	}

	for _, re := range rs.reject {
		if re.MatchString(a.Body) {
			return Errorf(EREJECTED, "%s: %s", ReasonRejectPattern, re.String())
		}
	}

	ratio := rs.Quality.MinTextRatio

	var lines []string
	for _, line := range strings.Split(a.Body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 5 && float64(countUnique(lines)) < float64(len(lines))*ratio {
		return Errorf(EREJECTED, ReasonDuplicateLines)
	}

	words := strings.Fields(strings.ToLower(a.Body))
	if len(words) > 50 && float64(countUnique(words)) < float64(len(words))*ratio*0.7 {
		return Errorf(EREJECTED, ReasonPoorWordDiversity)
	}

	return nil
}

func countUnique(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
