package llmjudge

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/takaswie/flexeval/api"
)

// ratingMarkerPattern matches the bracketed integer marker the judge is
// instructed to end its verdict with, e.g. [[7]].
var ratingMarkerPattern = regexp.MustCompile(`\[\[(-?\d+)\]\]`)

// ratingLabelPattern strips a dangling "rating:" style label left in front
// of the removed marker. Both ASCII and fullwidth colons appear in judge
// output.
var ratingLabelPattern = regexp.MustCompile(`(?i)rating\s*[:：]\s*$`)

// parseScore extracts the rating from raw judge output.
//
// The last marker occurrence is authoritative: judges often restate the
// expected format in their reasoning before the final verdict. A missing
// marker or a rating outside the range yields a nil score; the caller keeps
// the raw output for inspection either way.
func parseScore(raw string, validRange *api.ScoreRange) (score *int, explanation string) {
	matches := ratingMarkerPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return nil, strings.TrimSpace(raw)
	}

	last := matches[len(matches)-1]
	explanation = strings.TrimSpace(raw[:last[0]])
	explanation = strings.TrimSpace(ratingLabelPattern.ReplaceAllString(explanation, ""))

	parsed, err := strconv.Atoi(raw[last[2]:last[3]])
	if err != nil {
		return nil, explanation
	}
	if validRange != nil && !validRange.Contains(parsed) {
		return nil, explanation
	}
	return &parsed, explanation
}
