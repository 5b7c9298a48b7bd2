package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")
	fencedAnyRe  = regexp.MustCompile("(?s)```\\s*\\n(.*?)\\n\\s*```")
)

// ExtractJSONBlock pulls a JSON document out of model output. Models wrap
// JSON in markdown fences more often than not; fall back to the outermost
// brace span when no fence parses.
func ExtractJSONBlock(out string) (string, bool) {
	for _, re := range []*regexp.Regexp{fencedJSONRe, fencedAnyRe} {
		for _, m := range re.FindAllStringSubmatch(out, -1) {
			candidate := strings.TrimSpace(m[1])
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
	}

	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start >= 0 && end > start {
		candidate := strings.TrimSpace(out[start : end+1])
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// StripFences removes a single wrapping markdown fence from prose output,
// leaving already-bare text untouched.
func StripFences(out string) string {
	trimmed := strings.TrimSpace(out)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	if m := fencedAnyRe.FindStringSubmatch(trimmed); len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}
