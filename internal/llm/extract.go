package llm

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var codeFenceRe = regexp.MustCompile("```(?:json)?\\s*|\\s*```")

// stripCodeFences removes markdown code-fence wrapping the model likes to
// add around JSON payloads.
func stripCodeFences(s string) string {
	return codeFenceRe.ReplaceAllString(s, "")
}

// extractJSONObject locates the first brace-delimited JSON object
// substring within free text. The model may prepend or append commentary;
// everything from the first '{' to the last '}' is taken as the payload.
// Returns "" when no such substring exists.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// truncate caps s at n bytes, backing off to a rune boundary so a
// multi-byte character is never split. Prompt construction uses this to
// bound the message fields embedded in each prompt.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
