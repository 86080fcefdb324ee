package digest

import (
	"regexp"
	"strconv"
	"strings"
)

// LLM-produced JSON reliably contains two classes of defects despite
// strict-output instructions: unescaped control characters inside string
// literals, and trailing commas. Both must be repaired before parsing.

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// extractObject locates the first top-level {...} object substring,
// defensive against prose wrapping or markdown fences around the JSON.
func extractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// repairJSON escapes literal control characters inside string literals and
// strips trailing commas. The pass is idempotent: valid JSON comes back
// unchanged, and repaired output repairs to itself.
//
// The trailing-comma strip is a plain regex and can misfire on a literal
// ",}" sequence inside a string value. Known limitation.
func repairJSON(raw string) string {
	return trailingCommaRe.ReplaceAllString(escapeControlChars(raw), "$1")
}

// escapeControlChars walks the text once, tracking whether it is inside a
// quoted string and whether the previous character opened an escape, and
// replaces raw control characters in strings with their JSON escapes.
func escapeControlChars(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if escaped {
			b.WriteByte(ch)
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			b.WriteByte(ch)
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			b.WriteByte(ch)
			continue
		}
		if inString && ch <= 0x1f {
			switch ch {
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				b.WriteString(`\u00`)
				b.WriteString(strconv.FormatUint(uint64(ch>>4), 16))
				b.WriteString(strconv.FormatUint(uint64(ch&0xf), 16))
			}
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}
