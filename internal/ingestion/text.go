// Package ingestion turns job posting pages into the plain description text that is fed to the
// generation prompts.
package ingestion

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	innerSpace  = regexp.MustCompile(`[ \t\f\v]+`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	bulletMarks = []string{"- ", "* ", "• ", "· "}
)

// CleanText normalizes line endings and whitespace. Headings, bullets and leading indentation
// survive; runs of blank lines collapse to one. Output is deterministic for a given input.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.TrimSpace(trimmed) == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "#") {
		return strings.TrimRight(trimmed, " \t")
	}

	indent := len(line) - len(trimmed)
	body := innerSpace.ReplaceAllString(strings.TrimSpace(trimmed), " ")
	if isBullet(trimmed) {
		body = normalizeBullet(body)
	}
	if indent > 0 {
		return strings.Repeat(" ", indent) + body
	}
	return body
}

func isBullet(line string) bool {
	for _, mark := range bulletMarks {
		if strings.HasPrefix(line, mark) {
			return true
		}
	}
	return false
}

// normalizeBullet rewrites typographic bullets to "- " and keeps markdown ones
func normalizeBullet(line string) string {
	for _, mark := range bulletMarks[2:] {
		if strings.HasPrefix(line, mark) {
			return "- " + strings.TrimPrefix(line, mark)
		}
	}
	return line
}

// Truncate cuts text to at most maxRunes runes, breaking on the last line boundary when one
// exists in the kept part. A non-positive limit disables truncation.
func Truncate(text string, maxRunes int) (string, bool) {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text, false
	}
	runes := []rune(text)
	cut := string(runes[:maxRunes])
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " \n"), true
}
