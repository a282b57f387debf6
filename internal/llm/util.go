// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

const fence = "```"

// CleanJSONBlock removes a markdown code block wrapping the whole response.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
// Only a fence that opens the text and a fence that closes it are removed; any other text is
// returned trimmed but otherwise untouched so callers can reject it.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, fence) || len(text) < 2*len(fence) || !strings.HasSuffix(text, fence) {
		return text
	}

	inner := text[len(fence) : len(text)-len(fence)]

	// Skip a language identifier on the opening line
	if idx := strings.Index(inner, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(inner[:idx])
		if isLanguageTag(firstLine) {
			inner = inner[idx+1:]
		}
	} else if isLanguageTag(strings.TrimSpace(inner)) {
		inner = ""
	}
	return strings.TrimSpace(inner)
}

// isLanguageTag reports whether line looks like a fence info string such as "json"
func isLanguageTag(line string) bool {
	return len(line) < 20 && !strings.ContainsAny(line, " {}[]\"")
}
