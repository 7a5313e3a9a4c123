package generate

import (
	"regexp"
	"strings"
)

var thinkTagRe = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// ExtractReasoning splits a completion into its visible text and the
// reasoning trace delimited by <think> tags. Text without a reasoning
// section passes through unchanged with an empty trace.
func ExtractReasoning(completion string) (text, reasoning string) {
	match := thinkTagRe.FindStringSubmatch(completion)
	if match != nil {
		reasoning = strings.TrimSpace(match[1])
	}
	text = strings.TrimSpace(thinkTagRe.ReplaceAllString(completion, ""))
	return text, reasoning
}
