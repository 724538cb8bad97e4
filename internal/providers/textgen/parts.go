package textgen

import "strings"

const (
	thinkOpenTag  = "<think>"
	thinkCloseTag = "</think>"
)

// CompletionParts is a completion split into its visible text and any
// reasoning the model emitted alongside it.
type CompletionParts struct {
	Text      string
	Reasoning string
}

// ExtractParts separates reasoning from the visible completion. A dedicated
// reasoning field wins; otherwise a leading <think> block is split off the
// content. Plain completions pass through untouched.
func ExtractParts(content, reasoning string) CompletionParts {
	if r := strings.TrimSpace(reasoning); r != "" {
		return CompletionParts{Text: strings.TrimSpace(content), Reasoning: r}
	}
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, thinkOpenTag) {
		rest := trimmed[len(thinkOpenTag):]
		if end := strings.Index(rest, thinkCloseTag); end >= 0 {
			return CompletionParts{
				Text:      strings.TrimSpace(rest[end+len(thinkCloseTag):]),
				Reasoning: strings.TrimSpace(rest[:end]),
			}
		}
		// Unterminated block: the model was cut off mid-thought.
		return CompletionParts{Reasoning: strings.TrimSpace(rest)}
	}
	return CompletionParts{Text: trimmed}
}
