package memory

import (
	"strings"
	"time"
)

const (
	contextHeader = "You have previously created the following scenes:\n"
	contextFooter = "Use the knowledge and style from these creations to inspire the new scene ONLY WHEN THE PROMPT IS MENTIONING SOMETHING FROM PAST CREATIONS.\n"
)

// BuildContext renders past creations as a context block for prompt expansion.
// It returns an empty string when there is nothing to render, so callers must
// check for emptiness before appending it.
func BuildContext(records []CreationRecord) string {
	if len(records) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(contextHeader)
	for _, rec := range records {
		sb.WriteString("- Title: ")
		sb.WriteString(rec.OriginalPrompt)
		sb.WriteString("\n  Expanded Description: ")
		sb.WriteString(rec.ExpandedPrompt)
		sb.WriteString("\n  Created on: ")
		sb.WriteString(rec.Timestamp.Format(time.RFC3339))
		sb.WriteString("\n\n")
	}
	sb.WriteString(contextFooter)
	return sb.String()
}

// Titles returns the original prompts of the records, in order.
func Titles(records []CreationRecord) []string {
	titles := make([]string, 0, len(records))
	for _, rec := range records {
		titles = append(titles, rec.OriginalPrompt)
	}
	return titles
}
