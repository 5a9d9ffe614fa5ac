package retrieval

import "regexp"

var (
	emailPattern     = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	longDigitPattern = regexp.MustCompile(`\b\d{6,}\b`)
)

// Redact removes emails and long digit sequences from outgoing answers.
func Redact(text string) string {
	text = emailPattern.ReplaceAllString(text, "[REDACTED_EMAIL]")
	text = longDigitPattern.ReplaceAllString(text, "[REDACTED_NUMBER]")
	return text
}
