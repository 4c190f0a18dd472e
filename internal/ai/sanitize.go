package ai

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// MaxPromptChars caps the content length accepted by the AI surface.
const MaxPromptChars = 10000

var (
	// ErrContentTooLong indicates the prompt exceeds MaxPromptChars.
	ErrContentTooLong = errors.New("content too long")
	// ErrMaliciousContent indicates the prompt matched a rejection pattern.
	ErrMaliciousContent = errors.New("content rejected")
)

// Rejection patterns: script injection, SQL injection keywords, path
// traversal sequences.
var maliciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script\b`),
	regexp.MustCompile(`(?i)\b(union\s+select|drop\s+table|insert\s+into|delete\s+from|exec\s*\()`),
	regexp.MustCompile(`\.\.[/\\]`),
}

// PII masking patterns applied to text forwarded to the AI provider.
// Order matters: credit cards before generic phone shapes, SSN before
// dates.
var piiPatterns = []struct {
	re  *regexp.Regexp
	tag string
}{
	{regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`), "[EMAIL]"},
	{regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`), "[CARD]"},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN]"},
	{regexp.MustCompile(`\+?\d{1,3}[ -]?\(?\d{2,4}\)?[ -]?\d{3}[ -]?\d{2,4}`), "[PHONE]"},
	{regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), "[IP]"},
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{2}/\d{2}/\d{4}\b`), "[DATE]"},
}

// ValidateContent rejects over-long or malicious prompts using the
// default length cap.
func ValidateContent(text string) error {
	return ValidateContentMax(text, MaxPromptChars)
}

// ValidateContentMax rejects prompts longer than maxChars or matching a
// rejection pattern. The text is NFKC-normalized before the pattern scan
// so homoglyph variants of the rejected sequences do not slip through.
func ValidateContentMax(text string, maxChars int) error {
	if maxChars <= 0 {
		maxChars = MaxPromptChars
	}
	if len([]rune(text)) > maxChars {
		return fmt.Errorf("%w: max %d characters", ErrContentTooLong, maxChars)
	}
	normalized := norm.NFKC.String(text)
	for _, pattern := range maliciousPatterns {
		if pattern.MatchString(normalized) {
			return ErrMaliciousContent
		}
	}
	return nil
}

// MaskPII replaces personally identifiable substrings with tags. Applied
// to outbound prompts only, never to stored logs.
func MaskPII(text string) string {
	for _, p := range piiPatterns {
		text = p.re.ReplaceAllString(text, p.tag)
	}
	return text
}
