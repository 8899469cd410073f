package utils

import (
	"regexp"
	"strings"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	subjectPrefix   = regexp.MustCompile(`(?i)^(Re|Fwd|Fw)(\[\d+\])?:\s*`)

	// courtesy words carry no signal for duplicate detection
	noiseWordRegex = regexp.MustCompile(`(?i)\b(please|thanks?|thank you|hi|hello|dear|regards?)\b`)

	// attachment banner lines injected when concatenating extracted text
	attachmentNoiseRegex = regexp.MustCompile(`(?i)---\s*attachment:[^\n]*---`)

	punctuationRegex = regexp.MustCompile(`[^\w\s]`)
)

// NormalizeText canonicalizes message text for fingerprinting: lowercase,
// noise words and attachment banners removed, whitespace collapsed. Two
// messages differing only in case or spacing normalize identically.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = attachmentNoiseRegex.ReplaceAllString(text, " ")
	text = noiseWordRegex.ReplaceAllString(text, " ")
	text = punctuationRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// NormalizeEmailSubject removes prefixes like Re:, Fwd:, etc. from a subject
func NormalizeEmailSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	for subjectPrefix.MatchString(subject) {
		subject = subjectPrefix.ReplaceAllString(subject, "")
		subject = strings.TrimSpace(subject)
	}
	return subject
}

func NormalizeMessageID(messageID string) string {
	messageID = strings.TrimSpace(messageID)
	messageID = strings.TrimPrefix(messageID, "<")
	messageID = strings.TrimSuffix(messageID, ">")
	return messageID
}

// Tokenize splits normalized text into word tokens
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]{}")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
