package analyzer

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a customer support complaint classifier for an e-commerce company.
Analyze the complaint email and respond with a single JSON object, no markdown, no prose.

The JSON object must have exactly these fields:
- "category": one of "returns", "delivery", "quality", "technical", "billing", "other"
- "priority": one of "high", "medium", "low"
- "sentiment": one of "positive", "negative", "neutral"
- "confidence": a number between 0.0 and 1.0
- "entities": an object with string arrays "orderNumbers", "amounts", "dates", "products"

Priority guidance: "high" for urgent issues, threats to cancel, legal mentions, or large amounts;
"medium" for standard complaints needing action; "low" for informational or mild issues.
If none of the categories fit, use "other". Respond with the JSON object only.`

const maxAttachmentChars = 4000

// buildUserPrompt assembles the complaint content. Attachment texts are
// truncated so one large document cannot evict the email body from the
// context window.
func buildUserPrompt(subject, body string, attachmentTexts []string) string {
	var sb strings.Builder
	sb.WriteString("Subject: ")
	sb.WriteString(subject)
	sb.WriteString("\n\nBody:\n")
	sb.WriteString(body)

	for i, text := range attachmentTexts {
		if text == "" {
			continue
		}
		if len(text) > maxAttachmentChars {
			text = text[:maxAttachmentChars] + "... [truncated]"
		}
		sb.WriteString(fmt.Sprintf("\n\nAttachment %d content:\n%s", i+1, text))
	}
	return sb.String()
}
