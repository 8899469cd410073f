package utils

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText strips markup from an HTML email body, keeping the visible
// text. Script and style contents are dropped entirely.
func HTMLToText(htmlContent string) string {
	if htmlContent == "" {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(htmlContent))
	var sb strings.Builder
	var skipDepth int

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			return strings.TrimSpace(whitespaceRegex.ReplaceAllString(sb.String(), " "))
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "head":
				skipDepth++
			case "br", "p", "div", "tr", "li":
				sb.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "head":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(tokenizer.Text())
				sb.WriteByte(' ')
			}
		}
	}
}
