package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/supportos/complaintstack/internal/utils"
)

func extractPlainText(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", errors.New("text attachment is not valid utf-8")
	}
	result := strings.TrimSpace(string(content))
	if result == "" {
		return "", errors.New("text attachment is empty")
	}
	return result, nil
}

func extractHTML(content []byte) (string, error) {
	result := strings.TrimSpace(utils.HTMLToText(string(content)))
	if result == "" {
		return "", errors.New("html attachment contains no text")
	}
	return result, nil
}
