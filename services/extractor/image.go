package extractor

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"
)

// extractImage runs OCR over the image bytes. A fresh client per call keeps
// tesseract state isolated between concurrent attachments.
func extractImage(ctx context.Context, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(content); err != nil {
		return "", errors.Wrap(err, "failed to load image for ocr")
	}

	text, err := client.Text()
	if err != nil {
		return "", errors.Wrap(err, "ocr failed")
	}

	result := strings.TrimSpace(text)
	if result == "" {
		return "", errors.New("ocr produced no text")
	}
	return result, nil
}
