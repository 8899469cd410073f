package interfaces

import (
	"context"

	"github.com/supportos/complaintstack/internal/models"
)

// ExtractorService turns one raw attachment into its extraction outcome.
// Failures are encoded in the result status, never returned as errors: a
// bad attachment must not abort the owning message.
type ExtractorService interface {
	Process(ctx context.Context, keyPrefix string, attachment models.RawAttachment) models.AttachmentResult
}
