package interfaces

import (
	"context"

	"github.com/supportos/complaintstack/internal/models"
)

// NotifierService is a fire-and-forget sink. Delivery failures are logged
// by the caller, never escalated to pipeline failure.
type NotifierService interface {
	NotifyEscalation(ctx context.Context, complaint *models.Complaint) error
	Close() error
}
