package interfaces

import (
	"context"
	"time"

	"github.com/supportos/complaintstack/internal/enum"
	"github.com/supportos/complaintstack/internal/models"
)

// ComplaintFilter drives the list endpoint. Zero values mean "no filter".
type ComplaintFilter struct {
	CustomerEmail string
	Status        enum.ComplaintStatus
	Category      enum.Category
	Priority      enum.Priority
	ContentHash   string
	ReceivedAfter *time.Time
	ReceivedUntil *time.Time
	Limit         int
	Offset        int
}

type ComplaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	Update(ctx context.Context, complaint *models.Complaint) error
	GetByID(ctx context.Context, id string) (*models.Complaint, error)
	GetByMessageID(ctx context.Context, messageID string) (*models.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]models.Complaint, int64, error)
	GetAttachment(ctx context.Context, complaintID, attachmentID string) (*models.ComplaintAttachment, error)
	CountByStatus(ctx context.Context) (map[enum.ComplaintStatus]int64, error)
}
