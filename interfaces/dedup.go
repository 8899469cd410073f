package interfaces

import (
	"context"

	"github.com/supportos/complaintstack/internal/enum"
	"github.com/supportos/complaintstack/internal/models"
)

// DuplicateMatch is the outcome of a cache lookup. Kind is exact when the
// content hash matched, likely when only the similarity signature did.
type DuplicateMatch struct {
	ComplaintID string
	Kind        enum.DuplicateKind
	Score       float64
}

// DedupService is the shared time-bounded cache guarding both duplicate
// detection and analyzer cost. All errors wrap ErrDuplicateCacheUnavailable
// so callers can degrade instead of blocking.
type DedupService interface {
	Lookup(ctx context.Context, fp models.Fingerprint) (*DuplicateMatch, error)
	Record(ctx context.Context, fp models.Fingerprint, complaintID string) error
	GetClassification(ctx context.Context, exactHash string) (*models.ClassificationResult, error)
	PutClassification(ctx context.Context, exactHash string, result *models.ClassificationResult) error
}
