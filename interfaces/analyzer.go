package interfaces

import (
	"context"

	"github.com/supportos/complaintstack/dto"
	"github.com/supportos/complaintstack/internal/models"
)

type AnalyzerService interface {
	Classify(ctx context.Context, request dto.AnalyzeRequest) (*models.ClassificationResult, error)
}
