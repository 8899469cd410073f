package interfaces

import (
	"github.com/supportos/complaintstack/internal/enum"
	"github.com/supportos/complaintstack/internal/models"
)

// EscalationService maps a classification to a processing outcome.
// Deterministic, no side effects.
type EscalationService interface {
	Route(result models.ClassificationResult) enum.RouteDecision
	AssignDepartment(category enum.Category) enum.Department
}
