package escalation

import (
	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/enum"
	"github.com/supportos/complaintstack/internal/models"
)

var departmentByCategory = map[enum.Category]enum.Department{
	enum.CategoryReturns:   enum.DepartmentReturns,
	enum.CategoryDelivery:  enum.DepartmentLogistics,
	enum.CategoryQuality:   enum.DepartmentQuality,
	enum.CategoryTechnical: enum.DepartmentTechSupport,
	enum.CategoryBilling:   enum.DepartmentBilling,
	enum.CategoryOther:     enum.DepartmentCustomerService,
}

type escalationService struct{}

func NewEscalationService() interfaces.EscalationService {
	return &escalationService{}
}

// Route decides the processing outcome from priority alone: high and medium
// escalate, low is stored without notification.
func (s *escalationService) Route(result models.ClassificationResult) enum.RouteDecision {
	switch result.Priority {
	case enum.PriorityHigh, enum.PriorityMedium:
		return enum.RouteStoreAndNotify
	default:
		return enum.RouteStoreOnly
	}
}

func (s *escalationService) AssignDepartment(category enum.Category) enum.Department {
	if department, ok := departmentByCategory[category]; ok {
		return department
	}
	return enum.DepartmentCustomerService
}
