package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/supportos/complaintstack/internal/enum"
	"github.com/supportos/complaintstack/internal/models"
)

func TestRoute(t *testing.T) {
	svc := NewEscalationService()

	tests := []struct {
		name     string
		priority enum.Priority
		want     enum.RouteDecision
	}{
		{"high escalates", enum.PriorityHigh, enum.RouteStoreAndNotify},
		{"medium escalates", enum.PriorityMedium, enum.RouteStoreAndNotify},
		{"low stores only", enum.PriorityLow, enum.RouteStoreOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Route(models.ClassificationResult{Priority: tt.priority})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssignDepartment(t *testing.T) {
	svc := NewEscalationService()

	tests := []struct {
		category enum.Category
		want     enum.Department
	}{
		{enum.CategoryReturns, enum.DepartmentReturns},
		{enum.CategoryDelivery, enum.DepartmentLogistics},
		{enum.CategoryQuality, enum.DepartmentQuality},
		{enum.CategoryTechnical, enum.DepartmentTechSupport},
		{enum.CategoryBilling, enum.DepartmentBilling},
		{enum.CategoryOther, enum.DepartmentCustomerService},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, svc.AssignDepartment(tt.category))
		})
	}
}

func TestAssignDepartment_UnknownCategoryFallsBack(t *testing.T) {
	svc := NewEscalationService()

	assert.Equal(t, enum.DepartmentCustomerService, svc.AssignDepartment(enum.Category("mystery")))
}
