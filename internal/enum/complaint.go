package enum

type Category string

const (
	CategoryReturns   Category = "returns"
	CategoryDelivery  Category = "delivery"
	CategoryQuality   Category = "quality"
	CategoryTechnical Category = "technical"
	CategoryBilling   Category = "billing"
	CategoryOther     Category = "other"
)

func (t Category) String() string {
	return string(t)
}

// Categories is the closed set accepted from the analyzer
var Categories = []Category{
	CategoryReturns,
	CategoryDelivery,
	CategoryQuality,
	CategoryTechnical,
	CategoryBilling,
	CategoryOther,
}

func DecodeCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (t Priority) String() string {
	return string(t)
}

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func DecodePriority(s string) (Priority, bool) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

func (t Sentiment) String() string {
	return string(t)
}

func DecodeSentiment(s string) (Sentiment, bool) {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return Sentiment(s), true
	}
	return "", false
}

type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "pending"
	ComplaintStatusProcessing ComplaintStatus = "processing"
	ComplaintStatusCompleted  ComplaintStatus = "completed"
	ComplaintStatusFailed     ComplaintStatus = "failed"
)

func (t ComplaintStatus) String() string {
	return string(t)
}

func DecodeComplaintStatus(s string) (ComplaintStatus, bool) {
	switch ComplaintStatus(s) {
	case ComplaintStatusPending, ComplaintStatusProcessing, ComplaintStatusCompleted, ComplaintStatusFailed:
		return ComplaintStatus(s), true
	}
	return "", false
}

type DuplicateKind string

const (
	DuplicateExact  DuplicateKind = "exact"
	DuplicateLikely DuplicateKind = "likely"
)

func (t DuplicateKind) String() string {
	return string(t)
}

type Department string

const (
	DepartmentReturns         Department = "returns_team"
	DepartmentLogistics       Department = "logistics_team"
	DepartmentQuality         Department = "quality_team"
	DepartmentTechSupport     Department = "tech_support"
	DepartmentBilling         Department = "billing_team"
	DepartmentCustomerService Department = "customer_service"
)

func (t Department) String() string {
	return string(t)
}
