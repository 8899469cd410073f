package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/supportos/complaintstack/internal/enum"
	"github.com/supportos/complaintstack/internal/utils"
)

// Complaint is the persisted unit derived from one support email
type Complaint struct {
	ID            string `gorm:"column:id;type:varchar(50);primaryKey"`
	MessageID     string `gorm:"column:message_id;uniqueIndex;type:varchar(255);not null"`
	CustomerEmail string `gorm:"column:customer_email;type:varchar(255);index;not null"`
	CustomerName  string `gorm:"column:customer_name;type:varchar(255)"`
	Subject       string `gorm:"column:subject;type:varchar(1000)"`
	BodyText      string `gorm:"column:body_text;type:text"`

	// Fingerprint
	ContentHash         string `gorm:"column:content_hash;type:varchar(64);index"`
	SimilaritySignature string `gorm:"column:similarity_signature;type:text"`

	// Classification
	Category   enum.Category  `gorm:"column:category;type:varchar(50);index"`
	Priority   enum.Priority  `gorm:"column:priority;type:varchar(20);index"`
	Sentiment  enum.Sentiment `gorm:"column:sentiment;type:varchar(20)"`
	Confidence float64        `gorm:"column:confidence;default:0"`
	Entities   EntityList     `gorm:"column:entities;type:jsonb"`

	// Routing
	Department    enum.Department    `gorm:"column:department;type:varchar(50)"`
	RouteDecision enum.RouteDecision `gorm:"column:route_decision;type:varchar(50)"`
	Notified      bool               `gorm:"column:notified;default:false"`

	// Duplicate detection
	DuplicateOfID *string            `gorm:"column:duplicate_of_id;type:varchar(50);index"`
	DuplicateKind enum.DuplicateKind `gorm:"column:duplicate_kind;type:varchar(20)"`

	// Processing state
	Status        enum.ComplaintStatus `gorm:"column:status;type:varchar(20);index;not null"`
	FailureStage  enum.PipelineStage   `gorm:"column:failure_stage;type:varchar(50)"`
	FailureReason string               `gorm:"column:failure_reason;type:text"`

	ReceivedAt time.Time `gorm:"column:received_at;type:timestamp;index"`

	Attachments []ComplaintAttachment `gorm:"foreignKey:ComplaintID"`

	// Standard timestamps
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;index;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (Complaint) TableName() string {
	return "complaints"
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.GenerateNanoIDWithPrefix("cmp", 16)
	}
	c.CreatedAt = utils.Now()
	return nil
}
