package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/supportos/complaintstack/internal/enum"
	"github.com/supportos/complaintstack/internal/utils"
)

// ComplaintAttachment records one attachment's extraction outcome and where
// the raw bytes live in object storage
type ComplaintAttachment struct {
	ID          string `gorm:"column:id;type:varchar(50);primaryKey"`
	ComplaintID string `gorm:"column:complaint_id;type:varchar(50);index;not null"`
	Filename    string `gorm:"column:filename;type:varchar(500)"`
	ContentType string `gorm:"column:content_type;type:varchar(255)"`
	Size        int    `gorm:"column:size;default:0"`

	Format           enum.AttachmentFormat `gorm:"column:format;type:varchar(20)"`
	ExtractionStatus enum.ExtractionStatus `gorm:"column:extraction_status;type:varchar(30)"`
	ExtractionDetail string                `gorm:"column:extraction_detail;type:text"`
	ExtractedText    string                `gorm:"column:extracted_text;type:text"`

	// Storage reference; present even when extraction failed
	StorageBucket string `gorm:"column:storage_bucket;type:varchar(255)"`
	StorageKey    string `gorm:"column:storage_key;type:varchar(1000)"`

	// Standard timestamps
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (ComplaintAttachment) TableName() string {
	return "complaint_attachments"
}

func (a *ComplaintAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("file", 12)
	}
	a.CreatedAt = utils.Now()
	return nil
}
