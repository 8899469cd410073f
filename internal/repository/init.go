package repository

import (
	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/models"
	"gorm.io/gorm"
)

type Repositories struct {
	ComplaintRepository interfaces.ComplaintRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		ComplaintRepository: NewComplaintRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Complaint{},
		&models.ComplaintAttachment{},
	)
}
