package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/supportos/complaintstack/interfaces"
	er "github.com/supportos/complaintstack/internal/errors"
	"github.com/supportos/complaintstack/internal/enum"
	"github.com/supportos/complaintstack/internal/models"
	"github.com/supportos/complaintstack/internal/tracing"
	"gorm.io/gorm"
)

type complaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) interfaces.ComplaintRepository {
	return &complaintRepository{db: db}
}

func (r *complaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ComplaintRepository.Create")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if err := r.db.WithContext(ctx).Create(complaint).Error; err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to create complaint")
	}
	span.SetTag(tracing.SpanTagComplaintId, complaint.ID)
	return nil
}

func (r *complaintRepository) Update(ctx context.Context, complaint *models.Complaint) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ComplaintRepository.Update")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag(tracing.SpanTagComplaintId, complaint.ID)

	if err := r.db.WithContext(ctx).Save(complaint).Error; err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to update complaint")
	}
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ComplaintRepository.GetByID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag(tracing.SpanTagComplaintId, id)

	var complaint models.Complaint
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("id = ?", id).
		First(&complaint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, er.ErrComplaintNotFound
		}
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to get complaint")
	}
	return &complaint, nil
}

func (r *complaintRepository) GetByMessageID(ctx context.Context, messageID string) (*models.Complaint, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ComplaintRepository.GetByMessageID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag(tracing.SpanTagMessageId, messageID)

	var complaint models.Complaint
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		First(&complaint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to get complaint by message id")
	}
	return &complaint, nil
}

func (r *complaintRepository) List(ctx context.Context, filter interfaces.ComplaintFilter) ([]models.Complaint, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ComplaintRepository.List")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	query := r.db.WithContext(ctx).Model(&models.Complaint{})
	if filter.CustomerEmail != "" {
		query = query.Where("customer_email = ?", filter.CustomerEmail)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.ContentHash != "" {
		query = query.Where("content_hash = ?", filter.ContentHash)
	}
	if filter.ReceivedAfter != nil {
		query = query.Where("received_at >= ?", *filter.ReceivedAfter)
	}
	if filter.ReceivedUntil != nil {
		query = query.Where("received_at <= ?", *filter.ReceivedUntil)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, errors.Wrap(err, "failed to count complaints")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var complaints []models.Complaint
	err := query.
		Order("received_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&complaints).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, errors.Wrap(err, "failed to list complaints")
	}
	span.LogKV("result.count", len(complaints))
	return complaints, total, nil
}

func (r *complaintRepository) GetAttachment(ctx context.Context, complaintID, attachmentID string) (*models.ComplaintAttachment, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ComplaintRepository.GetAttachment")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.SetTag(tracing.SpanTagComplaintId, complaintID)

	var attachment models.ComplaintAttachment
	err := r.db.WithContext(ctx).
		Where("id = ? AND complaint_id = ?", attachmentID, complaintID).
		First(&attachment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, er.ErrAttachmentNotFound
		}
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to get attachment")
	}
	return &attachment, nil
}

func (r *complaintRepository) CountByStatus(ctx context.Context) (map[enum.ComplaintStatus]int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ComplaintRepository.CountByStatus")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	type row struct {
		Status enum.ComplaintStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Complaint{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to count complaints by status")
	}

	counts := make(map[enum.ComplaintStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
