package reports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
)

// Repository persists daily reports and their attachments.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByDate returns the venue's report for date, or nil.
func (r *Repository) FindByDate(ctx context.Context, venueID uuid.UUID, date calendar.Date) (*models.DailyReport, error) {
	var report models.DailyReport
	err := r.db.WithContext(ctx).
		Where("venue_id = ? AND date = ?", venueID, date).
		Take(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *Repository) ListRange(ctx context.Context, venueID uuid.UUID, from, to calendar.Date) ([]models.DailyReport, error) {
	var reports []models.DailyReport
	err := r.db.WithContext(ctx).
		Where("venue_id = ? AND date >= ? AND date <= ?", venueID, from, to).
		Order("date ASC").
		Find(&reports).Error
	return reports, err
}

func (r *Repository) Create(ctx context.Context, report *models.DailyReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *Repository) Save(ctx context.Context, report *models.DailyReport) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *Repository) ListAttachments(ctx context.Context, reportID uuid.UUID) ([]models.DailyReportAttachment, error) {
	var attachments []models.DailyReportAttachment
	err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("report_id = ?", reportID).
		Order("created_at ASC, id ASC").
		Find(&attachments).Error
	return attachments, err
}

func (r *Repository) FindAttachment(ctx context.Context, reportID, attachmentID uuid.UUID) (*models.DailyReportAttachment, error) {
	var attachment models.DailyReportAttachment
	if err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("report_id = ? AND id = ?", reportID, attachmentID).
		First(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *Repository) CreateAttachment(ctx context.Context, attachment *models.DailyReportAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *Repository) SaveAttachment(ctx context.Context, attachment *models.DailyReportAttachment) error {
	return r.db.WithContext(ctx).Save(attachment).Error
}

// AttachmentCounts returns active attachment counts keyed by report id.
func (r *Repository) AttachmentCounts(ctx context.Context, reportIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(reportIDs))
	if len(reportIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ReportID uuid.UUID
		Total    int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.DailyReportAttachment{}).
		Select("report_id, COUNT(*) AS total").
		Scopes(models.Active("")).
		Where("report_id IN ?", reportIDs).
		Group("report_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ReportID] = row.Total
	}
	return out, nil
}
