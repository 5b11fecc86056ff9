package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// DailyReport is the cash report for one venue-day. UpdatedBy/UpdatedAt
// stay nil until the first edit after creation.
type DailyReport struct {
	ID              uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	VenueID         uuid.UUID     `gorm:"column:venue_id;type:uuid;not null;uniqueIndex:ux_daily_reports_venue_date,priority:1"`
	Date            calendar.Date `gorm:"column:date;type:date;not null;uniqueIndex:ux_daily_reports_venue_date,priority:2"`
	Cash            int64         `gorm:"column:cash;not null;default:0"`
	Cashless        int64         `gorm:"column:cashless;not null;default:0"`
	RevenueTotal    int64         `gorm:"column:revenue_total;not null;default:0"`
	TipsTotal       int64         `gorm:"column:tips_total;not null;default:0"`
	CreatedByUserID uuid.UUID     `gorm:"column:created_by_user_id;type:uuid;not null"`
	CreatedAt       time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedByUserID *uuid.UUID    `gorm:"column:updated_by_user_id;type:uuid"`
	UpdatedAt       *time.Time    `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (DailyReport) TableName() string { return "daily_reports" }

func (r *DailyReport) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// DailyReportAttachment is a file stored next to a report. The row is
// authoritative; the blob may be missing.
type DailyReportAttachment struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	VenueID          uuid.UUID             `gorm:"column:venue_id;type:uuid;not null;index:ix_report_attachments_venue"`
	ReportID         uuid.UUID             `gorm:"column:report_id;type:uuid;not null;index:ix_report_attachments_report"`
	FileName         string                `gorm:"column:file_name;type:varchar(255);not null"`
	ContentType      string                `gorm:"column:content_type;type:varchar(128);not null"`
	SizeBytes        int64                 `gorm:"column:size_bytes;not null"`
	StorageKey       string                `gorm:"column:storage_key;type:varchar(512);not null"`
	UploadedByUserID uuid.UUID             `gorm:"column:uploaded_by_user_id;type:uuid;not null"`
	Status           enums.LifecycleStatus `gorm:"column:status;type:varchar(16);not null;default:'active'"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (DailyReportAttachment) TableName() string { return "daily_report_attachments" }

func (a *DailyReportAttachment) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = enums.LifecycleActive
	}
	return nil
}
