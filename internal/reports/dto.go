package reports

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
)

// ReportDTO always carries id and date; the money fields are nil for callers
// without revenue visibility.
type ReportDTO struct {
	ID              uuid.UUID     `json:"id"`
	VenueID         uuid.UUID     `json:"venue_id"`
	Date            calendar.Date `json:"date"`
	Cash            *int64        `json:"cash"`
	Cashless        *int64        `json:"cashless"`
	RevenueTotal    *int64        `json:"revenue_total"`
	TipsTotal       *int64        `json:"tips_total"`
	CreatedByUserID uuid.UUID     `json:"created_by_user_id"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedByUserID *uuid.UUID    `json:"updated_by_user_id"`
	UpdatedAt       *time.Time    `json:"updated_at"`
}

type AttachmentDTO struct {
	ID               uuid.UUID `json:"id"`
	ReportID         uuid.UUID `json:"report_id"`
	FileName         string    `json:"file_name"`
	ContentType      string    `json:"content_type"`
	SizeBytes        int64     `json:"size_bytes"`
	UploadedByUserID uuid.UUID `json:"uploaded_by_user_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// UpsertInput holds the money fields of a report. Nil keeps the stored
// value on update and means zero on create.
type UpsertInput struct {
	Cash         *int64
	Cashless     *int64
	RevenueTotal *int64
	TipsTotal    *int64
}

type UploadInput struct {
	FileName string
	Body     io.Reader
}

// Download is an open attachment. The caller closes Body.
type Download struct {
	Attachment AttachmentDTO
	Body       io.ReadSeekCloser
}

func fromModel(r *models.DailyReport, withMoney bool) ReportDTO {
	dto := ReportDTO{
		ID:              r.ID,
		VenueID:         r.VenueID,
		Date:            r.Date,
		CreatedByUserID: r.CreatedByUserID,
		CreatedAt:       r.CreatedAt,
		UpdatedByUserID: r.UpdatedByUserID,
		UpdatedAt:       r.UpdatedAt,
	}
	if withMoney {
		cash, cashless, revenue, tips := r.Cash, r.Cashless, r.RevenueTotal, r.TipsTotal
		dto.Cash = &cash
		dto.Cashless = &cashless
		dto.RevenueTotal = &revenue
		dto.TipsTotal = &tips
	}
	return dto
}

func attachmentFromModel(a *models.DailyReportAttachment) AttachmentDTO {
	return AttachmentDTO{
		ID:               a.ID,
		ReportID:         a.ReportID,
		FileName:         a.FileName,
		ContentType:      a.ContentType,
		SizeBytes:        a.SizeBytes,
		UploadedByUserID: a.UploadedByUserID,
		CreatedAt:        a.CreatedAt,
	}
}
