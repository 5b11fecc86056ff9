package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/storage/local"
)

const maxFileNameLen = 255

// AllowedContentTypes lists the sniffed types accepted as attachments.
var AllowedContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/heic",
	"image/heif",
	"application/pdf",
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type blobStore interface {
	Save(ctx context.Context, key string, r io.Reader, maxBytes int64) (local.Object, error)
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)
	Delete(ctx context.Context, key string) error
}

// Service manages daily cash reports and their attachments.
type Service interface {
	Get(ctx context.Context, grant *access.Grant, date calendar.Date) (*ReportDTO, error)
	ListMonth(ctx context.Context, grant *access.Grant, month calendar.Month) ([]ReportDTO, error)
	// Upsert reports created=true when the call inserted the row.
	Upsert(ctx context.Context, grant *access.Grant, date calendar.Date, input UpsertInput) (*ReportDTO, bool, error)
	Export(ctx context.Context, grant *access.Grant, month calendar.Month) ([]byte, error)

	ListAttachments(ctx context.Context, grant *access.Grant, date calendar.Date) ([]AttachmentDTO, error)
	UploadAttachment(ctx context.Context, grant *access.Grant, date calendar.Date, input UploadInput) (*AttachmentDTO, error)
	OpenAttachment(ctx context.Context, grant *access.Grant, date calendar.Date, attachmentID uuid.UUID) (*Download, error)
	DeleteAttachment(ctx context.Context, grant *access.Grant, date calendar.Date, attachmentID uuid.UUID) error
}

type service struct {
	tx       txRunner
	repo     *Repository
	blobs    blobStore
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(dbRunner txRunner, repo *Repository, blobs blobStore, maxUploadBytes int64, logg *logger.Logger) (Service, error) {
	if dbRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:       dbRunner,
		repo:     repo,
		blobs:    blobs,
		maxBytes: maxUploadBytes,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, grant *access.Grant, date calendar.Date) (*ReportDTO, error) {
	if err := access.Require(grant.ReportViewer(), "report viewer required"); err != nil {
		return nil, err
	}
	report, err := s.findReport(ctx, s.repo, grant.VenueID, date)
	if err != nil {
		return nil, err
	}
	out := fromModel(report, grant.RevenueViewer())
	return &out, nil
}

func (s *service) ListMonth(ctx context.Context, grant *access.Grant, month calendar.Month) ([]ReportDTO, error) {
	if err := access.Require(grant.ReportViewer(), "report viewer required"); err != nil {
		return nil, err
	}
	reports, err := s.repo.ListRange(ctx, grant.VenueID, month.First(), month.Last())
	if err != nil {
		return nil, db.MapError(err, "daily report")
	}
	withMoney := grant.RevenueViewer()
	out := make([]ReportDTO, 0, len(reports))
	for i := range reports {
		out = append(out, fromModel(&reports[i], withMoney))
	}
	return out, nil
}

// Upsert creates the venue-day report on first write and updates it in
// place afterwards. Updater identity is recorded on update only.
func (s *service) Upsert(ctx context.Context, grant *access.Grant, date calendar.Date, input UpsertInput) (*ReportDTO, bool, error) {
	if err := access.Require(grant.ReportMaker(), "report maker required"); err != nil {
		return nil, false, err
	}
	if date.IsZero() {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	if err := validateMoney(input); err != nil {
		return nil, false, err
	}

	var (
		out     ReportDTO
		created bool
	)
	write := func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		report, err := repo.FindByDate(ctx, grant.VenueID, date)
		if err != nil {
			return err
		}
		if report == nil {
			report = &models.DailyReport{VenueID: grant.VenueID, Date: date, CreatedByUserID: grant.UserID}
			applyMoney(report, input)
			if err := repo.Create(ctx, report); err != nil {
				return err
			}
			created = true
		} else {
			applyMoney(report, input)
			now := s.now().UTC()
			updater := grant.UserID
			report.UpdatedByUserID = &updater
			report.UpdatedAt = &now
			if err := repo.Save(ctx, report); err != nil {
				return err
			}
			created = false
		}
		out = fromModel(report, grant.RevenueViewer())
		return nil
	}

	err := s.tx.WithTx(ctx, write)
	if db.IsUniqueViolation(err, "") {
		// a concurrent first write won; apply ours as an update
		err = s.tx.WithTx(ctx, write)
	}
	if err != nil {
		return nil, false, db.MapError(err, "daily report")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"venue_id": grant.VenueID.String(),
		"date":     date.String(),
		"created":  created,
	}), "report.saved")
	return &out, created, nil
}

func applyMoney(report *models.DailyReport, input UpsertInput) {
	set := func(dst *int64, src *int64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&report.Cash, input.Cash)
	set(&report.Cashless, input.Cashless)
	set(&report.RevenueTotal, input.RevenueTotal)
	set(&report.TipsTotal, input.TipsTotal)
}

func validateMoney(input UpsertInput) error {
	fields := []struct {
		name  string
		value *int64
	}{
		{"cash", input.Cash},
		{"cashless", input.Cashless},
		{"revenue_total", input.RevenueTotal},
		{"tips_total", input.TipsTotal},
	}
	for _, f := range fields {
		if f.value != nil && *f.value < 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be >= 0", f.name)
		}
	}
	return nil
}

func (s *service) findReport(ctx context.Context, repo *Repository, venueID uuid.UUID, date calendar.Date) (*models.DailyReport, error) {
	report, err := repo.FindByDate(ctx, venueID, date)
	if err != nil {
		return nil, db.MapError(err, "daily report")
	}
	if report == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "daily report not found")
	}
	return report, nil
}

func (s *service) ListAttachments(ctx context.Context, grant *access.Grant, date calendar.Date) ([]AttachmentDTO, error) {
	if err := access.Require(grant.ReportViewer(), "report viewer required"); err != nil {
		return nil, err
	}
	report, err := s.findReport(ctx, s.repo, grant.VenueID, date)
	if err != nil {
		return nil, err
	}
	attachments, err := s.repo.ListAttachments(ctx, report.ID)
	if err != nil {
		return nil, db.MapError(err, "attachment")
	}
	out := make([]AttachmentDTO, 0, len(attachments))
	for i := range attachments {
		out = append(out, attachmentFromModel(&attachments[i]))
	}
	return out, nil
}

// UploadAttachment streams the file to storage under the size cap, then
// records it. A rejected or unrecorded blob is removed again.
func (s *service) UploadAttachment(ctx context.Context, grant *access.Grant, date calendar.Date, input UploadInput) (*AttachmentDTO, error) {
	if err := access.Require(grant.ReportMaker(), "report maker required"); err != nil {
		return nil, err
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	report, err := s.findReport(ctx, s.repo, grant.VenueID, date)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/%s/%s/%s", grant.VenueID, date.String(), uuid.NewString())
	obj, err := s.blobs.Save(ctx, key, input.Body, s.maxBytes)
	if errors.Is(err, local.ErrTooLarge) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "file exceeds the %d MB upload limit", s.maxBytes>>20)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store attachment")
	}
	if obj.Size == 0 {
		s.discard(ctx, key)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if !mimetype.EqualsAny(obj.ContentType, AllowedContentTypes...) {
		s.discard(ctx, key)
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "file type %s is not allowed", obj.ContentType).
			WithDetails(map[string]any{"allowed": AllowedContentTypes})
	}

	attachment := models.DailyReportAttachment{
		VenueID:          grant.VenueID,
		ReportID:         report.ID,
		FileName:         cleanFileName(input.FileName),
		ContentType:      obj.ContentType,
		SizeBytes:        obj.Size,
		StorageKey:       obj.Key,
		UploadedByUserID: grant.UserID,
	}
	if err := s.repo.CreateAttachment(ctx, &attachment); err != nil {
		s.discard(ctx, key)
		return nil, db.MapError(err, "attachment")
	}
	out := attachmentFromModel(&attachment)
	return &out, nil
}

func (s *service) discard(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "storage_key", key), "report.attachment.discard_failed", err)
	}
}

// OpenAttachment returns the stored file. A row whose blob is gone is
// reported as not found.
func (s *service) OpenAttachment(ctx context.Context, grant *access.Grant, date calendar.Date, attachmentID uuid.UUID) (*Download, error) {
	if err := access.Require(grant.ReportViewer(), "report viewer required"); err != nil {
		return nil, err
	}
	report, err := s.findReport(ctx, s.repo, grant.VenueID, date)
	if err != nil {
		return nil, err
	}
	attachment, err := s.repo.FindAttachment(ctx, report.ID, attachmentID)
	if err != nil {
		return nil, db.MapError(err, "attachment")
	}
	body, err := s.blobs.Open(ctx, attachment.StorageKey)
	if errors.Is(err, local.ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "attachment file not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open attachment")
	}
	return &Download{Attachment: attachmentFromModel(attachment), Body: body}, nil
}

// DeleteAttachment soft deletes the row and then removes the file on a best
// effort basis.
func (s *service) DeleteAttachment(ctx context.Context, grant *access.Grant, date calendar.Date, attachmentID uuid.UUID) error {
	if err := access.Require(grant.ReportMaker(), "report maker required"); err != nil {
		return err
	}
	report, err := s.findReport(ctx, s.repo, grant.VenueID, date)
	if err != nil {
		return err
	}
	attachment, err := s.repo.FindAttachment(ctx, report.ID, attachmentID)
	if err != nil {
		return db.MapError(err, "attachment")
	}
	attachment.Status = enums.LifecycleDeleted
	if err := s.repo.SaveAttachment(ctx, attachment); err != nil {
		return db.MapError(err, "attachment")
	}
	s.discard(ctx, attachment.StorageKey)
	return nil
}

func cleanFileName(raw string) string {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(raw, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	if utf8.RuneCountInString(name) > maxFileNameLen {
		runes := []rune(name)
		name = string(runes[len(runes)-maxFileNameLen:])
	}
	return name
}
