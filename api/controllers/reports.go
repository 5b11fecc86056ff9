package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/reports"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const (
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	uploadFieldName   = "file"
	multipartOverhead = 1 << 20
)

type upsertReportRequest struct {
	Cash         *int64 `json:"cash" validate:"omitempty,gte=0"`
	Cashless     *int64 `json:"cashless" validate:"omitempty,gte=0"`
	RevenueTotal *int64 `json:"revenue_total" validate:"omitempty,gte=0"`
	TipsTotal    *int64 `json:"tips_total" validate:"omitempty,gte=0"`
}

func ReportList(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reports"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		month, err := validators.ParseQueryMonth(r, "month")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListMonth(r.Context(), grant, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list)
	}
}

// ReportExport streams the month's reports as an XLSX workbook.
func ReportExport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reports"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		month, err := validators.ParseQueryMonth(r, "month")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		workbook, err := svc.Export(r.Context(), grant, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		name := fmt.Sprintf("reports-%s.xlsx", month)
		responses.WriteFile(w, xlsxContentType, name, int64(len(workbook)), bytes.NewReader(workbook))
	}
}

func ReportGet(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reports"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.URLParamDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Get(r.Context(), grant, date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// ReportUpsert answers 201 when the report for the date did not exist yet.
func ReportUpsert(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reports"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.URLParamDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body upsertReportRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, created, err := svc.Upsert(r.Context(), grant, date, reports.UpsertInput{
			Cash:         body.Cash,
			Cashless:     body.Cashless,
			RevenueTotal: body.RevenueTotal,
			TipsTotal:    body.TipsTotal,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, report)
	}
}

func ReportAttachmentList(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reports"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.URLParamDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListAttachments(r.Context(), grant, date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list)
	}
}

// ReportAttachmentUpload streams the multipart "file" part straight into
// storage without buffering the whole form.
func ReportAttachmentUpload(svc reports.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reports"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.URLParamDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
		}
		reader, err := r.MultipartReader()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart form required"))
			return
		}
		for {
			part, err := reader.NextPart()
			if errors.Is(err, io.EOF) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file is required").
					WithDetails(map[string]any{"field": uploadFieldName}))
				return
			}
			if err != nil {
				responses.WriteError(r.Context(), logg, w, uploadReadError(err))
				return
			}
			if part.FormName() != uploadFieldName {
				_ = part.Close()
				continue
			}

			attachment, err := svc.UploadAttachment(r.Context(), grant, date, reports.UploadInput{
				FileName: part.FileName(),
				Body:     part,
			})
			_ = part.Close()
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					err = uploadReadError(err)
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, attachment)
			return
		}
	}
}

func uploadReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "upload exceeds the size limit")
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed multipart body")
}

func ReportAttachmentDownload(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reports"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.URLParamDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attachmentID, err := validators.URLParamUUID(r, "attachmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		download, err := svc.OpenAttachment(r.Context(), grant, date, attachmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer download.Body.Close()

		meta := download.Attachment
		responses.WriteFile(w, meta.ContentType, meta.FileName, meta.SizeBytes, download.Body)
	}
}

func ReportAttachmentDelete(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reports"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.URLParamDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attachmentID, err := validators.URLParamUUID(r, "attachmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteAttachment(r.Context(), grant, date, attachmentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
