package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/internal/reports"
	"github.com/angelmondragon/venueops-backend/pkg/calendar"
)

type stubReportsService struct {
	reports.Service
	created  bool
	date     calendar.Date
	upsert   reports.UpsertInput
	fileName string
	payload  []byte
	download *reports.Download
}

func (s *stubReportsService) Upsert(_ context.Context, _ *access.Grant, date calendar.Date, input reports.UpsertInput) (*reports.ReportDTO, bool, error) {
	s.date = date
	s.upsert = input
	return &reports.ReportDTO{}, s.created, nil
}

func (s *stubReportsService) UploadAttachment(_ context.Context, _ *access.Grant, date calendar.Date, input reports.UploadInput) (*reports.AttachmentDTO, error) {
	s.date = date
	s.fileName = input.FileName
	payload, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	s.payload = payload
	return &reports.AttachmentDTO{ID: uuid.New(), FileName: input.FileName}, nil
}

func (s *stubReportsService) Export(_ context.Context, _ *access.Grant, _ calendar.Month) ([]byte, error) {
	return []byte("PK-xlsx"), nil
}

func (s *stubReportsService) OpenAttachment(_ context.Context, _ *access.Grant, _ calendar.Date, _ uuid.UUID) (*reports.Download, error) {
	return s.download, nil
}

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

func TestReportUpsertStatus(t *testing.T) {
	for _, tc := range []struct {
		created bool
		status  int
	}{{true, http.StatusCreated}, {false, http.StatusOK}} {
		svc := &stubReportsService{created: tc.created}
		req := httptest.NewRequest(http.MethodPut, "/venues/v/reports/2024-05-07", strings.NewReader(`{"revenue_total":1000,"tips_total":100}`))
		req = withParams(withGrant(req, ownerGrant()), map[string]string{"date": "2024-05-07"})
		rec := serve(ReportUpsert(svc, nil), req)
		if rec.Code != tc.status {
			t.Fatalf("created=%v: expected %d got %d (%s)", tc.created, tc.status, rec.Code, rec.Body.String())
		}
		if svc.upsert.RevenueTotal == nil || *svc.upsert.RevenueTotal != 1000 || svc.upsert.Cash != nil {
			t.Fatalf("unexpected input %+v", svc.upsert)
		}
	}
}

func TestReportUpsertRejectsNegativeAndBadDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/venues/v/reports/2024-05-07", strings.NewReader(`{"cash":-1}`))
	req = withParams(withGrant(req, ownerGrant()), map[string]string{"date": "2024-05-07"})
	if rec := serve(ReportUpsert(&stubReportsService{}, nil), req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative cash got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/venues/v/reports/yesterday", strings.NewReader(`{}`))
	req = withParams(withGrant(req, ownerGrant()), map[string]string{"date": "yesterday"})
	if rec := serve(ReportUpsert(&stubReportsService{}, nil), req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date got %d", rec.Code)
	}
}

func multipartRequest(t *testing.T, field, name string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("note", "ignored"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := writer.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/venues/v/reports/2024-05-07/attachments", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return withParams(withGrant(req, ownerGrant()), map[string]string{"date": "2024-05-07"})
}

func TestReportAttachmentUploadStreamsFilePart(t *testing.T) {
	svc := &stubReportsService{}
	rec := serve(ReportAttachmentUpload(svc, 1<<20, nil), multipartRequest(t, "file", "z-report.pdf", []byte("%PDF-1.4 body")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.fileName != "z-report.pdf" || string(svc.payload) != "%PDF-1.4 body" {
		t.Fatalf("unexpected upload %q %q", svc.fileName, svc.payload)
	}
	if svc.date.String() != "2024-05-07" {
		t.Fatalf("unexpected date %s", svc.date)
	}
}

func TestReportAttachmentUploadRequiresFile(t *testing.T) {
	rec := serve(ReportAttachmentUpload(&stubReportsService{}, 1<<20, nil), multipartRequest(t, "other", "a.pdf", []byte("x")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/venues/v/reports/2024-05-07/attachments", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = withParams(withGrant(req, ownerGrant()), map[string]string{"date": "2024-05-07"})
	if rec := serve(ReportAttachmentUpload(&stubReportsService{}, 1<<20, nil), req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-multipart got %d", rec.Code)
	}
}

func TestReportExportWritesWorkbook(t *testing.T) {
	req := withGrant(httptest.NewRequest(http.MethodGet, "/venues/v/reports/export?month=2024-05", nil), ownerGrant())
	rec := serve(ReportExport(&stubReportsService{}, nil), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("unexpected content type %s", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "reports-2024-05.xlsx") {
		t.Fatalf("unexpected disposition %s", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != "PK-xlsx" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestReportAttachmentDownload(t *testing.T) {
	svc := &stubReportsService{download: &reports.Download{
		Attachment: reports.AttachmentDTO{FileName: "receipt.png", ContentType: "image/png", SizeBytes: 4},
		Body:       readSeekNopCloser{bytes.NewReader([]byte("\x89PNG"))},
	}}
	req := httptest.NewRequest(http.MethodGet, "/venues/v/reports/2024-05-07/attachments/a", nil)
	req = withParams(withGrant(req, ownerGrant()), map[string]string{"date": "2024-05-07", "attachmentId": uuid.NewString()})
	rec := serve(ReportAttachmentDownload(svc, nil), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/png" || rec.Body.String() != "\x89PNG" {
		t.Fatalf("unexpected download %s %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}
}
