package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/internal/adjustments"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

type stubAdjustmentsService struct {
	adjustments.Service
	filter   adjustments.ListFilter
	create   adjustments.CreateInput
	update   adjustments.UpdateInput
	kind     enums.AdjustmentType
	message  string
	status   *enums.DisputeStatus
	newRow   bool
	resolved enums.DisputeStatus
}

func (s *stubAdjustmentsService) List(_ context.Context, _ *access.Grant, filter adjustments.ListFilter) ([]adjustments.AdjustmentDTO, error) {
	s.filter = filter
	return nil, nil
}

func (s *stubAdjustmentsService) Create(_ context.Context, _ *access.Grant, input adjustments.CreateInput) (*adjustments.AdjustmentDTO, error) {
	s.create = input
	return &adjustments.AdjustmentDTO{}, nil
}

func (s *stubAdjustmentsService) Update(_ context.Context, _ *access.Grant, _ uuid.UUID, input adjustments.UpdateInput) (*adjustments.AdjustmentDTO, error) {
	s.update = input
	return &adjustments.AdjustmentDTO{}, nil
}

func (s *stubAdjustmentsService) OpenDispute(_ context.Context, _ *access.Grant, kind enums.AdjustmentType, _ uuid.UUID, message string) (*adjustments.DisputeDTO, bool, error) {
	s.kind = kind
	s.message = message
	return &adjustments.DisputeDTO{}, s.newRow, nil
}

func (s *stubAdjustmentsService) ListDisputes(_ context.Context, _ *access.Grant, status *enums.DisputeStatus) ([]adjustments.DisputeDTO, error) {
	s.status = status
	return nil, nil
}

func (s *stubAdjustmentsService) SetDisputeStatus(_ context.Context, _ *access.Grant, _ uuid.UUID, status enums.DisputeStatus) (*adjustments.DisputeDTO, error) {
	s.resolved = status
	return &adjustments.DisputeDTO{}, nil
}

func TestAdjustmentListParsesFilter(t *testing.T) {
	svc := &stubAdjustmentsService{}
	req := withGrant(httptest.NewRequest(http.MethodGet, "/venues/v/adjustments?month=2024-05&type=PENALTY&mine=1", nil), ownerGrant())
	rec := serve(AdjustmentList(svc, nil), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.filter.Month.String() != "2024-05" || !svc.filter.Mine {
		t.Fatalf("unexpected filter %+v", svc.filter)
	}
	if svc.filter.Type == nil || *svc.filter.Type != enums.AdjustmentTypePenalty {
		t.Fatalf("expected penalty type filter")
	}

	req = withGrant(httptest.NewRequest(http.MethodGet, "/venues/v/adjustments?month=2024-05&type=fine", nil), ownerGrant())
	if rec := serve(AdjustmentList(svc, nil), req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type got %d", rec.Code)
	}
}

func TestAdjustmentCreate(t *testing.T) {
	svc := &stubAdjustmentsService{}
	member := uuid.New()
	body := `{"type":"bonus","member_user_id":"` + member.String() + `","date":"2024-05-07","amount":250,"reason":"great shift"}`
	req := withGrant(httptest.NewRequest(http.MethodPost, "/venues/v/adjustments", strings.NewReader(body)), ownerGrant())
	rec := serve(AdjustmentCreate(svc, nil), req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	in := svc.create
	if in.Type != enums.AdjustmentTypeBonus || in.Amount != 250 || in.Date.String() != "2024-05-07" {
		t.Fatalf("unexpected input %+v", in)
	}
	if in.MemberUserID == nil || *in.MemberUserID != member {
		t.Fatalf("member not forwarded")
	}

	body = `{"type":"bonus","date":"2024-05-07","amount":-5}`
	req = withGrant(httptest.NewRequest(http.MethodPost, "/venues/v/adjustments", strings.NewReader(body)), ownerGrant())
	if rec := serve(AdjustmentCreate(svc, nil), req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative amount got %d", rec.Code)
	}
}

func TestAdjustmentUpdateClearsMember(t *testing.T) {
	svc := &stubAdjustmentsService{}
	req := httptest.NewRequest(http.MethodPatch, "/venues/v/adjustments/a", strings.NewReader(`{"type":"writeoff","member_user_id":null}`))
	req = withParams(withGrant(req, ownerGrant()), map[string]string{"adjustmentId": uuid.NewString()})
	rec := serve(AdjustmentUpdate(svc, nil), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if !svc.update.ClearMember || svc.update.Type == nil || *svc.update.Type != enums.AdjustmentTypeWriteoff {
		t.Fatalf("unexpected update %+v", svc.update)
	}
}

func TestAdjustmentDisputeOpen(t *testing.T) {
	for _, tc := range []struct {
		newRow bool
		status int
	}{{true, http.StatusCreated}, {false, http.StatusOK}} {
		svc := &stubAdjustmentsService{newRow: tc.newRow}
		req := httptest.NewRequest(http.MethodPost, "/venues/v/adjustments/penalty/a/dispute", strings.NewReader(`{"message":"I was not late"}`))
		req = withParams(withGrant(req, ownerGrant()), map[string]string{"type": "penalty", "adjustmentId": uuid.NewString()})
		rec := serve(AdjustmentDisputeOpen(svc, nil), req)
		if rec.Code != tc.status {
			t.Fatalf("new=%v: expected %d got %d", tc.newRow, tc.status, rec.Code)
		}
		if svc.kind != enums.AdjustmentTypePenalty || svc.message != "I was not late" {
			t.Fatalf("unexpected dispute input %s %q", svc.kind, svc.message)
		}
	}
}

func TestAdjustmentDisputeUnknownTypeIsNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/venues/v/adjustments/fine/a/dispute", strings.NewReader(`{"message":"x"}`))
	req = withParams(withGrant(req, ownerGrant()), map[string]string{"type": "fine", "adjustmentId": uuid.NewString()})
	rec := serve(AdjustmentDisputeOpen(&stubAdjustmentsService{}, nil), req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestDisputeListAndStatus(t *testing.T) {
	svc := &stubAdjustmentsService{}
	req := withGrant(httptest.NewRequest(http.MethodGet, "/venues/v/disputes?status=open", nil), ownerGrant())
	if rec := serve(DisputeList(svc, nil), req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.status == nil || *svc.status != enums.DisputeStatusOpen {
		t.Fatalf("expected OPEN filter")
	}

	req = httptest.NewRequest(http.MethodPatch, "/venues/v/disputes/d", strings.NewReader(`{"status":"CLOSED"}`))
	req = withParams(withGrant(req, ownerGrant()), map[string]string{"disputeId": uuid.NewString()})
	if rec := serve(DisputeSetStatus(svc, nil), req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.resolved != enums.DisputeStatusClosed {
		t.Fatalf("expected CLOSED got %s", svc.resolved)
	}

	req = httptest.NewRequest(http.MethodPatch, "/venues/v/disputes/d", strings.NewReader(`{"status":"RESOLVED"}`))
	req = withParams(withGrant(req, ownerGrant()), map[string]string{"disputeId": uuid.NewString()})
	if rec := serve(DisputeSetStatus(svc, nil), req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
