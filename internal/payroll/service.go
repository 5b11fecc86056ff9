package payroll

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db"
)

// Service exposes self-scoped salary views and the owner payroll sheet.
type Service interface {
	MyShifts(ctx context.Context, userID uuid.UUID, month calendar.Month) ([]MyShiftDTO, error)
	MySalarySummary(ctx context.Context, userID uuid.UUID, month calendar.Month) (*SalarySummaryDTO, error)
	VenuePayroll(ctx context.Context, grant *access.Grant, month calendar.Month) (*VenuePayrollDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payroll repository required")
	}
	return &service{repo: repo}, nil
}

// dayFacts is what payroll needs about the venue-days a set of shifts
// touches.
type dayFacts struct {
	reports   map[dayKey]reportFacts
	assignees map[dayKey]int
}

type reportFacts struct {
	revenue int64
	tips    int64
}

func (s *service) loadDays(ctx context.Context, rows []shiftRow, from, to calendar.Date) (*dayFacts, error) {
	venueIDs := uniqueVenues(rows)
	reports, err := s.repo.Reports(ctx, venueIDs, from, to)
	if err != nil {
		return nil, db.MapError(err, "daily report")
	}
	counts, err := s.repo.AssigneeCounts(ctx, venueIDs, from, to)
	if err != nil {
		return nil, db.MapError(err, "shift assignment")
	}
	facts := &dayFacts{reports: make(map[dayKey]reportFacts, len(reports)), assignees: counts}
	for k, r := range reports {
		facts.reports[k] = reportFacts{revenue: r.RevenueTotal, tips: r.TipsTotal}
	}
	return facts, nil
}

// tipsShare is the member's share of the day's tips, or zero without a
// report.
func (f *dayFacts) tipsShare(key dayKey) decimal.Decimal {
	rep, ok := f.reports[key]
	if !ok {
		return decimal.Zero
	}
	return TipsShare(rep.tips, f.assignees[key])
}

func (f *dayFacts) salary(row shiftRow) (decimal.Decimal, bool) {
	rep, ok := f.reports[keyOf(row.VenueID, row.Date)]
	if !ok {
		return decimal.Zero, false
	}
	return ShiftSalary(row.Rate, row.Percent, rep.revenue), true
}

// MyShifts lists the caller's shifts across venues with per-shift salary.
// Tips are shown once per day on the first shift of that day.
func (s *service) MyShifts(ctx context.Context, userID uuid.UUID, month calendar.Month) ([]MyShiftDTO, error) {
	from, to := month.First(), month.Last()
	rows, err := s.repo.MemberShifts(ctx, userID, from, to)
	if err != nil {
		return nil, db.MapError(err, "shift")
	}
	facts, err := s.loadDays(ctx, rows, from, to)
	if err != nil {
		return nil, err
	}

	tipped := make(map[dayKey]bool)
	out := make([]MyShiftDTO, 0, len(rows))
	for _, row := range rows {
		item := MyShiftDTO{
			ShiftID: row.ShiftID,
			Date:    row.Date,
			Venue:   VenueRef{ID: row.VenueID, Name: row.VenueName},
			Interval: IntervalRef{
				ID:        row.IntervalID,
				Title:     row.IntervalTitle,
				StartTime: row.StartTime,
				EndTime:   row.EndTime,
			},
		}
		if salary, ok := facts.salary(row); ok {
			item.HasReport = true
			item.MySalary = Round(salary)
			key := keyOf(row.VenueID, row.Date)
			if !tipped[key] {
				tipped[key] = true
				item.TipsShare = Round(facts.tipsShare(key))
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// MySalarySummary totals the caller's month per venue. Every venue with a
// shift or an adjustment in the month gets a line.
func (s *service) MySalarySummary(ctx context.Context, userID uuid.UUID, month calendar.Month) (*SalarySummaryDTO, error) {
	from, to := month.First(), month.Last()
	rows, err := s.repo.MemberShifts(ctx, userID, from, to)
	if err != nil {
		return nil, db.MapError(err, "shift")
	}
	facts, err := s.loadDays(ctx, rows, from, to)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.repo.MemberAdjustments(ctx, userID, from, to)
	if err != nil {
		return nil, db.MapError(err, "adjustment")
	}

	ledgers := make(map[uuid.UUID]*Ledger)
	ledger := func(venueID uuid.UUID) *Ledger {
		l, ok := ledgers[venueID]
		if !ok {
			l = &Ledger{}
			ledgers[venueID] = l
		}
		return l
	}
	tipped := make(map[dayKey]bool)
	for _, row := range rows {
		l := ledger(row.VenueID)
		salary, ok := facts.salary(row)
		if !ok {
			l.Shifts++
			continue
		}
		l.AddShift(salary)
		key := keyOf(row.VenueID, row.Date)
		if !tipped[key] {
			tipped[key] = true
			l.AddTips(facts.tipsShare(key))
		}
	}
	for _, adj := range adjustments {
		ledger(adj.VenueID).AddAdjustment(adj.Type, adj.Total)
	}

	venueIDs := make([]uuid.UUID, 0, len(ledgers))
	for id := range ledgers {
		venueIDs = append(venueIDs, id)
	}
	names, err := s.repo.VenueNames(ctx, venueIDs)
	if err != nil {
		return nil, db.MapError(err, "venue")
	}

	out := &SalarySummaryDTO{Month: month.String(), Items: make([]VenueSummaryDTO, 0, len(ledgers))}
	for _, id := range venueIDs {
		totals := Summarize(*ledgers[id])
		out.Items = append(out.Items, VenueSummaryDTO{Venue: VenueRef{ID: id, Name: names[id]}, Totals: totals})
		out.Totals.Add(totals)
	}
	sort.Slice(out.Items, func(i, j int) bool {
		if out.Items[i].Venue.Name != out.Items[j].Venue.Name {
			return out.Items[i].Venue.Name < out.Items[j].Venue.Name
		}
		return out.Items[i].Venue.ID.String() < out.Items[j].Venue.ID.String()
	})
	return out, nil
}

// VenuePayroll is the owner's sheet: one line per member with shifts or
// adjustments in the month.
func (s *service) VenuePayroll(ctx context.Context, grant *access.Grant, month calendar.Month) (*VenuePayrollDTO, error) {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return nil, err
	}
	from, to := month.First(), month.Last()
	rows, err := s.repo.VenueShifts(ctx, grant.VenueID, from, to)
	if err != nil {
		return nil, db.MapError(err, "shift")
	}
	facts, err := s.loadDays(ctx, rows, from, to)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.repo.VenueAdjustments(ctx, grant.VenueID, from, to)
	if err != nil {
		return nil, db.MapError(err, "adjustment")
	}

	ledgers := make(map[uuid.UUID]*Ledger)
	names := make(map[uuid.UUID]string)
	ledger := func(userID uuid.UUID) *Ledger {
		l, ok := ledgers[userID]
		if !ok {
			l = &Ledger{}
			ledgers[userID] = l
		}
		return l
	}
	type memberDay struct {
		user uuid.UUID
		day  dayKey
	}
	tipped := make(map[memberDay]bool)
	for _, row := range rows {
		names[row.MemberUserID] = row.memberName()
		l := ledger(row.MemberUserID)
		salary, ok := facts.salary(row)
		if !ok {
			l.Shifts++
			continue
		}
		l.AddShift(salary)
		md := memberDay{user: row.MemberUserID, day: keyOf(row.VenueID, row.Date)}
		if !tipped[md] {
			tipped[md] = true
			l.AddTips(facts.tipsShare(md.day))
		}
	}
	var missing []uuid.UUID
	for _, adj := range adjustments {
		if _, ok := ledgers[adj.MemberUserID]; !ok {
			missing = append(missing, adj.MemberUserID)
		}
		ledger(adj.MemberUserID).AddAdjustment(adj.Type, adj.Total)
	}
	if len(missing) > 0 {
		extra, err := s.repo.UserNames(ctx, missing)
		if err != nil {
			return nil, db.MapError(err, "user")
		}
		for id, name := range extra {
			names[id] = name
		}
	}

	out := &VenuePayrollDTO{Month: month.String(), VenueID: grant.VenueID, Items: make([]MemberPayrollDTO, 0, len(ledgers))}
	for id, l := range ledgers {
		totals := Summarize(*l)
		out.Items = append(out.Items, MemberPayrollDTO{MemberUserID: id, MemberName: names[id], Shifts: l.Shifts, Totals: totals})
		out.Totals.Add(totals)
	}
	sort.Slice(out.Items, func(i, j int) bool {
		if out.Items[i].MemberName != out.Items[j].MemberName {
			return out.Items[i].MemberName < out.Items[j].MemberName
		}
		return out.Items[i].MemberUserID.String() < out.Items[j].MemberUserID.String()
	})
	return out, nil
}

func uniqueVenues(rows []shiftRow) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	out := make([]uuid.UUID, 0)
	for _, row := range rows {
		if _, ok := seen[row.VenueID]; ok {
			continue
		}
		seen[row.VenueID] = struct{}{}
		out = append(out, row.VenueID)
	}
	return out
}
