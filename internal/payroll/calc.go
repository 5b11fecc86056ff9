// Package payroll derives salaries from assignments, daily reports and
// adjustments at read time. Nothing here is persisted.
package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// ShiftSalary is rate + percent/100 * revenue for one shift on a reported day.
func ShiftSalary(rate int64, percent int, revenue int64) decimal.Decimal {
	share := decimal.NewFromInt(int64(percent)).Div(hundred).Mul(decimal.NewFromInt(revenue))
	return decimal.NewFromInt(rate).Add(share)
}

// TipsShare splits the day's tips equally between the distinct members
// assigned that day. A sole assignee takes the whole pool.
func TipsShare(tips int64, assignees int) decimal.Decimal {
	if assignees <= 0 || tips <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(tips).Div(decimal.NewFromInt(int64(assignees)))
}

// Round converts to whole currency units, rounding halves up. Inputs are
// never negative so away-from-zero and half-up agree.
func Round(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// Totals is one member's month at one venue, in whole units.
type Totals struct {
	Earned    int64 `json:"earned"`
	Tips      int64 `json:"tips"`
	Bonuses   int64 `json:"bonuses"`
	Penalties int64 `json:"penalties"`
	Net       int64 `json:"net"`
}

// Add accumulates other into t.
func (t *Totals) Add(other Totals) {
	t.Earned += other.Earned
	t.Tips += other.Tips
	t.Bonuses += other.Bonuses
	t.Penalties += other.Penalties
	t.Net += other.Net
}

// Ledger collects unrounded amounts for one (venue, member) until
// Summarize rounds them once.
type Ledger struct {
	Earned    decimal.Decimal
	Tips      decimal.Decimal
	Bonuses   int64
	Penalties int64
	Shifts    int
}

func (l *Ledger) AddShift(salary decimal.Decimal) {
	l.Earned = l.Earned.Add(salary)
	l.Shifts++
}

func (l *Ledger) AddTips(share decimal.Decimal) {
	l.Tips = l.Tips.Add(share)
}

// AddAdjustment books bonuses as additions and penalties/writeoffs as
// deductions.
func (l *Ledger) AddAdjustment(kind enums.AdjustmentType, amount int64) {
	if kind.Deducts() {
		l.Penalties += amount
		return
	}
	if kind == enums.AdjustmentTypeBonus {
		l.Bonuses += amount
	}
}

// Summarize rounds the ledger once. Net is earned + bonuses - penalties;
// tips are reported next to it and are not part of net.
func Summarize(l Ledger) Totals {
	earned := Round(l.Earned)
	return Totals{
		Earned:    earned,
		Tips:      Round(l.Tips),
		Bonuses:   l.Bonuses,
		Penalties: l.Penalties,
		Net:       earned + l.Bonuses - l.Penalties,
	}
}
