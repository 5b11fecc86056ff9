package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "ux_shifts_venue_date_interval_active",
		TableName:      "shifts",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeConflict, fmt.Errorf("insert shift: %w", pgErr), "shift already exists")

	dump := Dump(err)
	if dump.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", dump.Code)
	}
	if dump.PG == nil || dump.PG.Code != "23505" || dump.PG.Constraint != "ux_shifts_venue_date_interval_active" {
		t.Fatalf("unexpected pg fields %+v", dump.PG)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected three links in chain, got %d: %v", len(dump.Chain), dump.Chain)
	}
	fields := dump.LogFields()
	if fields["pg_table"] != "shifts" || fields["error_code"] != CodeConflict {
		t.Fatalf("unexpected log fields %v", fields)
	}
}

func TestPostgresFieldsFromLibPQ(t *testing.T) {
	err := fmt.Errorf("insert member: %w", &pq.Error{Code: "23505", Constraint: "ux_venue_members_venue_user"})
	pg, ok := PostgresFields(err)
	if !ok || pg.Code != "23505" || pg.Constraint != "ux_venue_members_venue_user" {
		t.Fatalf("unexpected fields %+v ok=%v", pg, ok)
	}
	if _, ok := PostgresFields(fmt.Errorf("plain")); ok {
		t.Fatal("expected no postgres fields on a plain error")
	}
}

func TestDumpNil(t *testing.T) {
	if got := Dump(nil); got.TopMessage != "" || len(got.Chain) != 0 || got.PG != nil {
		t.Fatalf("expected empty dump, got %+v", got)
	}
	if got := Dump(fmt.Errorf("boom")); got.PG != nil || len(got.LogFields()) != 3 {
		t.Fatalf("expected no pg fields, got %+v", got)
	}
}
