package report_test

import (
	"context"
	"errors"
	"testing"

	"github.com/edumeal/edumeal-api/internal/domain/report"
	"github.com/edumeal/edumeal-api/internal/domain/student"
	"github.com/edumeal/edumeal-api/internal/domain/ticket"
	"github.com/edumeal/edumeal-api/internal/pkg/clock"
	"github.com/edumeal/edumeal-api/internal/pkg/database/dbtest"
)

func TestEligibilityRecordsJoin(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	day, _ := clock.ParseDate("2024-06-03")

	st, err := student.NewRepository(db).Create(ctx, student.Draft{StudentID: "STU600", FirstName: "R", LastName: "Ow", Grade: "3", Class: "3B", IsActive: true, MealsRemaining: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	db.MustExec(`INSERT INTO subscriptions (student_id, plan_type, start_date, total_meals, meals_remaining, status, created_at)
		VALUES ($1, 'weekly', '2024-06-01', 5, 5, 'active', NOW() - INTERVAL '1 day'),
		       ($1, 'monthly', '2024-06-02', 20, 20, 'active', NOW())`, st.ID)

	tickets := ticket.NewRepository(db)
	tickets.Insert(ctx, ticket.Draft{TicketID: "rep-1", StudentID: st.ID, Date: day, SecurityHash: "h"})
	tickets.Redeem(ctx, "rep-1", day)

	repo := report.NewRepository(db)
	records, err := repo.EligibilityRecords(ctx, day)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected 1 record, got %d (%v)", len(records), err)
	}
	rec := records[0]
	if rec.PlanType != "monthly" || rec.TicketStatus == nil || *rec.TicketStatus != "used" || rec.UsedAt == nil || rec.MealsRemaining != 3 {
		t.Fatalf("unexpected record %+v", rec)
	}

	if n, _ := repo.CountUsedOn(ctx, day); n != 1 {
		t.Fatalf("expected 1 used ticket, got %d", n)
	}

	if _, err := repo.CreateSnapshot(ctx, day, "published", "admin"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, err := repo.CreateSnapshot(ctx, day, "published", "admin"); !errors.Is(err, report.ErrSnapshotExists) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}
