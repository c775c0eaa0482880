package student_test

import (
	"context"
	"errors"
	"testing"

	"github.com/edumeal/edumeal-api/internal/domain/student"
	"github.com/edumeal/edumeal-api/internal/pkg/database/dbtest"
)

func TestRepositoryLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	repo := student.NewRepository(db)
	ctx := context.Background()

	email := "p@example.com"
	created, err := repo.Create(ctx, student.Draft{
		StudentID: "STU500", FirstName: "Ana", LastName: "Zed", Grade: "3", Class: "3A",
		IsActive: true, MealsRemaining: 2, ParentEmail: &email,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.Create(ctx, student.Draft{StudentID: "STU500", FirstName: "B", LastName: "C", Grade: "1", Class: "1A"}); !errors.Is(err, student.ErrDuplicateStudentID) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	cleared := ""
	updated, err := repo.Update(ctx, created.ID, student.Patch{ParentEmail: &cleared})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ParentEmail != nil {
		t.Fatalf("expected parent email cleared")
	}

	after, err := repo.AdjustMeals(ctx, created.ID, -3)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if after.MealsRemaining != -1 {
		t.Fatalf("expected -1 meals (no floor), got %d", after.MealsRemaining)
	}

	missing, err := repo.GetBySchoolID(ctx, "NOPE")
	if err != nil || missing != nil {
		t.Fatalf("expected nil,nil for missing student, got %v %v", missing, err)
	}
}
