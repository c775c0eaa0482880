package subscription

import (
	"time"

	"github.com/edumeal/edumeal-api/internal/pkg/clock"
)

// Status represents subscription status
type Status string

const (
	StatusActive    Status = "active"
	StatusExhausted Status = "exhausted"
	StatusExpired   Status = "expired"
)

// Subscription is one purchased meal plan. Its MealsRemaining is a record
// of the purchase and is not decremented by scans; the student's counter
// is the spendable balance.
type Subscription struct {
	ID              int         `db:"id" json:"id"`
	StudentID       int         `db:"student_id" json:"studentId"`
	PlanType        string      `db:"plan_type" json:"planType"`
	StartDate       clock.Date  `db:"start_date" json:"startDate"`
	EndDate         *clock.Date `db:"end_date" json:"endDate"`
	AmountPaid      int         `db:"amount_paid" json:"amountPaid"`
	TotalMeals      int         `db:"total_meals" json:"totalMeals"`
	MealsRemaining  int         `db:"meals_remaining" json:"mealsRemaining"`
	Status          Status      `db:"status" json:"status"`
	QBTransactionID *string     `db:"qb_transaction_id" json:"qbTransactionId"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
}

// Draft is a subscription about to be recorded.
type Draft struct {
	StudentID     int
	PlanType      string
	StartDate     clock.Date
	AmountPaid    int
	Meals         int
	TransactionID string
}
