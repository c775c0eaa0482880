// Package mealcredit turns payments and manual grants into meal credit.
package mealcredit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/edumeal/edumeal-api/internal/domain/activity"
	"github.com/edumeal/edumeal-api/internal/domain/student"
	"github.com/edumeal/edumeal-api/internal/domain/subscription"
	"github.com/edumeal/edumeal-api/internal/pkg/clock"
	"github.com/edumeal/edumeal-api/internal/pkg/metrics"
)

// StudentStore is the roster access the engine needs.
type StudentStore interface {
	GetByID(ctx context.Context, id int) (*student.Student, error)
	GetBySchoolID(ctx context.Context, schoolID string) (*student.Student, error)
	Create(ctx context.Context, d student.Draft) (*student.Student, error)
}

// SyncMarker records that an integration delivered data.
type SyncMarker interface {
	MarkSynced(ctx context.Context, name string) error
}

// GrantRequest describes one purchase or manual grant. An empty Channel
// means the grant was made by an operator.
type GrantRequest struct {
	Payer         student.Draft
	PlanType      string
	AmountPaid    float64
	TransactionID string
	Description   string
	ServiceDate   string
	Channel       string
	ActorID       string
}

// GrantResult is the outcome of a successful grant.
type GrantResult struct {
	Subscription   *subscription.Subscription `json:"subscription"`
	StudentID      int                        `json:"studentId"`
	SchoolID       string                     `json:"schoolId"`
	MealsAdded     int                        `json:"mealsAdded"`
	MealsRemaining int                        `json:"mealsRemaining"`
	Provisioned    bool                       `json:"provisioned"`
}

// Engine applies meal-credit grants.
type Engine struct {
	students StudentStore
	ledger   Ledger
	sync     SyncMarker
	recorder activity.Recorder
	clock    clock.Clock
}

// NewEngine creates the engine. sync may be nil.
func NewEngine(students StudentStore, ledger Ledger, sync SyncMarker, recorder activity.Recorder, c clock.Clock) *Engine {
	return &Engine{students: students, ledger: ledger, sync: sync, recorder: recorder, clock: c}
}

// GrantMeals credits the payer with the meals their plan buys, creating
// the student first if the school id is unknown.
func (e *Engine) GrantMeals(ctx context.Context, req GrantRequest) (*GrantResult, error) {
	req.Payer.StudentID = strings.TrimSpace(req.Payer.StudentID)
	req.PlanType = strings.TrimSpace(req.PlanType)
	channel := channelLabel(req.Channel)

	if req.Payer.StudentID == "" || req.PlanType == "" {
		metrics.MealGrants.WithLabelValues(channel, "rejected").Inc()
		return nil, ErrMissingFields
	}

	st, provisioned, err := e.resolvePayer(ctx, req)
	if err != nil {
		metrics.MealGrants.WithLabelValues(channel, "failed").Inc()
		return nil, err
	}

	meals := MealsForPlan(req.PlanType)
	sub, remaining, err := e.ledger.ApplyGrant(ctx, subscription.Draft{
		StudentID:     st.ID,
		PlanType:      req.PlanType,
		StartDate:     ServiceDate(req.ServiceDate, e.clock),
		AmountPaid:    int(math.Round(req.AmountPaid * 100)),
		Meals:         meals,
		TransactionID: strings.TrimSpace(req.TransactionID),
	})
	if err != nil {
		metrics.MealGrants.WithLabelValues(channel, "failed").Inc()
		return nil, fmt.Errorf("apply grant for %s: %w", st.StudentID, err)
	}

	result := &GrantResult{
		Subscription:   sub,
		StudentID:      st.ID,
		SchoolID:       st.StudentID,
		MealsAdded:     meals,
		MealsRemaining: remaining,
		Provisioned:    provisioned,
	}

	e.recordGrant(ctx, req, result)
	if req.Channel != "" && e.sync != nil {
		if err := e.sync.MarkSynced(ctx, req.Channel); err != nil {
			log.Warn().Err(err).Str("integration", req.Channel).Msg("Failed to mark integration synced")
		}
	}

	metrics.MealGrants.WithLabelValues(channel, "success").Inc()
	metrics.MealsGranted.Add(float64(meals))

	log.Info().
		Str("student_id", st.StudentID).
		Str("plan", req.PlanType).
		Int("meals_added", meals).
		Int("meals_remaining", remaining).
		Str("channel", channel).
		Bool("provisioned", provisioned).
		Msg("Meals granted")

	return result, nil
}

// GrantToStudent grants meals to an existing student by internal id.
func (e *Engine) GrantToStudent(ctx context.Context, id int, req GrantRequest) (*GrantResult, error) {
	st, err := e.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStudentNotFound
	}
	req.Payer = student.Draft{
		StudentID: st.StudentID,
		FirstName: st.FirstName,
		LastName:  st.LastName,
		Grade:     st.Grade,
		Class:     st.Class,
	}
	return e.GrantMeals(ctx, req)
}

func (e *Engine) resolvePayer(ctx context.Context, req GrantRequest) (*student.Student, bool, error) {
	schoolID := req.Payer.StudentID

	st, err := e.students.GetBySchoolID(ctx, schoolID)
	if err != nil {
		return nil, false, err
	}
	if st != nil {
		return st, false, nil
	}

	draft := req.Payer
	draft.IsActive = true
	draft.MealsRemaining = 0

	st, err = e.students.Create(ctx, draft)
	if err == nil {
		log.Info().Str("student_id", schoolID).Msg("Student auto-provisioned from payment")
		return st, true, nil
	}
	if !errors.Is(err, student.ErrDuplicateStudentID) {
		e.recordCreationFailure(ctx, req, err)
		return nil, false, fmt.Errorf("%w: %w", ErrCreationFailed, err)
	}

	// Another request created the same student between the read and the insert.
	st, err = e.students.GetBySchoolID(ctx, schoolID)
	if err != nil {
		return nil, false, err
	}
	if st == nil {
		e.recordCreationFailure(ctx, req, nil)
		return nil, false, ErrCreationFailed
	}
	return st, false, nil
}

func (e *Engine) recordGrant(ctx context.Context, req GrantRequest, res *GrantResult) {
	if req.Channel == "" {
		e.recorder.Record(ctx, activity.TypeOverride, activity.Override{
			Action:         "grant_meals",
			StudentID:      res.StudentID,
			SchoolID:       res.SchoolID,
			Reason:         req.Description,
			PlanType:       req.PlanType,
			MealsAdded:     res.MealsAdded,
			MealsRemaining: res.MealsRemaining,
		}, req.ActorID)
		return
	}

	e.recorder.Record(ctx, activity.TypeWebhook, activity.WebhookResult{
		Source:         req.Channel,
		Status:         "success",
		StudentID:      res.SchoolID,
		PlanType:       req.PlanType,
		MealsAdded:     res.MealsAdded,
		SubscriptionID: res.Subscription.ID,
		TransactionID:  req.TransactionID,
		Provisioned:    res.Provisioned,
	}, req.ActorID)
}

func (e *Engine) recordCreationFailure(ctx context.Context, req GrantRequest, cause error) {
	ev := log.Error().Str("student_id", req.Payer.StudentID).Str("channel", channelLabel(req.Channel))
	if cause != nil {
		ev = ev.Err(cause)
	}
	ev.Msg("Failed to provision student")

	e.recorder.Record(ctx, activity.TypeWebhook, activity.WebhookResult{
		Source:        channelLabel(req.Channel),
		Status:        "failed",
		StudentID:     req.Payer.StudentID,
		PlanType:      req.PlanType,
		TransactionID: req.TransactionID,
		Error:         "creation_failed",
	}, req.ActorID)
}

func channelLabel(channel string) string {
	if channel == "" {
		return "manual"
	}
	return channel
}
