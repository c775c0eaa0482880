package ticket

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/edumeal/edumeal-api/internal/domain/activity"
	"github.com/edumeal/edumeal-api/internal/domain/student"
	"github.com/edumeal/edumeal-api/internal/pkg/clock"
	"github.com/edumeal/edumeal-api/internal/pkg/metrics"
)

const (
	msgValid         = "Valid"
	msgInvalidTicket = "Invalid Ticket"
	msgAlreadyUsed   = "Ticket Already Used"
	msgVoid          = "Ticket Void"
	msgWrongDate     = "Wrong Date"
	msgOverride      = "Meal Served (Override)"
)

// StudentStore is the roster access tickets need.
type StudentStore interface {
	List(ctx context.Context) ([]*student.Student, error)
	AdjustMeals(ctx context.Context, id int, delta int) (*student.Student, error)
}

// Service handles ticket business logic
type Service struct {
	repo     Repository
	students StudentStore
	recorder activity.Recorder
	signer   *Signer
	clock    clock.Clock
}

// NewService creates ticket service
func NewService(repo Repository, students StudentStore, recorder activity.Recorder, signer *Signer, c clock.Clock) *Service {
	return &Service{repo: repo, students: students, recorder: recorder, signer: signer, clock: c}
}

// Today returns the business date.
func (s *Service) Today() clock.Date {
	return clock.Today(s.clock)
}

// GenerateForDate issues a ticket to every eligible student that does
// not yet hold one for date. It returns the number of new tickets.
func (s *Service) GenerateForDate(ctx context.Context, date clock.Date) (int, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, st := range students {
		if !st.Eligible() {
			continue
		}
		id := uuid.NewString()
		ok, err := s.repo.Insert(ctx, Draft{
			TicketID:     id,
			StudentID:    st.ID,
			Date:         date,
			SecurityHash: s.signer.Sign(id, st.ID, date),
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	metrics.TicketsGenerated.Add(float64(created))
	log.Info().Str("date", date.String()).Int("count", created).Msg("Tickets generated")
	return created, nil
}

func (s *Service) ListByDate(ctx context.Context, date clock.Date) ([]*Ticket, error) {
	return s.repo.ListByDate(ctx, date)
}

// rejection is a scan outcome that leaves state untouched.
type rejection struct {
	result   string
	message  string
	expected string
	actual   string
}

// check applies the scan rules in order. It returns nil when t may be redeemed today.
func check(t *Ticket, today clock.Date) *rejection {
	switch {
	case t == nil:
		return &rejection{result: activity.ScanInvalidTicket, message: msgInvalidTicket}
	case t.Status == StatusUsed:
		return &rejection{result: activity.ScanDuplicateUsed, message: msgAlreadyUsed}
	case t.Status != StatusValid:
		return &rejection{result: activity.ScanInvalidStatus, message: msgVoid}
	case !t.Date.Equal(today):
		return &rejection{result: activity.ScanWrongDate, message: msgWrongDate, expected: today.String(), actual: t.Date.String()}
	}
	return nil
}

// Scan validates and consumes a ticket. Rejections are results, not
// errors; an error means the ledger could not be reached.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	ticketID := strings.TrimSpace(req.TicketID)
	today := s.Today()

	t, err := s.lookup(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if rej := check(t, today); rej != nil {
		return s.reject(ctx, req, ticketID, rej), nil
	}

	red, err := s.repo.Redeem(ctx, ticketID, today)
	if err != nil {
		return nil, err
	}
	if red == nil {
		// A concurrent scan won; classify what it left behind.
		t, err = s.lookup(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		rej := check(t, today)
		if rej == nil {
			rej = &rejection{result: activity.ScanDuplicateUsed, message: msgAlreadyUsed}
		}
		return s.reject(ctx, req, ticketID, rej), nil
	}

	studentID := red.StudentID
	s.recorder.Record(ctx, activity.TypeScan, activity.ScanOutcome{
		TicketID:  ticketID,
		Result:    activity.ScanSuccess,
		StudentID: &studentID,
		Offline:   req.Offline,
	}, req.ActorID)
	metrics.TicketScans.WithLabelValues(activity.ScanSuccess).Inc()

	return &ScanResult{
		Valid:   true,
		Message: msgValid,
		Student: &ScannedStudent{
			Name:           strings.TrimSpace(red.FirstName + " " + red.LastName),
			Class:          red.Class,
			MealsRemaining: red.MealsRemaining,
			PhotoURL:       red.PhotoURL,
		},
	}, nil
}

func (s *Service) lookup(ctx context.Context, ticketID string) (*Ticket, error) {
	if ticketID == "" {
		return nil, nil
	}
	return s.repo.GetByTicketID(ctx, ticketID)
}

func (s *Service) reject(ctx context.Context, req ScanRequest, ticketID string, rej *rejection) *ScanResult {
	s.recorder.Record(ctx, activity.TypeScan, activity.ScanOutcome{
		TicketID: ticketID,
		Result:   rej.result,
		Expected: rej.expected,
		Actual:   rej.actual,
		Offline:  req.Offline,
	}, req.ActorID)
	metrics.TicketScans.WithLabelValues(rej.result).Inc()

	log.Debug().Str("ticket_id", ticketID).Str("result", rej.result).Msg("Scan rejected")
	return &ScanResult{Valid: false, Message: rej.message}
}

// Override serves one meal to a student without a ticket.
func (s *Service) Override(ctx context.Context, req OverrideRequest) (*ScanResult, error) {
	st, err := s.students.AdjustMeals(ctx, req.StudentID, -1)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStudentNotFound
	}

	s.recorder.Record(ctx, activity.TypeOverride, activity.Override{
		Action:         "meal_served",
		StudentID:      st.ID,
		SchoolID:       st.StudentID,
		Reason:         req.Reason,
		MealsRemaining: st.MealsRemaining,
	}, req.ActorID)

	log.Info().Str("student_id", st.StudentID).Str("actor", req.ActorID).Msg("Meal served by override")

	return &ScanResult{
		Valid:   true,
		Message: msgOverride,
		Student: &ScannedStudent{
			Name:           st.FullName(),
			Class:          st.Class,
			MealsRemaining: st.MealsRemaining,
			PhotoURL:       st.PhotoURL,
		},
	}, nil
}
