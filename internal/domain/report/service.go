package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/edumeal/edumeal-api/internal/domain/activity"
	"github.com/edumeal/edumeal-api/internal/pkg/clock"
	"github.com/edumeal/edumeal-api/internal/pkg/storage"
)

const recentLogsLimit = 10

// ActiveCounter counts active subscriptions.
type ActiveCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// LogReader returns the newest activity entries.
type LogReader interface {
	Recent(ctx context.Context, limit int) ([]*activity.Entry, error)
}

// Service aggregates ledger state into reports
type Service struct {
	repo    Repository
	subs    ActiveCounter
	logs    LogReader
	storage storage.Storage
	clock   clock.Clock
}

// NewService creates report service. store may be nil, in which case
// snapshots are not archived.
func NewService(repo Repository, subs ActiveCounter, logs LogReader, store storage.Storage, c clock.Clock) *Service {
	return &Service{repo: repo, subs: subs, logs: logs, storage: store, clock: c}
}

// Today returns the business date.
func (s *Service) Today() clock.Date {
	return clock.Today(s.clock)
}

func (s *Service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	served, err := s.repo.CountUsedOn(ctx, s.Today())
	if err != nil {
		return nil, err
	}
	eligible, err := s.repo.CountEligibleStudents(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.subs.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.logs.Recent(ctx, recentLogsLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []*activity.Entry{}
	}

	return &DashboardStats{
		MealsServedToday:    served,
		EligibleStudents:    eligible,
		ActiveSubscriptions: active,
		RecentLogs:          recent,
	}, nil
}

// EligibilityStatus labels a student: valid when active with meals left,
// otherwise exhausted when out of meals, otherwise expired.
func EligibilityStatus(isActive bool, mealsRemaining int) string {
	switch {
	case isActive && mealsRemaining > 0:
		return StatusValid
	case mealsRemaining <= 0:
		return StatusExhausted
	default:
		return StatusExpired
	}
}

// Eligibility builds one row per student for date.
func (s *Service) Eligibility(ctx context.Context, date clock.Date) ([]EligibilityRow, error) {
	records, err := s.repo.EligibilityRecords(ctx, date)
	if err != nil {
		return nil, err
	}

	rows := make([]EligibilityRow, 0, len(records))
	for _, rec := range records {
		used := rec.TicketStatus != nil && *rec.TicketStatus == "used"
		row := EligibilityRow{
			StudentID:      rec.StudentID,
			Name:           strings.TrimSpace(rec.FirstName + " " + rec.LastName),
			Grade:          rec.Grade,
			Class:          rec.Class,
			PlanType:       rec.PlanType,
			MealsRemaining: rec.MealsRemaining,
			Status:         EligibilityStatus(rec.IsActive, rec.MealsRemaining),
			UsedToday:      used,
		}
		if row.PlanType == "" {
			row.PlanType = NoPlan
		}
		if used {
			row.UsedAt = rec.UsedAt
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Export renders the report for date in format ("csv" or "xlsx") and
// returns the body with its content type and file name.
func (s *Service) Export(ctx context.Context, date clock.Date, format string) ([]byte, string, string, error) {
	rows, err := s.Eligibility(ctx, date)
	if err != nil {
		return nil, "", "", err
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "", "csv":
		if err := WriteCSV(&buf, rows); err != nil {
			return nil, "", "", err
		}
		return buf.Bytes(), ContentTypeCSV, fmt.Sprintf("eligibility_report_%s.csv", date), nil
	case "xlsx":
		if err := WriteXLSX(&buf, date, rows); err != nil {
			return nil, "", "", err
		}
		return buf.Bytes(), ContentTypeXLSX, fmt.Sprintf("eligibility_report_%s.xlsx", date), nil
	default:
		return nil, "", "", ErrUnknownFormat
	}
}

func (s *Service) ListSnapshots(ctx context.Context) ([]*Snapshot, error) {
	return s.repo.ListSnapshots(ctx)
}

// PublishSnapshot records a published report for date and archives its
// CSV rendering when storage is configured. Archive failures are logged;
// the snapshot is still returned.
func (s *Service) PublishSnapshot(ctx context.Context, date clock.Date, generatedBy string) (*Snapshot, error) {
	snap, err := s.repo.CreateSnapshot(ctx, date, "published", generatedBy)
	if err != nil {
		return nil, err
	}
	log.Info().Str("date", date.String()).Str("by", generatedBy).Msg("Eligibility report published")

	if s.storage == nil {
		return snap, nil
	}

	archived, err := s.archive(ctx, snap)
	if err != nil {
		log.Warn().Err(err).Str("date", date.String()).Msg("Failed to archive eligibility report")
		return snap, nil
	}
	return archived, nil
}

func (s *Service) archive(ctx context.Context, snap *Snapshot) (*Snapshot, error) {
	rows, err := s.Eligibility(ctx, snap.Date)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/eligibility_%s.csv", snap.Date)
	if err := s.storage.Put(ctx, key, &buf, ContentTypeCSV); err != nil {
		return nil, err
	}

	updated, err := s.repo.SetArchiveURL(ctx, snap.ID, s.storage.GetURL(key))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errors.New("snapshot disappeared before archiving")
	}
	return updated, nil
}
