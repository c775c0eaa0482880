package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/edumeal/edumeal-api/internal/domain/activity"
	"github.com/edumeal/edumeal-api/internal/pkg/clock"
)

type repoStub struct {
	used, eligible int
	records        []EligibilityRecord
	snapshots      map[string]*Snapshot
	archived       map[int]string
}

func newRepoStub() *repoStub {
	return &repoStub{snapshots: map[string]*Snapshot{}, archived: map[int]string{}}
}

func (r *repoStub) CountUsedOn(context.Context, clock.Date) (int, error) { return r.used, nil }
func (r *repoStub) CountEligibleStudents(context.Context) (int, error)   { return r.eligible, nil }
func (r *repoStub) EligibilityRecords(context.Context, clock.Date) ([]EligibilityRecord, error) {
	return r.records, nil
}
func (r *repoStub) ListSnapshots(context.Context) ([]*Snapshot, error) {
	out := []*Snapshot{}
	for _, s := range r.snapshots {
		out = append(out, s)
	}
	return out, nil
}
func (r *repoStub) CreateSnapshot(_ context.Context, date clock.Date, status, by string) (*Snapshot, error) {
	if _, ok := r.snapshots[date.String()]; ok {
		return nil, ErrSnapshotExists
	}
	s := &Snapshot{ID: len(r.snapshots) + 1, Date: date, Status: status, GeneratedBy: &by}
	r.snapshots[date.String()] = s
	return s, nil
}
func (r *repoStub) SetArchiveURL(_ context.Context, id int, url string) (*Snapshot, error) {
	r.archived[id] = url
	for _, s := range r.snapshots {
		if s.ID == id {
			s.ArchiveURL = &url
			return s, nil
		}
	}
	return nil, nil
}

type counterStub int

func (c counterStub) CountActive(context.Context) (int, error) { return int(c), nil }

type logStub struct{ limit int }

func (l *logStub) Recent(_ context.Context, limit int) ([]*activity.Entry, error) {
	l.limit = limit
	return nil, nil
}

type storageStub struct {
	objects map[string][]byte
	err     error
}

func (s *storageStub) Put(_ context.Context, key string, r io.Reader, _ string) error {
	if s.err != nil {
		return s.err
	}
	b, _ := io.ReadAll(r)
	s.objects[key] = b
	return nil
}
func (s *storageStub) Get(context.Context, string) (io.ReadCloser, error) { return nil, nil }
func (s *storageStub) Delete(context.Context, string) error               { return nil }
func (s *storageStub) GetURL(key string) string                           { return "https://files.test/" + key }

var (
	fixedClock = clock.Fixed(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC))
	reportDay  = clock.Date{Year: 2024, Month: time.March, Day: 4}
)

func strPtr(s string) *string { return &s }

func sampleRecords() []EligibilityRecord {
	usedAt := time.Date(2024, 3, 4, 11, 30, 0, 0, time.UTC)
	return []EligibilityRecord{
		{StudentID: "STU001", FirstName: "John", LastName: "Doe", Grade: "5", Class: "5A", IsActive: true, MealsRemaining: 14, PlanType: "weekly", TicketStatus: strPtr("used"), UsedAt: &usedAt},
		{StudentID: "STU002", FirstName: "Jane", LastName: "Smith, Jr", Grade: "6", Class: "6B", IsActive: true, MealsRemaining: 0, PlanType: NoPlan, TicketStatus: strPtr("valid")},
		{StudentID: "STU003", FirstName: "Ina", LastName: "Active", Grade: "6", Class: "6B", IsActive: false, MealsRemaining: 3, PlanType: NoPlan},
	}
}

func TestEligibilityStatus(t *testing.T) {
	tests := []struct {
		active bool
		meals  int
		want   string
	}{
		{true, 1, StatusValid},
		{true, 0, StatusExhausted},
		{false, 0, StatusExhausted},
		{false, -2, StatusExhausted},
		{false, 5, StatusExpired},
	}
	for _, tc := range tests {
		if got := EligibilityStatus(tc.active, tc.meals); got != tc.want {
			t.Errorf("EligibilityStatus(%v, %d) = %s, want %s", tc.active, tc.meals, got, tc.want)
		}
	}
}

func TestEligibilityRows(t *testing.T) {
	repo := newRepoStub()
	repo.records = sampleRecords()
	svc := NewService(repo, counterStub(0), &logStub{}, nil, fixedClock)

	rows, err := svc.Eligibility(context.Background(), reportDay)
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if !rows[0].UsedToday || rows[0].UsedAt == nil || rows[0].Status != StatusValid || rows[0].Name != "John Doe" {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].UsedToday || rows[1].UsedAt != nil || rows[1].Status != StatusExhausted {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
	if rows[2].Status != StatusExpired || rows[2].PlanType != NoPlan {
		t.Fatalf("unexpected third row %+v", rows[2])
	}
}

func TestDashboardStats(t *testing.T) {
	repo := newRepoStub()
	repo.used, repo.eligible = 4, 9
	logs := &logStub{}
	svc := NewService(repo, counterStub(3), logs, nil, fixedClock)

	stats, err := svc.DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.MealsServedToday != 4 || stats.EligibleStudents != 9 || stats.ActiveSubscriptions != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.RecentLogs == nil || logs.limit != 10 {
		t.Fatalf("expected 10 recent logs requested and a non-nil slice")
	}
}

func TestExportCSVQuotesFields(t *testing.T) {
	repo := newRepoStub()
	repo.records = sampleRecords()
	svc := NewService(repo, counterStub(0), &logStub{}, nil, fixedClock)

	body, ctype, name, err := svc.Export(context.Background(), reportDay, "csv")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ctype != ContentTypeCSV || name != "eligibility_report_2024-03-04.csv" {
		t.Fatalf("unexpected %s %s", ctype, name)
	}

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if lines[0] != "Student ID,Name,Grade,Class,Plan,Meals Remaining,Status,Used Today,Used At" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "STU001,John Doe,5,5A,weekly,14,valid,Yes,2024-03-04T11:30:00.000Z" {
		t.Fatalf("unexpected row %q", lines[1])
	}
	if !strings.Contains(lines[2], `"Jane Smith, Jr"`) {
		t.Fatalf("comma in name not quoted: %q", lines[2])
	}

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil || len(records) != 4 || len(records[2]) != 9 {
		t.Fatalf("csv does not round trip: %v", err)
	}
}

func TestExportXLSX(t *testing.T) {
	repo := newRepoStub()
	repo.records = sampleRecords()
	svc := NewService(repo, counterStub(0), &logStub{}, nil, fixedClock)

	body, ctype, name, err := svc.Export(context.Background(), reportDay, "XLSX")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ctype != ContentTypeXLSX || name != "eligibility_report_2024-03-04.xlsx" {
		t.Fatalf("unexpected %s %s", ctype, name)
	}

	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Eligibility 2024-03-04")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 4 || rows[0][0] != "Student ID" || rows[2][1] != "Jane Smith, Jr" {
		t.Fatalf("unexpected sheet %v", rows)
	}

	if _, _, _, err := svc.Export(context.Background(), reportDay, "pdf"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected unknown format, got %v", err)
	}
}

func TestPublishSnapshotArchives(t *testing.T) {
	repo := newRepoStub()
	repo.records = sampleRecords()
	store := &storageStub{objects: map[string][]byte{}}
	svc := NewService(repo, counterStub(0), &logStub{}, store, fixedClock)

	snap, err := svc.PublishSnapshot(context.Background(), reportDay, "ops@school.test")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if snap.Status != "published" || snap.ArchiveURL == nil || *snap.ArchiveURL != "https://files.test/reports/eligibility_2024-03-04.csv" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !bytes.HasPrefix(store.objects["reports/eligibility_2024-03-04.csv"], []byte("Student ID,")) {
		t.Fatalf("archive not written")
	}

	if _, err := svc.PublishSnapshot(context.Background(), reportDay, "x"); !errors.Is(err, ErrSnapshotExists) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestPublishSnapshotSurvivesArchiveFailure(t *testing.T) {
	repo := newRepoStub()
	store := &storageStub{objects: map[string][]byte{}, err: errors.New("bucket offline")}
	svc := NewService(repo, counterStub(0), &logStub{}, store, fixedClock)

	snap, err := svc.PublishSnapshot(context.Background(), reportDay, "admin")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if snap.ArchiveURL != nil {
		t.Fatalf("archive url set despite failure")
	}
}
