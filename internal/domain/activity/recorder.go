package activity

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Recorder appends audit entries. Implementations never fail the caller's
// operation; a lost audit row is logged instead.
type Recorder interface {
	Record(ctx context.Context, t Type, details Details, actorID string) *Entry
}

// Publisher fans a stored entry out to live subscribers.
type Publisher interface {
	Publish(entry *Entry)
}

// Service writes entries and pushes them to the live feed.
type Service struct {
	repo Repository
	pub  Publisher
}

// NewService creates activity service. pub may be nil.
func NewService(repo Repository, pub Publisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// Record stores an entry. It returns nil if the write failed.
func (s *Service) Record(ctx context.Context, t Type, details Details, actorID string) *Entry {
	var actor *string
	if actorID != "" {
		actor = &actorID
	}

	entry, err := s.repo.Append(ctx, t, details, actor)
	if err != nil {
		kind := ""
		if details != nil {
			kind = details.Kind()
		}
		log.Error().Err(err).Str("type", string(t)).Str("kind", kind).Msg("Failed to write activity log")
		return nil
	}

	if s.pub != nil {
		s.pub.Publish(entry)
	}
	return entry
}

// Recent returns the newest entries.
func (s *Service) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	return s.repo.Recent(ctx, clampLimit(limit))
}

// RecentByTypes returns the newest entries of the given types.
func (s *Service) RecentByTypes(ctx context.Context, types []Type, limit int) ([]*Entry, error) {
	return s.repo.RecentByTypes(ctx, types, clampLimit(limit))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 500:
		return 500
	default:
		return limit
	}
}
