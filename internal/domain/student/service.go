package student

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumeal/edumeal-api/internal/pkg/imaging"
	"github.com/edumeal/edumeal-api/internal/pkg/storage"
)

// MaxPhotoSize bounds uploaded photos.
const MaxPhotoSize int64 = 5 * 1024 * 1024

// Service handles roster business logic
type Service struct {
	repo      Repository
	storage   storage.Storage
	processor *imaging.Processor
}

// NewService creates student service. store may be nil to disable photos.
func NewService(repo Repository, store storage.Storage, processor *imaging.Processor) *Service {
	return &Service{repo: repo, storage: store, processor: processor}
}

func (s *Service) List(ctx context.Context) ([]*Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []*Student{}
	}
	return students, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Student, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStudentNotFound
	}
	return st, nil
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Student, error) {
	st, err := s.repo.Create(ctx, req.Draft())
	if err != nil {
		return nil, err
	}
	log.Info().Int("id", st.ID).Str("student_id", st.StudentID).Msg("Student created")
	return st, nil
}

func (s *Service) Update(ctx context.Context, id int, req *UpdateRequest) (*Student, error) {
	st, err := s.repo.Update(ctx, id, req.Patch())
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStudentNotFound
	}
	return st, nil
}

// UploadPhoto stores a square portrait and thumbnail and points the
// student's photoUrl at the thumbnail shown on the scanner.
func (s *Service) UploadPhoto(ctx context.Context, id int, r io.Reader) (*Student, error) {
	if s.storage == nil || s.processor == nil {
		return nil, ErrPhotoUnavailable
	}

	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, _, err := storage.ReadValidated(r, storage.ImageMimeTypes, MaxPhotoSize)
	if err != nil {
		return nil, err
	}

	photo, err := s.processor.Process(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidMimeType, err)
	}

	version := strconv.FormatInt(time.Now().UnixNano(), 36)
	portraitKey, thumbKey := imaging.Paths(st.StudentID, version)

	if err := s.storage.Put(ctx, portraitKey, bytes.NewReader(photo.Portrait), "image/jpeg"); err != nil {
		return nil, err
	}
	if err := s.storage.Put(ctx, thumbKey, bytes.NewReader(photo.Thumbnail), "image/jpeg"); err != nil {
		s.storage.Delete(ctx, portraitKey)
		return nil, err
	}

	updated, err := s.repo.SetPhotoURL(ctx, id, s.storage.GetURL(thumbKey))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrStudentNotFound
	}
	return updated, nil
}
