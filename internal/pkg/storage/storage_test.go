package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:5000/uploads/")
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	ctx := context.Background()

	if err := s.Put(ctx, "reports/eligibility_2024-01-01.csv", strings.NewReader("a,b\n"), "text/csv"); err != nil {
		t.Fatalf("put: %v", err)
	}

	rc, err := s.Get(ctx, "reports/eligibility_2024-01-01.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "a,b\n" {
		t.Fatalf("unexpected body %q", body)
	}

	if got := s.GetURL("reports/eligibility_2024-01-01.csv"); got != "http://localhost:5000/uploads/reports/eligibility_2024-01-01.csv" {
		t.Fatalf("unexpected url %s", got)
	}

	if err := s.Delete(ctx, "reports/eligibility_2024-01-01.csv"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "reports/eligibility_2024-01-01.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Delete(ctx, "reports/eligibility_2024-01-01.csv"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s, _ := NewLocalStorage(t.TempDir(), "")
	if err := s.Put(context.Background(), "../escape.txt", strings.NewReader("x"), "text/plain"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}

func TestReadValidated(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")

	if _, mime, err := ReadValidated(bytes.NewReader(png), ImageMimeTypes, 1024); err != nil || mime != "image/png" {
		t.Fatalf("expected png accepted, got %s %v", mime, err)
	}
	if _, _, err := ReadValidated(bytes.NewReader(png), ImageMimeTypes, 4); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected too large, got %v", err)
	}
	if _, _, err := ReadValidated(strings.NewReader("plain text"), ImageMimeTypes, 1024); !errors.Is(err, ErrInvalidMimeType) {
		t.Fatalf("expected invalid mime, got %v", err)
	}
	if _, _, err := ReadValidated(strings.NewReader(""), ImageMimeTypes, 1024); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected empty, got %v", err)
	}
}

func TestNewUnknownDriver(t *testing.T) {
	if _, err := New(Config{Driver: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
