package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrNotFound = errors.New("object not found")

// Storage is an object store for student photos and report archives.
type Storage interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
}

// Config selects and configures a backend.
type Config struct {
	Driver    string // local | s3
	LocalPath string
	PublicURL string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// New builds the configured backend.
func New(cfg Config) (Storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalStorage(cfg.LocalPath, cfg.PublicURL)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// cleanKey rejects keys that would escape the bucket or base directory.
func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return key, nil
}
