// Package store persists uploaded image files for the upload server.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned when a named file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidName is returned for names that are empty or contain path
	// separators.
	ErrInvalidName = errors.New("invalid file name")
)

// Object is a stored file.
type Object struct {
	Name        string
	ContentType string
	Data        []byte
	ModTime     time.Time
}

// Store keeps uploaded files by name.
type Store interface {
	Save(ctx context.Context, obj *Object) error
	// List returns every stored name in ascending order.
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, name string) (*Object, error)
	Delete(ctx context.Context, name string) error
}

// ValidName rejects names that could escape the storage root.
func ValidName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`) || path.Base(name) != name || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Config selects and configures a backend.
type Config struct {
	// Type is one of filesystem, memory, sqlite or s3.
	Type      string
	Dir       string
	SQLiteDSN string
	S3Bucket  string
	S3Prefix  string
}

// New opens the backend named by cfg.Type. An empty type selects the
// filesystem backend.
func New(ctx context.Context, cfg Config) (Store, error) {
	fields := logrus.Fields{"storageType": cfg.Type}
	var (
		s   Store
		err error
	)
	switch strings.ToLower(cfg.Type) {
	case "", "filesystem":
		fields["storageType"] = "filesystem"
		fields["dir"] = cfg.Dir
		s, err = NewFilesystem(cfg.Dir)
	case "memory":
		s = NewMemory()
	case "sqlite":
		dsn := cfg.SQLiteDSN
		if dsn == "" {
			dsn = "retouch.db"
		}
		fields["dataSourceName"] = dsn
		s, err = NewSQLite(ctx, dsn)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires a bucket name")
		}
		fields["bucketName"] = cfg.S3Bucket
		s, err = NewS3(ctx, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	logrus.WithFields(fields).Info("Use storage")
	return s, nil
}
