// Package storage defines the asset store boundary shared by the gallery and
// image-record services. Backends live in sub-packages.
package storage

import (
	"context"
	"time"
)

// MaxResults caps a single folder search.
const MaxResults = 50

// Metadata is the key/value bag attached to an asset.
type Metadata map[string]string

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Asset is the raw record reported by a backend.
type Asset struct {
	PublicID  string
	URL       string
	Width     int
	Height    int
	Folder    string
	Metadata  Metadata
	CreatedAt time.Time
}

// UploadInput carries the binary and its metadata for a single upload.
type UploadInput struct {
	Body        []byte
	FileName    string
	ContentType string
	Metadata    Metadata
}

// DestroyStatus is the tagged result of a destroy call.
type DestroyStatus int

const (
	DestroyStatusDeleted DestroyStatus = iota + 1
	DestroyStatusNotFound
)

func (s DestroyStatus) String() string {
	switch s {
	case DestroyStatusDeleted:
		return "deleted"
	case DestroyStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// UpdateStatus is the tagged result of a metadata update.
type UpdateStatus int

const (
	UpdateStatusUpdated UpdateStatus = iota + 1
	UpdateStatusNotFound
)

func (s UpdateStatus) String() string {
	switch s {
	case UpdateStatusUpdated:
		return "updated"
	case UpdateStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Store is implemented by every asset store backend. Missing assets are
// reported through status values; errors mean the store could not answer.
type Store interface {
	Search(ctx context.Context, folder string) ([]Asset, error)
	Get(ctx context.Context, publicID string) (Asset, bool, error)
	Upload(ctx context.Context, folder string, in UploadInput) (Asset, error)
	Destroy(ctx context.Context, publicID string) (DestroyStatus, error)
	UpdateMetadata(ctx context.Context, publicID string, meta Metadata) (UpdateStatus, error)
	Ping(ctx context.Context) error
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}
