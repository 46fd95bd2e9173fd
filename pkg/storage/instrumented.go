package storage

import (
	"context"
	"time"
)

type observer interface {
	Observe(backend, op string, took time.Duration, err error)
}

type instrumented struct {
	next    Store
	backend string
	obs     observer
	now     func() time.Time
}

// Instrument wraps next so every call is reported to obs under backend.
func Instrument(next Store, backend string, obs observer) Store {
	if obs == nil {
		return next
	}
	return &instrumented{next: next, backend: backend, obs: obs, now: time.Now}
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	s.obs.Observe(s.backend, op, s.now().Sub(start), err)
}

func (s *instrumented) Search(ctx context.Context, folder string) ([]Asset, error) {
	start := s.now()
	assets, err := s.next.Search(ctx, folder)
	s.observe("search", start, err)
	return assets, err
}

func (s *instrumented) Get(ctx context.Context, publicID string) (Asset, bool, error) {
	start := s.now()
	asset, found, err := s.next.Get(ctx, publicID)
	s.observe("get", start, err)
	return asset, found, err
}

func (s *instrumented) Upload(ctx context.Context, folder string, in UploadInput) (Asset, error) {
	start := s.now()
	asset, err := s.next.Upload(ctx, folder, in)
	s.observe("upload", start, err)
	return asset, err
}

func (s *instrumented) Destroy(ctx context.Context, publicID string) (DestroyStatus, error) {
	start := s.now()
	status, err := s.next.Destroy(ctx, publicID)
	s.observe("destroy", start, err)
	return status, err
}

func (s *instrumented) UpdateMetadata(ctx context.Context, publicID string, meta Metadata) (UpdateStatus, error) {
	start := s.now()
	status, err := s.next.UpdateMetadata(ctx, publicID, meta)
	s.observe("update_metadata", start, err)
	return status, err
}

func (s *instrumented) Ping(ctx context.Context) error {
	start := s.now()
	err := s.next.Ping(ctx)
	s.observe("ping", start, err)
	return err
}
