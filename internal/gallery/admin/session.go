// Package admin implements the server-side editing session behind the gallery
// admin panel: capacity enforcement, preview staging, sequential batch
// uploads and transactional edits over an authoritative image list.
package admin

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gurudev-engicon/gallery-backend/internal/gallery"
	"github.com/gurudev-engicon/gallery-backend/pkg/config"
	"github.com/gurudev-engicon/gallery-backend/pkg/enums"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/logger"
	"github.com/gurudev-engicon/gallery-backend/pkg/metrics"
	"go.uber.org/multierr"
)

type galleryRepository interface {
	ListImages(ctx context.Context, category string) ([]gallery.GalleryImage, error)
	UploadImage(ctx context.Context, input gallery.UploadInput) (gallery.GalleryImage, error)
	UpdateImage(ctx context.Context, id, title, description string) (gallery.GalleryImage, error)
	DeleteImage(ctx context.Context, id string) error
}

type outcomeRecorder interface {
	IncOutcome(category, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) IncOutcome(string, string) {}

const defaultFolderRoot = "gurudev-gallery"

// Config holds the capacity rules shared by every session. FolderRoot must
// match the repository's so image ids resolve to their category.
type Config struct {
	MaxImages  int
	Scope      string
	PreviewDir string
	FolderRoot string
}

func (c Config) withDefaults() Config {
	if c.MaxImages <= 0 {
		c.MaxImages = 10
	}
	c.FolderRoot = strings.Trim(strings.TrimSpace(c.FolderRoot), "/")
	if c.FolderRoot == "" {
		c.FolderRoot = defaultFolderRoot
	}
	if c.Scope != config.CapacityScopeCategory {
		c.Scope = config.CapacityScopeProject
	}
	return c
}

// DeleteOutcome distinguishes a destroyed image from one that was already gone.
type DeleteOutcome string

const (
	DeleteOutcomeDeleted     DeleteOutcome = "deleted"
	DeleteOutcomeAlreadyGone DeleteOutcome = "already_gone"
)

// Session is the authoritative image list for one category while an admin
// edits it. List mutations happen only after the repository confirms.
type Session struct {
	id       uuid.UUID
	category enums.Category
	cfg      Config
	repo     galleryRepository
	outcomes outcomeRecorder
	logg     *logger.Logger

	// uploadMu serializes capacity check + upload pairs.
	uploadMu sync.Mutex

	mu       sync.Mutex
	images   []gallery.GalleryImage
	previews map[uuid.UUID]*Preview
	closed   bool
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	ID       string                 `json:"session_id"`
	Category enums.Category         `json:"category"`
	Max      int                    `json:"max"`
	Scope    string                 `json:"scope"`
	Images   []gallery.GalleryImage `json:"images"`
	Projects []gallery.Project      `json:"projects"`
	Previews []PreviewInfo          `json:"previews"`
}

// Open loads the category's images and starts a session over them.
func Open(ctx context.Context, repo galleryRepository, category string, cfg Config, outcomes outcomeRecorder, logg *logger.Logger) (*Session, error) {
	if repo == nil {
		return nil, fmt.Errorf("gallery repository required")
	}
	cat, err := enums.ParseCategory(category)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCategory, fmt.Sprintf("unknown category %q", category)).
			WithDetails(map[string]any{"category": category, "allowed": enums.Categories()})
	}
	images, err := repo.ListImages(ctx, cat.String())
	if err != nil {
		return nil, err
	}
	if outcomes == nil {
		outcomes = nopRecorder{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Session{
		id:       uuid.New(),
		category: cat,
		cfg:      cfg.withDefaults(),
		repo:     repo,
		outcomes: outcomes,
		logg:     logg,
		images:   images,
		previews: map[uuid.UUID]*Preview{},
	}, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) Category() enums.Category { return s.category }

// Images returns a copy of the authoritative list.
func (s *Session) Images() []gallery.GalleryImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gallery.GalleryImage{}, s.images...)
}

// Projects groups the current list by title.
func (s *Session) Projects() []gallery.Project {
	return gallery.GroupByTitle(s.Images())
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	images := append([]gallery.GalleryImage{}, s.images...)
	previews := make([]PreviewInfo, 0, len(s.previews))
	for _, p := range s.previews {
		previews = append(previews, p.Info())
	}
	s.mu.Unlock()

	return Snapshot{
		ID:       s.id.String(),
		Category: s.category,
		Max:      s.cfg.MaxImages,
		Scope:    s.cfg.Scope,
		Images:   images,
		Projects: gallery.GroupByTitle(images),
		Previews: previews,
	}
}

func (s *Session) ctx(ctx context.Context) context.Context {
	ctx = s.logg.WithSessionID(ctx, s.id.String())
	return s.logg.WithCategory(ctx, s.category.String())
}

func (s *Session) ensureOpen() error {
	if s.closed {
		return pkgerrors.New(pkgerrors.CodeConflict, "admin session is closed")
	}
	return nil
}

// checkCapacity must be called with uploadMu held.
func (s *Session) checkCapacity(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}

	count := 0
	if s.cfg.Scope == config.CapacityScopeCategory {
		count = len(s.images)
	} else {
		for _, img := range s.images {
			if strings.TrimSpace(img.Title) == title {
				count++
			}
		}
	}
	if count >= s.cfg.MaxImages {
		s.outcomes.IncOutcome(s.category.String(), metrics.OutcomeCapacityExceeded)
		msg := fmt.Sprintf("project %q already has %d of %d images", title, count, s.cfg.MaxImages)
		if s.cfg.Scope == config.CapacityScopeCategory {
			msg = fmt.Sprintf("category already has %d of %d images", count, s.cfg.MaxImages)
		}
		return pkgerrors.New(pkgerrors.CodeCapacityExceeded, msg).
			WithDetails(map[string]any{
				"scope":   s.cfg.Scope,
				"project": title,
				"count":   count,
				"max":     s.cfg.MaxImages,
			})
	}
	return nil
}

func projectTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "project title is required").
			WithDetails(map[string]any{"field": "title"})
	}
	return title, nil
}

// upload runs one capacity-checked upload. Callers hold uploadMu.
func (s *Session) upload(ctx context.Context, title, description, fileName, contentType string, data []byte) (gallery.GalleryImage, error) {
	if err := s.checkCapacity(title); err != nil {
		return gallery.GalleryImage{}, err
	}
	img, err := s.repo.UploadImage(ctx, gallery.UploadInput{
		Category:    s.category.String(),
		File:        data,
		FileName:    fileName,
		ContentType: contentType,
		Title:       title,
		Description: description,
	})
	if err != nil {
		s.outcomes.IncOutcome(s.category.String(), metrics.OutcomeUploadFailed)
		return gallery.GalleryImage{}, err
	}

	s.mu.Lock()
	s.images = append(s.images, img)
	s.mu.Unlock()
	s.outcomes.IncOutcome(s.category.String(), metrics.OutcomeUploaded)
	return img, nil
}

// StagePreview holds data in a temp file until CommitPreview or CancelPreview.
func (s *Session) StagePreview(fileName, contentType string, data []byte) (*Preview, error) {
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	p, err := newPreview(s.cfg.PreviewDir, fileName, contentType, data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stage preview")
	}
	s.previews[p.ID] = p
	return p, nil
}

// preview looks up a staged preview; claim also removes it from the session
// so a second commit of the same id finds nothing.
func (s *Session) preview(previewID string, claim bool) (*Preview, error) {
	id, err := uuid.Parse(previewID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid preview id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	p, ok := s.previews[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "preview not found")
	}
	if claim {
		delete(s.previews, id)
	}
	return p, nil
}

// restorePreview hands a claimed preview back after a failed commit. A session
// closed in the meantime releases it instead.
func (s *Session) restorePreview(p *Preview) {
	s.mu.Lock()
	if !s.closed {
		s.previews[p.ID] = p
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	if err := p.release(); err != nil {
		s.logg.Warn(s.logg.WithField(s.ctx(context.Background()), "error", err.Error()), "gallery.preview.release_failed")
	}
}

func (s *Session) dropPreview(p *Preview) error {
	s.mu.Lock()
	delete(s.previews, p.ID)
	s.mu.Unlock()
	if err := p.release(); err != nil {
		return err
	}
	s.outcomes.IncOutcome(s.category.String(), metrics.OutcomePreviewReleased)
	return nil
}

// CommitPreview uploads a staged preview. The preview is released once the
// upload is confirmed and kept on failure so the admin can retry or cancel.
func (s *Session) CommitPreview(ctx context.Context, previewID, title, description string) (gallery.GalleryImage, error) {
	title, err := projectTitle(title)
	if err != nil {
		return gallery.GalleryImage{}, err
	}
	p, err := s.preview(previewID, true)
	if err != nil {
		return gallery.GalleryImage{}, err
	}
	data, err := p.Bytes()
	if err != nil {
		s.restorePreview(p)
		return gallery.GalleryImage{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read preview")
	}

	s.uploadMu.Lock()
	img, err := s.upload(ctx, title, description, p.FileName, p.ContentType, data)
	s.uploadMu.Unlock()
	if err != nil {
		s.restorePreview(p)
		return gallery.GalleryImage{}, err
	}

	ctx = s.ctx(ctx)
	if err := s.dropPreview(p); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "gallery.preview.release_failed")
	}
	s.logg.Info(s.logg.WithField(ctx, "image_id", img.ID), "gallery.preview.committed")
	return img, nil
}

// CancelPreview releases a staged preview without uploading it.
func (s *Session) CancelPreview(previewID string) error {
	p, err := s.preview(previewID, false)
	if err != nil {
		return err
	}
	if err := s.dropPreview(p); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release preview")
	}
	return nil
}

// BatchItem is one file of a batch upload.
type BatchItem struct {
	Name        string
	ContentType string
	Data        []byte
}

// BatchResult lists the images confirmed before the batch stopped.
type BatchResult struct {
	Uploaded []gallery.GalleryImage `json:"uploaded"`
}

// BatchError identifies the item that stopped a batch. Index is 1-based.
type BatchError struct {
	Index int
	Name  string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("upload of item %d (%s) failed: %v", e.Index, e.Name, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// UploadBatch uploads items one at a time under a shared title and stops at
// the first failure. Items after the failing one are never attempted.
func (s *Session) UploadBatch(ctx context.Context, items []BatchItem, title, description string) (BatchResult, error) {
	result := BatchResult{Uploaded: []gallery.GalleryImage{}}
	title, err := projectTitle(title)
	if err != nil {
		return result, err
	}
	if len(items) == 0 {
		return result, pkgerrors.New(pkgerrors.CodeValidation, "at least one file is required")
	}

	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	ctx = s.ctx(ctx)
	for i, item := range items {
		img, err := s.upload(ctx, title, description, item.Name, item.ContentType, item.Data)
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"failed_index": i + 1,
				"failed_name":  item.Name,
				"uploaded":     len(result.Uploaded),
			}), "gallery.batch.stopped")
			return result, &BatchError{Index: i + 1, Name: item.Name, Err: err}
		}
		result.Uploaded = append(result.Uploaded, img)
	}
	s.logg.Info(s.logg.WithField(ctx, "uploaded", len(result.Uploaded)), "gallery.batch.completed")
	return result, nil
}

// owns checks that id lives in the session category's folder. Ids from other
// categories never reach the repository.
func (s *Session) owns(id string) error {
	s.mu.Lock()
	err := s.ensureOpen()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	category, ok := enums.CategoryForFolder(s.cfg.FolderRoot, path.Dir(strings.TrimSpace(id)))
	if !ok || category != s.category {
		return pkgerrors.New(pkgerrors.CodeNotFound, "image not found in this session").
			WithDetails(map[string]any{"id": id, "category": s.category})
	}
	return nil
}

// UpdateImage rewrites an image's title and description. The list entry is
// replaced only after the repository confirms.
func (s *Session) UpdateImage(ctx context.Context, id, title, description string) (gallery.GalleryImage, error) {
	if err := s.owns(id); err != nil {
		return gallery.GalleryImage{}, err
	}

	updated, err := s.repo.UpdateImage(ctx, id, title, description)
	if err != nil {
		return gallery.GalleryImage{}, err
	}

	s.mu.Lock()
	for i := range s.images {
		if s.images[i].ID == updated.ID {
			s.images[i] = updated
			break
		}
	}
	s.mu.Unlock()
	s.outcomes.IncOutcome(s.category.String(), metrics.OutcomeUpdated)
	return updated, nil
}

// DeleteImage destroys an image and drops it from the list. An image the
// store no longer has is reported as already gone and the list is untouched.
func (s *Session) DeleteImage(ctx context.Context, id string) (DeleteOutcome, error) {
	if err := s.owns(id); err != nil {
		return "", err
	}

	if err := s.repo.DeleteImage(ctx, id); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.outcomes.IncOutcome(s.category.String(), metrics.OutcomeAlreadyGone)
			s.logg.Info(s.logg.WithField(s.ctx(ctx), "image_id", id), "gallery.delete.already_gone")
			return DeleteOutcomeAlreadyGone, nil
		}
		return "", err
	}

	s.mu.Lock()
	for i := range s.images {
		if s.images[i].ID == id {
			s.images = append(s.images[:i], s.images[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.outcomes.IncOutcome(s.category.String(), metrics.OutcomeDeleted)
	return DeleteOutcomeDeleted, nil
}

// Close releases every open preview. Further operations fail.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	previews := s.previews
	s.previews = map[uuid.UUID]*Preview{}
	s.mu.Unlock()

	var err error
	for _, p := range previews {
		if relErr := p.release(); relErr != nil {
			err = multierr.Append(err, relErr)
			continue
		}
		s.outcomes.IncOutcome(s.category.String(), metrics.OutcomePreviewReleased)
	}
	return err
}
