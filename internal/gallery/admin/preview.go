package admin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Preview is a staged upload held in a temp file until it is committed or
// cancelled. Release is idempotent.
type Preview struct {
	ID          uuid.UUID
	FileName    string
	ContentType string
	Size        int64

	mu       sync.Mutex
	path     string
	released bool
}

// PreviewInfo is the public view of a staged preview.
type PreviewInfo struct {
	ID          string `json:"preview_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func newPreview(dir, fileName, contentType string, data []byte) (*Preview, error) {
	f, err := os.CreateTemp(dir, "gallery-preview-*")
	if err != nil {
		return nil, fmt.Errorf("create preview file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("write preview file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("close preview file: %w", err)
	}
	return &Preview{
		ID:          uuid.New(),
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		path:        f.Name(),
	}, nil
}

func (p *Preview) Info() PreviewInfo {
	return PreviewInfo{ID: p.ID.String(), FileName: p.FileName, ContentType: p.ContentType, Size: p.Size}
}

// Bytes reads the staged content back.
func (p *Preview) Bytes() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil, errors.New("preview already released")
	}
	return os.ReadFile(p.path)
}

func (p *Preview) release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil
	}
	p.released = true
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove preview %s: %w", p.ID, err)
	}
	return nil
}
