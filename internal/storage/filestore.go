// Package storage persists ticket attachments and serves back public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/greenhouse-project/support-service/internal/config"
)

// FileStore saves an uploaded attachment and returns its public URL.
type FileStore interface {
	Save(ctx context.Context, ticketID, filename string, r io.Reader) (string, error)
}

// LocalFileStore writes attachments under a per-ticket directory on disk.
type LocalFileStore struct {
	cfg config.StorageConfig
}

func NewLocalFileStore(cfg config.StorageConfig) *LocalFileStore {
	return &LocalFileStore{cfg: cfg}
}

// Save stores the file as <root>/<ticketID>/<uuid>_<name> and returns the
// URL under the configured base. The random prefix avoids collisions when
// a client uploads the same filename twice.
func (s *LocalFileStore) Save(ctx context.Context, ticketID, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := sanitizeFilename(filename)
	stored := uuid.NewString()[:8] + "_" + name

	dir := filepath.Join(s.cfg.LocalPath, ticketID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, stored))
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.BaseURL, "/"), ticketID, stored), nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
