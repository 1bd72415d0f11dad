package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/events"
	"github.com/planora/planora-backend/internal/repo"
	"github.com/planora/planora-backend/internal/storage"
)

// Upload is one file received from a multipart form.
type Upload struct {
	Name string
	Body io.Reader
}

// FileStore persists uploads.
type FileStore interface {
	Save(originalName string, r io.Reader) (storage.File, error)
	Remove(path string) error
}

// savedUploads tracks the files written during one operation so they can be
// removed if the operation fails before its document is stored.
type savedUploads struct {
	files FileStore
	paths []string
}

func (u *savedUploads) save(up Upload) (storage.File, error) {
	f, err := u.files.Save(up.Name, up.Body)
	if err != nil {
		return f, err
	}
	u.paths = append(u.paths, f.Path)
	return f, nil
}

func (u *savedUploads) discard() {
	for _, p := range u.paths {
		_ = u.files.Remove(p)
	}
	u.paths = nil
}

// TokenIssuer signs credentials for an identity.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func required(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return invalid("missing %s", strings.Join(missing, ", "))
}

// notFound converts repo.ErrNotFound into the given sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return sentinel
	}
	return err
}

// publish sends an event; failures are logged and swallowed.
func publish(ctx context.Context, p events.Publisher, key string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, key, payload); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", key).Msg("publish failed")
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
