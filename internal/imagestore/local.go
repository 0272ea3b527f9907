package imagestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images below Dir and serves them under BaseURL, which
// the server mounts as a static file route.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{Dir: dir, BaseURL: baseURL}
}

func (s *LocalStore) Save(ctx context.Context, img *Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := objectKey(img)
	full := filepath.Join(s.Dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("imagestore: creating %s: %w", filepath.Dir(full), err)
	}
	// O_EXCL: a uuid clash must never overwrite another recipe's image.
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("imagestore: creating %s: %w", full, err)
	}
	if _, err := f.Write(img.Data); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("imagestore: writing %s: %w", full, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("imagestore: closing %s: %w", full, err)
	}
	return s.BaseURL + key, nil
}
