// Package images abstracts product image storage. The default
// implementation writes to a local directory and serves files by URL;
// a hosted CDN can be swapped in behind the same interface.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImagesPerProduct caps how many images a product may carry.
const MaxImagesPerProduct = 3

var (
	ErrTooManyImages    = errors.New("too many images")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// Store persists uploaded images and resolves them to public URLs.
type Store interface {
	// Save writes the image and returns its public URL.
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	// Remove deletes a previously saved image by its public URL.
	// Removing an unknown URL is not an error.
	Remove(ctx context.Context, url string) error
}

type localStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a Store backed by a directory on disk.
func NewLocalStore(dir, baseURL string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &localStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *localStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", ErrUnsupportedImage
	}

	name := uuid.New().String() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

func (s *localStore) Remove(ctx context.Context, url string) error {
	name := filepath.Base(url)
	// Base already strips any path components, this guards the raw input.
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image file: %w", err)
	}
	return nil
}
