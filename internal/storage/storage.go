// Package storage keeps uploaded scene clips on local disk and serves them back by URL.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/reelx/internal/shared"
	"github.com/google/uuid"
)

// MediaPrefix is the URL path under which stored clips are served.
const MediaPrefix = "/media/"

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// MediaStore persists uploaded clips.
type MediaStore interface {
	Save(ctx context.Context, name string, r io.Reader) (*Media, error)
	Remove(key string) error
	Handler() http.Handler
}

// Media describes a stored clip.
type Media struct {
	Key         string
	Path        string
	URL         string
	Size        int64
	ContentType string
}

// LocalStore writes clips to a directory and builds public URLs from a base URL.
type LocalStore struct {
	dir       string
	publicURL string
	maxBytes  int64
}

// NewLocalStore creates the media directory and returns a store for it.
func NewLocalStore(cfg shared.StorageConfig, publicURL string) (*LocalStore, error) {
	if cfg.MediaDir == "" {
		return nil, fmt.Errorf("%w: storage media_dir is empty", shared.ErrMissingConfig)
	}
	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	return &LocalStore{
		dir:       cfg.MediaDir,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  cfg.MaxUploadMB << 20,
	}, nil
}

// MaxBytes returns the upload size limit, or zero when unlimited.
func (s *LocalStore) MaxBytes() int64 { return s.maxBytes }

// Save stores r under a fresh key that keeps the extension of name.
//
// The content must sniff as video; partial files are removed on any failure.
func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (*Media, error) {
	head := make([]byte, shared.SniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty upload", shared.ErrInvalidInput)
	}

	contentType, ok := shared.SniffVideo(head[:n], name)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a video file (%s)", shared.ErrInvalidInput, filepath.Base(name), contentType)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".mp4"
	}
	key := uuid.NewString() + ext
	path := filepath.Join(s.dir, key)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create media file: %w", err)
	}

	size, err := s.copy(ctx, f, io.MultiReader(bytes.NewReader(head[:n]), r))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	return &Media{
		Key:         key,
		Path:        path,
		URL:         s.URL(key),
		Size:        size,
		ContentType: contentType,
	}, nil
}

func (s *LocalStore) copy(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}

	src = &contextReader{ctx: ctx, r: src}
	size, err := io.Copy(dst, src)
	if err != nil {
		return size, fmt.Errorf("failed to write media file: %w", err)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return size, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxBytes)
	}
	return size, nil
}

// URL returns the public address of key.
func (s *LocalStore) URL(key string) string {
	return s.publicURL + MediaPrefix + url.PathEscape(key)
}

// Remove deletes a stored clip.
func (s *LocalStore) Remove(key string) error {
	if key != filepath.Base(key) {
		return fmt.Errorf("%w: bad media key %q", shared.ErrInvalidArgument, key)
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil {
		return fmt.Errorf("failed to remove media: %w", err)
	}
	return nil
}

// Handler serves stored clips. It expects the [MediaPrefix] to be stripped already.
func (s *LocalStore) Handler() http.Handler {
	return http.FileServer(noListing{http.Dir(s.dir)})
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// noListing hides directory indexes.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
