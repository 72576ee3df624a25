package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"omni3d_back/apperr"

	"github.com/google/uuid"
)

// URLPrefix is the public path under which stored files are served.
const URLPrefix = "/uploads/"

const (
	maxExtLen    = 16
	saveAttempts = 3
)

// SaveOptions shapes the generated file name.
type SaveOptions struct {
	// Prefix is prepended to the random part of the name, e.g. "thumb_".
	Prefix string
	// DefaultExt is used when the original name has no usable extension.
	DefaultExt string
	// ShortName uses 8 hex characters instead of a full uuid.
	ShortName bool
}

// FileStore keeps uploaded files in a single local directory.
type FileStore struct {
	baseDir  string
	maxBytes int64
}

// NewFileStore resolves dir, creates it if needed and limits each file to maxBytes
// (no limit when maxBytes <= 0).
func NewFileStore(dir string, maxBytes int64) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: upload dir is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure upload dir: %w", err)
	}
	return &FileStore{baseDir: abs, maxBytes: maxBytes}, nil
}

func (s *FileStore) Dir() string {
	if s == nil {
		return ""
	}
	return s.baseDir
}

// SaveFile stores a multipart upload. See Save.
func (s *FileStore) SaveFile(fileHeader *multipart.FileHeader, opts SaveOptions) (string, int64, error) {
	if fileHeader == nil {
		return "", 0, apperr.Validation("file not provided")
	}
	if fileHeader.Size <= 0 {
		return "", 0, apperr.Validation("file %q is empty", fileHeader.Filename)
	}
	if s.maxBytes > 0 && fileHeader.Size > s.maxBytes {
		return "", 0, apperr.Validation("file %q exceeds %d bytes", fileHeader.Filename, s.maxBytes)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", 0, apperr.Storage("open upload", err)
	}
	defer src.Close()

	return s.Save(src, fileHeader.Filename, opts)
}

// Save writes src under a new collision-resistant name that keeps the lower-cased
// extension of originalName, and returns its public URL and byte count.
func (s *FileStore) Save(src io.Reader, originalName string, opts SaveOptions) (string, int64, error) {
	if s == nil {
		return "", 0, errors.New("storage: file store not configured")
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", 0, apperr.Storage("ensure upload dir", err)
	}

	ext := extension(originalName, opts.DefaultExt)
	var (
		name   string
		target string
		dst    *os.File
		err    error
	)
	for attempt := 0; attempt < saveAttempts; attempt++ {
		name = opts.Prefix + randomName(opts.ShortName) + ext
		target = filepath.Join(s.baseDir, name)
		dst, err = os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", 0, apperr.Storage("create file", err)
	}

	reader := src
	if s.maxBytes > 0 {
		reader = io.LimitReader(src, s.maxBytes+1)
	}
	written, err := io.Copy(dst, reader)
	closeErr := dst.Close()
	switch {
	case err != nil:
		os.Remove(target)
		return "", 0, apperr.Storage("write file", err)
	case closeErr != nil:
		os.Remove(target)
		return "", 0, apperr.Storage("close file", closeErr)
	case s.maxBytes > 0 && written > s.maxBytes:
		os.Remove(target)
		return "", 0, apperr.Validation("file %q exceeds %d bytes", originalName, s.maxBytes)
	}

	return URLPrefix + name, written, nil
}

// Delete removes the file behind a URL returned by Save. URLs outside the upload
// prefix are ignored, as are files that no longer exist.
func (s *FileStore) Delete(url string) error {
	target, ok := s.pathFor(url)
	if !ok {
		return nil
	}
	info, err := os.Stat(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return apperr.Storage("stat file", err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.Storage("delete file", err)
	}
	return nil
}

// Exists reports whether a URL under the upload prefix names an existing file.
func (s *FileStore) Exists(url string) bool {
	target, ok := s.pathFor(url)
	if !ok {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && info.Mode().IsRegular()
}

// Managed reports whether url points into the upload prefix.
func Managed(url string) bool {
	return strings.HasPrefix(strings.TrimSpace(url), URLPrefix)
}

func (s *FileStore) pathFor(url string) (string, bool) {
	if s == nil || !Managed(url) {
		return "", false
	}
	name := strings.TrimPrefix(strings.TrimSpace(url), URLPrefix)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return filepath.Join(s.baseDir, name), true
}

func randomName(short bool) string {
	id := uuid.NewString()
	if short {
		return id[:8]
	}
	return id
}

func extension(originalName, fallback string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(originalName)))
	if validExtension(ext) {
		return ext
	}
	return fallback
}

func validExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > maxExtLen || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
