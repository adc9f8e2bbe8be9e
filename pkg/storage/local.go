package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalBlobstore stores blobs on the local filesystem, confined to baseDir.
// Used for development and single-node deployments.
type LocalBlobstore struct {
	baseDir       string
	baseURL       string
	uploadTimeout time.Duration
}

// LocalOption configures the local backend.
type LocalOption func(*LocalBlobstore)

// WithLocalUploadTimeout bounds upload operations.
func WithLocalUploadTimeout(timeout time.Duration) LocalOption {
	return func(s *LocalBlobstore) { s.uploadTimeout = timeout }
}

// NewLocalBlobstore creates the local backend. baseDir is created if it
// does not exist; baseURL is the public prefix files are served from.
func NewLocalBlobstore(baseDir, baseURL string, opts ...LocalOption) (*LocalBlobstore, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if err := os.MkdirAll(absBaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}

	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	s := &LocalBlobstore{baseDir: absBaseDir, baseURL: baseURL}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Upload stores the file under the given key.
func (s *LocalBlobstore) Upload(ctx context.Context, fh *multipart.FileHeader, key string) (*Object, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	if fh == nil {
		return nil, ErrNilFileHeader
	}

	absPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToOpenFile, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	defer func() { _ = dst.Close() }()

	// Buffered copy with cancellation so a dropped client does not leave
	// the server copying a multi-gigabyte artwork file.
	var written int64
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			_ = dst.Close()
			_ = os.Remove(absPath)
			return nil, ctx.Err()
		default:
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			nw, writeErr := dst.Write(buf[:n])
			if writeErr != nil {
				_ = dst.Close()
				_ = os.Remove(absPath)
				return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, writeErr)
			}
			written += int64(nw)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = dst.Close()
			_ = os.Remove(absPath)
			return nil, fmt.Errorf("%w: %v", ErrFailedToReadFile, readErr)
		}
	}

	contentType, err := DetectContentType(fh)
	if err != nil {
		contentType = "application/octet-stream"
	}

	return &Object{
		Key:         strings.TrimPrefix(key, "/"),
		Filename:    SanitizeFilename(fh.Filename),
		Size:        written,
		ContentType: contentType,
		Extension:   Extension(fh),
		URL:         s.URL(key),
	}, nil
}

// Delete removes a single blob.
func (s *LocalBlobstore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	absPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("%w: %v", ErrFailedToDelete, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory, use DeleteAll", ErrInvalidKey, key)
	}

	if err := os.Remove(absPath); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToDelete, err)
	}
	return nil
}

// DeleteAll removes everything under the prefix.
func (s *LocalBlobstore) DeleteAll(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	absPath, err := s.resolve(prefix)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrPrefixNotFound, prefix)
		}
		return fmt.Errorf("%w: %v", ErrFailedToDelete, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidKey, prefix)
	}

	if err := os.RemoveAll(absPath); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToDelete, err)
	}
	return nil
}

// Exists reports whether a blob or prefix exists under the key.
func (s *LocalBlobstore) Exists(ctx context.Context, key string) bool {
	if ctx.Err() != nil {
		return false
	}
	absPath, err := s.resolve(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(absPath)
	return err == nil
}

// List returns entries directly under the prefix.
func (s *LocalBlobstore) List(ctx context.Context, prefix string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absPath, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPrefixNotFound, prefix)
		}
		return nil, fmt.Errorf("%w: %v", ErrFailedToList, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		rel, err := filepath.Rel(s.baseDir, filepath.Join(absPath, de.Name()))
		if err != nil {
			continue
		}
		entry := Entry{
			Name:  de.Name(),
			Key:   filepath.ToSlash(rel),
			IsDir: de.IsDir(),
		}
		if !de.IsDir() {
			if info, err := de.Info(); err == nil {
				entry.Size = info.Size()
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// TotalSize walks the prefix and sums file sizes. A missing prefix counts
// as zero usage.
func (s *LocalBlobstore) TotalSize(ctx context.Context, prefix string) (int64, error) {
	absPath, err := s.resolve(prefix)
	if err != nil {
		return 0, err
	}

	var total int64
	err = filepath.WalkDir(absPath, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFailedToList, err)
	}
	return total, nil
}

// URL returns the public URL for a blob.
func (s *LocalBlobstore) URL(key string) string {
	key = filepath.ToSlash(filepath.Clean(key))
	if strings.HasPrefix(key, "/") {
		return key
	}
	return s.baseURL + key
}

// resolve validates the key and maps it inside baseDir, rejecting
// traversal attempts.
func (s *LocalBlobstore) resolve(key string) (string, error) {
	key = filepath.Clean(key)
	absPath, err := filepath.Abs(filepath.Join(s.baseDir, key))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if !strings.HasPrefix(absPath, s.baseDir+string(filepath.Separator)) && absPath != s.baseDir {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return absPath, nil
}
