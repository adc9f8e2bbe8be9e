package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Object is the metadata of a stored blob.
type Object struct {
	Key         string
	Filename    string
	Size        int64
	ContentType string
	Extension   string
	URL         string
}

// Entry is a listing row, either a blob or a common prefix.
type Entry struct {
	Name  string
	Key   string
	IsDir bool
	Size  int64
}

// Blobstore abstracts the object storage backend. Every key passed in is
// already organization-prefixed; the backend does not know about tenancy.
type Blobstore interface {
	// Upload stores a multipart file under the given key.
	Upload(ctx context.Context, fh *multipart.FileHeader, key string) (*Object, error)
	// Delete removes a single blob.
	Delete(ctx context.Context, key string) error
	// DeleteAll removes every blob under the prefix.
	DeleteAll(ctx context.Context, prefix string) error
	// Exists reports whether a blob exists under the key.
	Exists(ctx context.Context, key string) bool
	// List returns entries directly under the prefix (non-recursive).
	List(ctx context.Context, prefix string) ([]Entry, error)
	// TotalSize sums the byte size of every blob under the prefix.
	// Feeds the storage usage counter.
	TotalSize(ctx context.Context, prefix string) (int64, error)
	// URL returns the public URL for a blob.
	URL(key string) string
}

// OrgPrefix is the key prefix all of an organization's blobs live under.
func OrgPrefix(orgID uuid.UUID) string {
	return "orgs/" + orgID.String() + "/"
}

// ObjectKey builds a collision-free key for a new upload, keeping the
// sanitized filename as the last segment so downloads keep their name.
func ObjectKey(orgID uuid.UUID, filename string) string {
	return OrgPrefix(orgID) + uuid.NewString() + "/" + SanitizeFilename(filename)
}

// ValidateKey rejects keys that escape the organization's prefix.
func ValidateKey(orgID uuid.UUID, key string) error {
	if strings.Contains(key, "..") {
		return fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	if !strings.HasPrefix(path.Clean(key), strings.TrimSuffix(OrgPrefix(orgID), "/")) {
		return fmt.Errorf("%w: %s", ErrForeignKey, key)
	}
	return nil
}

// SanitizeFilename strips path components and control bytes from a
// client-supplied filename.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = path.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")

	if filename == "." || filename == ".." || filename == "" || filename == "/" {
		filename = "unnamed"
	}
	return filename
}

// Extension returns the file extension including the dot.
func Extension(fh *multipart.FileHeader) string {
	if fh == nil {
		return ""
	}
	return filepath.Ext(fh.Filename)
}

// DetectContentType sniffs the content type from the first 512 bytes of
// the file, ignoring the client-declared header. The read position is
// reset afterwards.
func DetectContentType(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", ErrNilFileHeader
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToOpenFile, err)
	}
	defer func() { _ = f.Close() }()

	buffer := make([]byte, 512)
	n, err := f.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("%w: %v", ErrFailedToReadFile, err)
	}

	if seeker, ok := f.(io.Seeker); ok {
		_, _ = seeker.Seek(0, io.SeekStart)
	}

	return http.DetectContentType(buffer[:n]), nil
}

// artworkContentTypes are the formats accepted for print artwork.
var artworkContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"image/tiff":      true,
	"application/pdf": true,
}

// IsArtwork reports whether the upload is a printable artwork format.
// Falls back to the extension when content sniffing fails, since sniffing
// cannot identify every vector format.
func IsArtwork(fh *multipart.FileHeader) bool {
	if fh == nil {
		return false
	}

	ct, err := DetectContentType(fh)
	if err == nil && ct != "application/octet-stream" {
		if artworkContentTypes[ct] {
			return true
		}
	}

	switch strings.ToLower(Extension(fh)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".tif", ".tiff", ".svg", ".pdf", ".ai", ".eps":
		return true
	default:
		return false
	}
}

// ValidateSize checks the declared upload size against a byte limit.
func ValidateSize(fh *multipart.FileHeader, maxBytes int64) error {
	if fh == nil {
		return ErrNilFileHeader
	}
	if fh.Size > maxBytes {
		return fmt.Errorf("file size %d bytes exceeds %d bytes limit: %w", fh.Size, maxBytes, ErrFileTooLarge)
	}
	return nil
}

// ValidateContentType checks the sniffed content type against an allow
// list. An empty list allows everything.
func ValidateContentType(fh *multipart.FileHeader, allowed ...string) error {
	if fh == nil {
		return ErrNilFileHeader
	}
	if len(allowed) == 0 {
		return nil
	}

	ct, err := DetectContentType(fh)
	if err != nil {
		return err
	}
	if slices.Contains(allowed, ct) {
		return nil
	}
	return fmt.Errorf("content type %s not in allowed types %v: %w", ct, allowed, ErrContentTypeNotAllowed)
}
