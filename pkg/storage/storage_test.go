package storage_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/pkg/storage"
)

func createFileHeader(filename string, content []byte) *multipart.FileHeader {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil
	}
	if _, err := part.Write(content); err != nil {
		return nil
	}
	if err := writer.Close(); err != nil {
		return nil
	}

	req := &http.Request{
		Method: "POST",
		Header: http.Header{
			"Content-Type": []string{writer.FormDataContentType()},
		},
		Body: io.NopCloser(body),
	}
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		return nil
	}

	files := req.MultipartForm.File["file"]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func TestOrgPrefix(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	prefix := storage.OrgPrefix(orgID)
	assert.Equal(t, "orgs/"+orgID.String()+"/", prefix)
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	key := storage.ObjectKey(orgID, "../../etc/passwd")

	assert.True(t, strings.HasPrefix(key, storage.OrgPrefix(orgID)))
	assert.True(t, strings.HasSuffix(key, "/passwd"))
	assert.NotContains(t, key, "..")

	// Two uploads of the same filename get distinct keys.
	assert.NotEqual(t, key, storage.ObjectKey(orgID, "../../etc/passwd"))
}

func TestValidateKey(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	key := storage.ObjectKey(orgID, "artwork.pdf")
	require.NoError(t, storage.ValidateKey(orgID, key))

	foreign := storage.ObjectKey(uuid.New(), "artwork.pdf")
	require.ErrorIs(t, storage.ValidateKey(orgID, foreign), storage.ErrForeignKey)

	escape := storage.OrgPrefix(orgID) + "../" + foreign
	require.ErrorIs(t, storage.ValidateKey(orgID, escape), storage.ErrInvalidKey)
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../../etc/passwd", "passwd"},
		{"C:\\Windows\\file.txt", "file.txt"},
		{"", "unnamed"},
		{"..", "unnamed"},
		{"logo\x00.png", "logo.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, storage.SanitizeFilename(tt.in), "input %q", tt.in)
	}
}

func TestDetectContentType(t *testing.T) {
	t.Parallel()

	fh := createFileHeader("artwork.pdf", []byte("%PDF-1.4 fake pdf content"))
	require.NotNil(t, fh)

	ct, err := storage.DetectContentType(fh)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct)

	_, err = storage.DetectContentType(nil)
	require.ErrorIs(t, err, storage.ErrNilFileHeader)
}

func TestIsArtwork(t *testing.T) {
	t.Parallel()

	pdf := createFileHeader("design.pdf", []byte("%PDF-1.4"))
	assert.True(t, storage.IsArtwork(pdf))

	png := createFileHeader("logo.png", []byte("\x89PNG\r\n\x1a\n fake"))
	assert.True(t, storage.IsArtwork(png))

	// Vector formats that sniffing cannot identify pass on extension.
	eps := createFileHeader("design.eps", []byte{0x01, 0x02, 0x03})
	assert.True(t, storage.IsArtwork(eps))

	exe := createFileHeader("malware.exe", []byte{0x4d, 0x5a, 0x00, 0x00})
	assert.False(t, storage.IsArtwork(exe))

	assert.False(t, storage.IsArtwork(nil))
}

func TestValidateSize(t *testing.T) {
	t.Parallel()

	fh := createFileHeader("big.pdf", bytes.Repeat([]byte("a"), 1024))
	require.NoError(t, storage.ValidateSize(fh, 2048))
	require.ErrorIs(t, storage.ValidateSize(fh, 512), storage.ErrFileTooLarge)
	require.ErrorIs(t, storage.ValidateSize(nil, 512), storage.ErrNilFileHeader)
}

func TestValidateContentType(t *testing.T) {
	t.Parallel()

	fh := createFileHeader("artwork.pdf", []byte("%PDF-1.4"))
	require.NoError(t, storage.ValidateContentType(fh))
	require.NoError(t, storage.ValidateContentType(fh, "application/pdf"))
	require.ErrorIs(t, storage.ValidateContentType(fh, "image/png"),
		storage.ErrContentTypeNotAllowed)
}
