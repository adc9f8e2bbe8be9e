package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/pkg/storage"
)

// fakeS3 keeps objects in a map and serves the subset of the S3 API the
// blobstore uses. Listing ignores continuation tokens; tests stay under
// one page.
type fakeS3 struct {
	objects map[string][]byte
	puts    []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, *params.Key)
	f.objects[*params.Key] = []byte("stored")
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[*params.Key]; !ok {
		return nil, &notFoundErr{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key, data := range f.objects {
		if params.Prefix != nil && !strings.HasPrefix(key, *params.Prefix) {
			continue
		}
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(key),
			Size: aws.Int64(int64(len(data))),
		})
	}
	return out, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, params *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	for _, obj := range params.Delete.Objects {
		delete(f.objects, *obj.Key)
	}
	return &s3.DeleteObjectsOutput{}, nil
}

type notFoundErr struct{}

func (*notFoundErr) Error() string                 { return "NotFound" }
func (*notFoundErr) ErrorCode() string             { return "NotFound" }
func (*notFoundErr) ErrorMessage() string          { return "not found" }
func (*notFoundErr) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func newS3Blobstore(t *testing.T, client storage.S3Client) *storage.S3Blobstore {
	t.Helper()
	store, err := storage.NewS3Blobstore(context.Background(), storage.S3Config{
		Bucket: "inkwell-test",
		Region: "us-east-1",
	}, storage.WithS3Client(client))
	require.NoError(t, err)
	return store
}

func TestS3BlobstoreUpload(t *testing.T) {
	t.Parallel()

	client := newFakeS3()
	store := newS3Blobstore(t, client)

	obj, err := store.Upload(context.Background(),
		createFileHeader("artwork.pdf", []byte("%PDF-1.4")), "orgs/abc/xyz/artwork.pdf")
	require.NoError(t, err)

	assert.Equal(t, "orgs/abc/xyz/artwork.pdf", obj.Key)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, "https://inkwell-test.s3.us-east-1.amazonaws.com/orgs/abc/xyz/artwork.pdf", obj.URL)
	assert.Equal(t, []string{"orgs/abc/xyz/artwork.pdf"}, client.puts)
}

func TestS3BlobstoreUploadRejectsTraversal(t *testing.T) {
	t.Parallel()

	store := newS3Blobstore(t, newFakeS3())
	_, err := store.Upload(context.Background(),
		createFileHeader("a.pdf", []byte("x")), "orgs/abc/../escape.pdf")
	require.ErrorIs(t, err, storage.ErrInvalidKey)
}

func TestS3BlobstoreDelete(t *testing.T) {
	t.Parallel()

	client := newFakeS3()
	client.objects["orgs/abc/a.pdf"] = []byte("data")
	store := newS3Blobstore(t, client)

	require.NoError(t, store.Delete(context.Background(), "orgs/abc/a.pdf"))
	assert.Empty(t, client.objects)

	require.ErrorIs(t, store.Delete(context.Background(), "orgs/abc/a.pdf"), storage.ErrNotFound)
}

func TestS3BlobstoreDeleteAll(t *testing.T) {
	t.Parallel()

	client := newFakeS3()
	client.objects["orgs/abc/a.pdf"] = []byte("aa")
	client.objects["orgs/abc/b.pdf"] = []byte("bb")
	client.objects["orgs/other/keep.pdf"] = []byte("cc")
	store := newS3Blobstore(t, client)

	require.NoError(t, store.DeleteAll(context.Background(), "orgs/abc"))

	assert.Len(t, client.objects, 1)
	assert.Contains(t, client.objects, "orgs/other/keep.pdf")
}

func TestS3BlobstoreTotalSize(t *testing.T) {
	t.Parallel()

	client := newFakeS3()
	client.objects["orgs/abc/a.pdf"] = make([]byte, 100)
	client.objects["orgs/abc/b.pdf"] = make([]byte, 150)
	client.objects["orgs/other/c.pdf"] = make([]byte, 999)
	store := newS3Blobstore(t, client)

	total, err := store.TotalSize(context.Background(), "orgs/abc/")
	require.NoError(t, err)
	assert.EqualValues(t, 250, total)
}
