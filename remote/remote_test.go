package remote

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aouyang1/photoportfolio/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 stores objects in memory. Multipart calls are never made for the
// small files used here so the embedded client stays nil.
type fakeS3 struct {
	manager.UploadAPIClient

	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	puts         int
	headErr      error
	putErr       error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.contentTypes[key] = aws.ToString(in.ContentType)
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != "photos" {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func writeFiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("data-"+name), 0o644))
	}
	return dir
}

func TestUploadFile(t *testing.T) {
	fake := newFakeS3()
	u := NewUploader(fake, "photos", "https://cdn.example.com")
	dir := writeFiles(t, "a.png")

	url, uploaded, err := u.UploadFile(context.Background(), filepath.Join(dir, "a.png"), "images/a.png")
	require.NoError(t, err)
	assert.True(t, uploaded)
	assert.Equal(t, "https://cdn.example.com/images/a.png", url)
	assert.Equal(t, []byte("data-a.png"), fake.objects["images/a.png"])
	assert.Equal(t, "image/png", fake.contentTypes["images/a.png"])

	url, uploaded, err = u.UploadFile(context.Background(), filepath.Join(dir, "a.png"), "images/a.png")
	require.NoError(t, err)
	assert.False(t, uploaded)
	assert.Equal(t, "https://cdn.example.com/images/a.png", url)
	assert.Equal(t, 1, fake.puts)
}

func TestUploadFileHeadError(t *testing.T) {
	fake := newFakeS3()
	fake.headErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	u := NewUploader(fake, "photos", "https://cdn.example.com")
	dir := writeFiles(t, "a.jpg")

	exists, err := u.Exists(context.Background(), "images/a.jpg")
	require.Error(t, err)
	assert.False(t, exists)

	// an unexpected head error still uploads
	_, uploaded, err := u.UploadFile(context.Background(), filepath.Join(dir, "a.jpg"), "images/a.jpg")
	require.NoError(t, err)
	assert.True(t, uploaded)
	assert.Equal(t, 1, fake.puts)
}

func TestUploadImages(t *testing.T) {
	fake := newFakeS3()
	u := NewUploader(fake, "photos", "https://cdn.example.com")
	dir := writeFiles(t, "a.jpg", "b.png")
	files := []string{"a.jpg", "b.png", "missing.jpg"}

	res := u.UploadImages(context.Background(), dir, files, "images")
	assert.Equal(t, map[string]string{
		"a.jpg":       "https://cdn.example.com/images/a.jpg",
		"b.png":       "https://cdn.example.com/images/b.png",
		"missing.jpg": "/images/missing.jpg",
	}, res.URLs)
	assert.Equal(t, 2, res.Uploaded)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 1, res.Failed)

	res = u.UploadImages(context.Background(), dir, files[:2], "images")
	assert.Equal(t, 0, res.Uploaded)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 2, fake.puts)
}

func TestUploadImagesPutFailure(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("connection reset")
	u := NewUploader(fake, "photos", "https://cdn.example.com")
	dir := writeFiles(t, "a.jpg")

	res := u.UploadImages(context.Background(), dir, []string{"a.jpg"}, "images")
	assert.Equal(t, "/images/a.jpg", res.URLs["a.jpg"])
	assert.Equal(t, 1, res.Failed)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&s3types.NotFound{}))
	assert.True(t, isNotFound(&s3types.NoSuchKey{}))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "Forbidden"}))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestPing(t *testing.T) {
	fake := newFakeS3()
	require.NoError(t, NewUploader(fake, "photos", "https://cdn.example.com").Ping(context.Background()))
	require.Error(t, NewUploader(fake, "other", "https://cdn.example.com").Ping(context.Background()))
}

func TestNewClientIncomplete(t *testing.T) {
	_, err := NewClient(context.Background(), config.StorageConfig{Bucket: "photos"})
	require.ErrorIs(t, err, ErrIncompleteConfig)
}
