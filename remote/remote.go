// Package remote uploads build assets to an S3 compatible bucket such as
// Cloudflare R2
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/aouyang1/photoportfolio/config"
	"github.com/aouyang1/photoportfolio/util"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const loadConfigTimeout = 3 * time.Second

var ErrIncompleteConfig = errors.New("storage config is incomplete")

// Client is the subset of the S3 API the uploader relies on. *s3.Client
// satisfies it.
type Client interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type Uploader struct {
	client    Client
	uploader  *manager.Uploader
	bucket    string
	publicURL string
}

// NewClient builds an S3 client for the configured endpoint using static
// credentials and path style addressing.
func NewClient(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	if !cfg.Complete() {
		return nil, ErrIncompleteConfig
	}

	ctxCfg, cancelCfg := context.WithTimeout(ctx, loadConfigTimeout)
	defer cancelCfg()
	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctxCfg,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load aws config, %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	}), nil
}

// NewUploaderFromConfig connects to the configured bucket.
func NewUploaderFromConfig(ctx context.Context, cfg config.StorageConfig) (*Uploader, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewUploader(client, cfg.Bucket, cfg.PublicURL), nil
}

func NewUploader(client Client, bucket, publicURL string) *Uploader {
	return &Uploader{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
		publicURL: publicURL,
	}
}

// PublicURL returns the address an object key is served from.
func (u *Uploader) PublicURL(key string) string {
	return u.publicURL + "/" + key
}

// Exists reports whether key is already in the bucket. Errors other than a
// missing object are returned.
func (u *Uploader) Exists(ctx context.Context, key string) (bool, error) {
	_, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// UploadFile puts the file at localPath under key unless the key already
// exists. It returns the public URL and whether an upload happened. A failed
// existence check is logged and the upload goes ahead.
func (u *Uploader) UploadFile(ctx context.Context, localPath, key string) (string, bool, error) {
	exists, err := u.Exists(ctx, key)
	if err != nil {
		slog.Warn("unable to check remote object, uploading anyway", "key", key, "error", err)
	}
	if exists {
		slog.Debug("remote object already exists, skipping upload", "key", key)
		return u.PublicURL(key), false, nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", false, fmt.Errorf("unable to open file for upload, %s, %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", false, fmt.Errorf("unable to stat file for upload, %s, %w", localPath, err)
	}

	if _, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(util.ContentType(localPath)),
		ContentLength: aws.Int64(info.Size()),
	}); err != nil {
		return "", false, fmt.Errorf("unable to upload object, %s, %w", key, err)
	}

	url := u.PublicURL(key)
	slog.Info("uploaded object", "key", key, "url", url)
	return url, true, nil
}

// UploadResult maps each filename to the URL it should be served from.
type UploadResult struct {
	URLs     map[string]string
	Uploaded int
	Skipped  int
	Failed   int
}

// UploadImages uploads every file in files from dir under prefix. A file that
// fails to upload maps to its local /images path so the build can continue.
func (u *Uploader) UploadImages(ctx context.Context, dir string, files []string, prefix string) UploadResult {
	res := UploadResult{URLs: make(map[string]string, len(files))}

	slog.Info("uploading files", "count", len(files), "prefix", prefix)
	for name := range slices.Values(files) {
		key := path.Join(prefix, name)
		url, uploaded, err := u.UploadFile(ctx, filepath.Join(dir, name), key)
		if err != nil {
			slog.Warn("error while uploading file, using local path", "name", name, "error", err)
			res.URLs[name] = LocalURL(name)
			res.Failed++
			continue
		}
		res.URLs[name] = url
		if uploaded {
			res.Uploaded++
		} else {
			res.Skipped++
		}
	}
	slog.Info("completed upload", "uploaded", res.Uploaded, "skipped", res.Skipped, "failed", res.Failed)
	return res
}

// Ping checks that the bucket is reachable with the configured credentials.
func (u *Uploader) Ping(ctx context.Context) error {
	if _, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	}); err != nil {
		return fmt.Errorf("unable to reach bucket, %s, %w", u.bucket, err)
	}
	return nil
}

// LocalURL is the path the site serves an image from when it is not on the CDN.
func LocalURL(name string) string {
	return "/images/" + name
}
