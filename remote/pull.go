package remote

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aouyang1/photoportfolio/config"
	"github.com/aouyang1/photoportfolio/processing"
	"github.com/aouyang1/photoportfolio/util"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	mapset "github.com/deckarep/golang-set/v2"
)

// PullClient is the subset of the S3 API used to restore originals. *s3.Client
// satisfies it.
type PullClient interface {
	manager.DownloadAPIClient
	s3.ListObjectsV2APIClient
}

// Puller copies original images from the bucket into a local directory.
type Puller struct {
	client     PullClient
	downloader *manager.Downloader
	bucket     string
}

type PullResult struct {
	Downloaded int
	Failed     int
	Removed    int
}

func NewPullerFromConfig(ctx context.Context, cfg config.StorageConfig) (*Puller, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewPuller(client, cfg.Bucket), nil
}

func NewPuller(client PullClient, bucket string) *Puller {
	return &Puller{
		client:     client,
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
	}
}

// remoteFiles lists the originals directly under prefix. Nested keys and
// generated variants are ignored.
func (p *Puller) remoteFiles(ctx context.Context, prefix string) (mapset.Set[string], error) {
	listPrefix := prefix
	if listPrefix != "" {
		listPrefix = strings.TrimSuffix(listPrefix, "/") + "/"
	}

	remoteFiles := mapset.NewSet[string]()
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(listPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to list objects, %s, %w", p.bucket, err)
		}
		for object := range slices.Values(page.Contents) {
			name := strings.TrimPrefix(aws.ToString(object.Key), listPrefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			if !util.IsSupported(name) || processing.IsVariantName(name) {
				continue
			}
			remoteFiles.Add(name)
		}
	}

	if remoteFiles.Cardinality() == 0 {
		slog.Info("no remote files found", "prefix", listPrefix)
	}
	return remoteFiles, nil
}

func localFiles(dir string) (mapset.Set[string], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory, %s, %w", dir, err)
	}

	files := mapset.NewSet[string]()
	for entry := range slices.Values(entries) {
		name := entry.Name()
		if entry.IsDir() || !util.IsSupported(name) {
			continue
		}
		files.Add(name)
	}
	return files, nil
}

// download writes key to dst through a hidden temp file so a partial download
// never shows up as an image.
func (p *Puller) download(ctx context.Context, key, dst string) error {
	f, err := os.CreateTemp(filepath.Dir(dst), ".pull-*")
	if err != nil {
		return fmt.Errorf("unable to create file for s3 download, %s, %w", key, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	_, err = p.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("unable to download object from s3, %s, %w", key, err)
	}
	return os.Rename(tmp, dst)
}

// Pull downloads every original under prefix that dir is missing. With prune,
// local images that are not in the bucket are removed.
func (p *Puller) Pull(ctx context.Context, dir, prefix string, prune bool) (PullResult, error) {
	var res PullResult

	if err := os.MkdirAll(dir, 0755); err != nil {
		return res, fmt.Errorf("failed to create images directory: %w", err)
	}

	local, err := localFiles(dir)
	if err != nil {
		return res, err
	}
	remote, err := p.remoteFiles(ctx, prefix)
	if err != nil {
		return res, err
	}

	toDownload := remote.Difference(local).ToSlice()
	slices.Sort(toDownload)
	if len(toDownload) > 0 {
		slog.Info("downloading files", "count", len(toDownload), "names", toDownload)
	}
	for name := range slices.Values(toDownload) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := p.download(ctx, path.Join(prefix, name), filepath.Join(dir, name)); err != nil {
			slog.Warn("error while downloading s3 object", "name", name, "error", err)
			res.Failed++
			continue
		}
		res.Downloaded++
	}

	if prune {
		toDelete := local.Difference(remote).ToSlice()
		slices.Sort(toDelete)
		if len(toDelete) > 0 {
			slog.Info("deleting local files", "count", len(toDelete), "names", toDelete)
		}
		for name := range slices.Values(toDelete) {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				slog.Warn("unable to remove local file", "name", name, "error", err)
				continue
			}
			res.Removed++
		}
	}

	slog.Info("completed pull", "downloaded", res.Downloaded, "failed", res.Failed, "removed", res.Removed)
	return res, nil
}
