// Package pipeline builds the photo metadata file from the images directory
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/aouyang1/photoportfolio/config"
	"github.com/aouyang1/photoportfolio/content"
	"github.com/aouyang1/photoportfolio/processing"
	"github.com/aouyang1/photoportfolio/remote"
	"github.com/aouyang1/photoportfolio/store"
	"github.com/aouyang1/photoportfolio/util"
	mapset "github.com/deckarep/golang-set/v2"
)

const uploadPrefix = "images"

// Mode is where the built site loads its images from.
type Mode string

const (
	// ModeUpload uploads originals and variants and serves them from the CDN.
	ModeUpload Mode = "upload"
	// ModeCDN serves from the CDN assuming the objects are already there.
	ModeCDN Mode = "cdn"
	// ModeLocal serves from the local images directory.
	ModeLocal Mode = "local"
)

// DecideMode picks the storage mode for a build.
func DecideMode(s config.StorageConfig) Mode {
	switch {
	case s.Enabled && s.Complete() && s.HasCDNPrefix():
		return ModeUpload
	case !s.Enabled && s.HasCDNPrefix():
		return ModeCDN
	default:
		return ModeLocal
	}
}

// ScanImages returns the supported image filenames in dir sorted ascending. A
// directory that cannot be read is logged and yields no images.
func ScanImages(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Error("unable to read images directory", "dir", dir, "error", err)
		return nil
	}

	var names []string
	for entry := range slices.Values(entries) {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !util.IsSupported(name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Summary describes a finished build.
type Summary struct {
	Mode        Mode
	AssetPrefix string
	Total       int
	Processed   int
	Skipped     int
	Uploaded    int
	Reused      int
	Unmatched   []string
	Duration    time.Duration
}

type Builder struct {
	cfg      *config.Config
	cache    *store.Database
	uploader *remote.Uploader
}

type Option func(*Builder)

// WithCache reuses extracted metadata of unchanged images across builds.
func WithCache(db *store.Database) Option {
	return func(b *Builder) {
		b.cache = db
	}
}

// WithUploader sets the uploader used in upload mode instead of one built
// from the storage config.
func WithUploader(u *remote.Uploader) Option {
	return func(b *Builder) {
		b.uploader = u
	}
}

func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run scans the images directory, resolves every image URL, extracts metadata
// and replaces the metadata file. Images that fail are logged and left out.
func (b *Builder) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{
		Mode:        DecideMode(b.cfg.Storage),
		AssetPrefix: b.cfg.Storage.PublicURL,
	}

	imagesDir := b.cfg.ImagesDir()
	files := ScanImages(imagesDir)
	summary.Total = len(files)
	slog.Info("found images", "count", len(files), "dir", imagesDir)

	if len(files) == 0 {
		if err := content.WriteMetadata(b.cfg.MetadataPath(), content.Metadata{}); err != nil {
			return summary, fmt.Errorf("failed to write metadata: %w", err)
		}
		summary.Duration = time.Since(start)
		slog.Info("no images found, wrote empty metadata", "path", b.cfg.MetadataPath())
		return summary, nil
	}

	contentCfg, err := content.LoadConfig(b.cfg.ContentConfigPath())
	if err != nil {
		slog.Warn("unable to load content config, continuing without annotations", "error", err)
		contentCfg = content.Config{}
	}
	slog.Info("loaded content config", "count", len(contentCfg))

	urls, err := b.resolveURLs(ctx, &summary, files)
	if err != nil {
		return summary, err
	}

	md := make(content.Metadata, len(files))
	for name := range slices.Values(files) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		meta, reused, err := b.extract(filepath.Join(imagesDir, name), name)
		if err != nil {
			slog.Warn("error while processing image, skipping", "name", name, "error", err)
			summary.Skipped++
			continue
		}
		if reused {
			summary.Reused++
		}
		md[name] = content.Merge(contentCfg, name, meta, urls[name])
		summary.Processed++
	}

	summary.Unmatched = contentCfg.Unmatched(files)
	if len(summary.Unmatched) > 0 {
		slog.Info("content config has entries without images", "count", len(summary.Unmatched), "names", summary.Unmatched)
	}

	if err := content.WriteMetadata(b.cfg.MetadataPath(), md); err != nil {
		return summary, fmt.Errorf("failed to write metadata: %w", err)
	}

	b.pruneCache(files)
	summary.Duration = time.Since(start)
	b.recordBuild(start, summary)

	slog.Info("build complete",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"uploaded", summary.Uploaded,
		"reused", summary.Reused,
		"mode", summary.Mode,
		"asset_prefix", summary.AssetPrefix,
		"duration", summary.Duration,
	)
	return summary, nil
}

// resolveURLs returns the URL every file is served from, uploading in upload
// mode. An uploader that cannot be created falls back to local mode.
func (b *Builder) resolveURLs(ctx context.Context, summary *Summary, files []string) (map[string]string, error) {
	urls := make(map[string]string, len(files))

	if summary.Mode == ModeUpload {
		uploader, err := b.getUploader(ctx)
		if err != nil {
			slog.Warn("unable to create uploader, using local paths", "error", err)
			summary.Mode = ModeLocal
		} else {
			uploaded, err := b.upload(ctx, uploader, files, urls)
			summary.Uploaded = uploaded
			return urls, err
		}
	}

	for name := range slices.Values(files) {
		switch summary.Mode {
		case ModeCDN:
			urls[name] = summary.AssetPrefix + "/" + uploadPrefix + "/" + name
		default:
			urls[name] = remote.LocalURL(name)
		}
	}
	return urls, nil
}

func (b *Builder) getUploader(ctx context.Context) (*remote.Uploader, error) {
	if b.uploader != nil {
		return b.uploader, nil
	}
	return remote.NewUploaderFromConfig(ctx, b.cfg.Storage)
}

// upload renders the variants into a temporary directory, then uploads the
// originals followed by the variants. The temporary directory is always removed.
func (b *Builder) upload(ctx context.Context, uploader *remote.Uploader, files []string, urls map[string]string) (int, error) {
	tmpDir, err := os.MkdirTemp("", "portfolio-variants-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create variants directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			slog.Warn("unable to remove variants directory", "dir", tmpDir, "error", err)
		}
	}()

	specs := b.variantSpecs()
	var variants []string
	for name := range slices.Values(files) {
		paths, err := processing.GenerateVariants(filepath.Join(b.cfg.ImagesDir(), name), tmpDir, specs)
		if err != nil {
			slog.Warn("error while generating variants", "name", name, "error", err)
			continue
		}
		for p := range slices.Values(paths) {
			variants = append(variants, filepath.Base(p))
		}
	}

	originals := uploader.UploadImages(ctx, b.cfg.ImagesDir(), files, uploadPrefix)
	for name, url := range originals.URLs {
		urls[name] = url
	}
	if err := ctx.Err(); err != nil {
		return originals.Uploaded, err
	}
	resized := uploader.UploadImages(ctx, tmpDir, variants, uploadPrefix)

	slog.Info("uploaded originals and variants", "originals", len(files), "variants", len(variants))
	return originals.Uploaded + resized.Uploaded, nil
}

func (b *Builder) variantSpecs() []processing.VariantSpec {
	specs := make([]processing.VariantSpec, 0, len(b.cfg.Variants.Widths))
	for w := range slices.Values(b.cfg.Variants.Widths) {
		specs = append(specs, processing.VariantSpec{Width: w, Quality: b.cfg.Variants.QualityFor(w)})
	}
	return specs
}

// extract returns the metadata of path, from the cache when the file is
// unchanged since it was last extracted.
func (b *Builder) extract(path, name string) (processing.Metadata, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return processing.Metadata{}, false, fmt.Errorf("unable to stat image, %w", err)
	}

	if b.cache != nil {
		cached, err := b.cache.GetCachedImage(name)
		if err != nil {
			slog.Warn("unable to read metadata cache", "name", name, "error", err)
		} else if cached != nil && cached.Matches(info.ModTime(), info.Size()) {
			slog.Debug("reusing cached metadata", "name", name)
			return cached.Metadata(), true, nil
		}
	}

	meta, err := processing.Extract(path)
	if err != nil {
		return processing.Metadata{}, false, err
	}

	if b.cache != nil {
		if err := b.cache.UpsertCachedImage(&store.CachedImage{
			Filename:    name,
			ModTime:     info.ModTime(),
			Size:        info.Size(),
			Width:       meta.Width,
			Height:      meta.Height,
			BlurDataURL: meta.BlurDataURL,
			Exif:        meta.Exif,
		}); err != nil {
			slog.Warn("unable to update metadata cache", "name", name, "error", err)
		}
	}
	return meta, false, nil
}

func (b *Builder) pruneCache(files []string) {
	if b.cache == nil {
		return
	}
	removed, err := b.cache.PruneMissing(mapset.NewSet(files...))
	if err != nil {
		slog.Warn("unable to prune metadata cache", "error", err)
		return
	}
	if removed > 0 {
		slog.Debug("pruned metadata cache", "removed", removed)
	}
}

func (b *Builder) recordBuild(start time.Time, s Summary) {
	if b.cache == nil {
		return
	}
	if err := b.cache.InsertBuild(&store.Build{
		StartedAt: start,
		Duration:  s.Duration,
		Mode:      string(s.Mode),
		Processed: s.Processed,
		Skipped:   s.Skipped,
		Uploaded:  s.Uploaded,
		Reused:    s.Reused,
	}); err != nil {
		slog.Warn("unable to record build", "error", err)
	}
}
