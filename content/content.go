// Package content reads the hand authored photo annotations and reads and
// writes the generated photo metadata file
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/aouyang1/photoportfolio/processing"
	mapset "github.com/deckarep/golang-set/v2"
)

// Entry is the annotation an author attaches to a single photo.
type Entry struct {
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Config maps image filenames to their annotations.
type Config map[string]Entry

// Photo is the record the gallery renders for one image.
type Photo struct {
	Description string           `json:"description,omitempty"`
	Location    string           `json:"location,omitempty"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	BlurDataURL string           `json:"blurDataURL"`
	Thumbnail   string           `json:"thumbnail"`
	Original    string           `json:"original"`
	Exif        *processing.Exif `json:"exif,omitempty"`
}

// Metadata maps image filenames to their photo records.
type Metadata map[string]Photo

// LoadConfig reads the annotations file. A missing file is an empty config.
func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	if err := readJSON(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	if cfg == nil {
		cfg = Config{}
	}
	return cfg, nil
}

// SaveConfig writes cfg to path with two space indentation.
func SaveConfig(path string, cfg Config) error {
	if cfg == nil {
		cfg = Config{}
	}
	return writeJSON(path, cfg)
}

// Merge builds the record for filename from its extracted metadata, its
// annotation when one exists, and the URL the image is served from.
func Merge(cfg Config, filename string, meta processing.Metadata, url string) Photo {
	entry := cfg[filename]
	return Photo{
		Description: entry.Description,
		Location:    entry.Location,
		Width:       meta.Width,
		Height:      meta.Height,
		BlurDataURL: meta.BlurDataURL,
		Thumbnail:   url,
		Original:    url,
		Exif:        meta.Exif,
	}
}

// Unmatched returns the annotated filenames that are not among filenames,
// sorted ascending.
func (c Config) Unmatched(filenames []string) []string {
	known := mapset.NewSet(filenames...)
	var orphans []string
	for name := range c {
		if !known.Contains(name) {
			orphans = append(orphans, name)
		}
	}
	slices.Sort(orphans)
	return orphans
}

// LoadMetadata reads the generated metadata file.
func LoadMetadata(path string) (Metadata, error) {
	md := Metadata{}
	if err := readJSON(path, &md); err != nil {
		return nil, err
	}
	return md, nil
}

// WriteMetadata replaces the metadata file with md. Keys are written in
// ascending order.
func WriteMetadata(path string, md Metadata) error {
	if md == nil {
		md = Metadata{}
	}
	return writeJSON(path, md)
}

// Filenames returns the keys of md sorted ascending.
func (md Metadata) Filenames() []string {
	names := make([]string, 0, len(md))
	for name := range md {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Item is a photo paired with its filename.
type Item struct {
	Filename string `json:"filename"`
	Photo
}

// Items returns the records ordered by filename.
func (md Metadata) Items() []Item {
	items := make([]Item, 0, len(md))
	for _, name := range md.Filenames() {
		items = append(items, Item{Filename: name, Photo: md[name]})
	}
	return items
}

// ConfigFile serializes reads and writes of the annotations file made by
// concurrent admin requests.
type ConfigFile struct {
	path string
	mu   sync.Mutex
}

func NewConfigFile(path string) *ConfigFile {
	return &ConfigFile{path: path}
}

func (f *ConfigFile) Path() string {
	return f.path
}

// Load returns the current annotations. A file that cannot be parsed is
// logged and treated as empty.
func (f *ConfigFile) Load() Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *ConfigFile) load() Config {
	cfg, err := LoadConfig(f.path)
	if err != nil {
		slog.Warn("unable to read content config, starting empty", "path", f.path, "error", err)
		return Config{}
	}
	return cfg
}

// Put sets the annotation of a single filename. A file that cannot be parsed
// is left untouched and its error returned.
func (f *ConfigFile) Put(filename string, entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cfg, err := LoadConfig(f.path)
	if err != nil {
		return err
	}
	cfg[filename] = entry
	return SaveConfig(f.path, cfg)
}

// Replace overwrites every annotation with cfg.
func (f *ConfigFile) Replace(cfg Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return SaveConfig(f.path, cfg)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes through a temp file in the same directory so readers never
// see a partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
