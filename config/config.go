// Package config loads portfolio settings from .env files, the environment and an optional portfolio.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultAddr   = "0.0.0.0:8080"
	defaultRegion = "auto"

	yamlFileName = "portfolio.yaml"
)

type Config struct {
	RootPath    string
	Env         string
	Addr        string
	AdminSecret string

	Storage  StorageConfig
	Variants VariantsConfig
}

// StorageConfig describes the S3 compatible bucket the build uploads into
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	// PublicURL is the asset prefix that public object URLs are built from
	PublicURL string
}

// Complete reports whether every credential and location field is set.
func (s StorageConfig) Complete() bool {
	return s.Endpoint != "" &&
		s.Bucket != "" &&
		s.AccessKeyID != "" &&
		s.SecretAccessKey != "" &&
		s.PublicURL != ""
}

// HasCDNPrefix reports whether the asset prefix points at an https origin.
func (s StorageConfig) HasCDNPrefix() bool {
	return strings.HasPrefix(s.PublicURL, "https://")
}

type VariantsConfig struct {
	Widths  []int         `yaml:"widths"`
	Quality []QualityStep `yaml:"quality"`
}

// QualityStep applies Quality to every variant no wider than MaxWidth. A zero
// MaxWidth matches any width.
type QualityStep struct {
	MaxWidth int `yaml:"max_width"`
	Quality  int `yaml:"quality"`
}

type fileConfig struct {
	Variants VariantsConfig `yaml:"variants"`
}

func DefaultVariants() VariantsConfig {
	return VariantsConfig{
		Widths: []int{400, 640, 960, 1280, 1920, 2880},
		Quality: []QualityStep{
			{MaxWidth: 640, Quality: 85},
			{MaxWidth: 1280, Quality: 80},
			{MaxWidth: 0, Quality: 75},
		},
	}
}

// QualityFor returns the JPEG quality for a variant of the given width.
func (v VariantsConfig) QualityFor(width int) int {
	for _, step := range v.Quality {
		if step.MaxWidth == 0 || width <= step.MaxWidth {
			return step.Quality
		}
	}
	return 75
}

func (v VariantsConfig) Validate() error {
	if len(v.Widths) == 0 {
		return errors.New("variants.widths must not be empty")
	}
	for _, w := range v.Widths {
		if w <= 0 {
			return fmt.Errorf("variants.widths must be positive, got %d", w)
		}
	}
	for _, step := range v.Quality {
		if step.Quality < 1 || step.Quality > 100 {
			return fmt.Errorf("variants.quality must be within 1-100, got %d", step.Quality)
		}
		if step.MaxWidth < 0 {
			return fmt.Errorf("variants.quality max_width must be non-negative, got %d", step.MaxWidth)
		}
	}
	return nil
}

// Load resolves the configuration. rootPath overrides PORTFOLIO_ROOT_PATH when
// non-empty.
func Load(rootPath string) (*Config, error) {
	if rootPath == "" {
		rootPath = os.Getenv("PORTFOLIO_ROOT_PATH")
	}
	if rootPath == "" {
		rootPath = "."
	}

	env := os.Getenv("PORTFOLIO_ENV")
	if env == "" {
		env = EnvProduction
	}

	if err := loadEnvFiles(rootPath, env); err != nil {
		return nil, err
	}
	// .env may set the environment itself, in which case its own file is
	// loaded too without overriding what is already set
	if fromFile := os.Getenv("PORTFOLIO_ENV"); fromFile != "" && fromFile != env {
		env = fromFile
		if err := loadEnvFile(filepath.Join(rootPath, ".env."+env)); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		RootPath:    rootPath,
		Env:         env,
		Addr:        getenvDefault("PORTFOLIO_ADDR", defaultAddr),
		AdminSecret: os.Getenv("PORTFOLIO_ADMIN_SECRET"),
		Storage: StorageConfig{
			Enabled:         parseBool(os.Getenv("PORTFOLIO_ENABLE_UPLOAD")),
			Endpoint:        os.Getenv("PORTFOLIO_S3_ENDPOINT"),
			Bucket:          os.Getenv("PORTFOLIO_S3_BUCKET"),
			AccessKeyID:     os.Getenv("PORTFOLIO_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("PORTFOLIO_S3_SECRET_ACCESS_KEY"),
			Region:          getenvDefault("PORTFOLIO_S3_REGION", defaultRegion),
			PublicURL:       strings.TrimSuffix(os.Getenv("PORTFOLIO_ASSET_PREFIX"), "/"),
		},
		Variants: DefaultVariants(),
	}

	if err := cfg.loadFile(filepath.Join(rootPath, yamlFileName)); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles reads .env.<env> then .env from the root. Values already in the
// environment win, and CI runs skip the files entirely.
func loadEnvFiles(rootPath, env string) error {
	if os.Getenv("CI") != "" {
		return nil
	}
	for _, name := range []string{".env." + env, ".env"} {
		if err := loadEnvFile(filepath.Join(rootPath, name)); err != nil {
			return err
		}
	}
	return nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if len(fc.Variants.Widths) > 0 {
		c.Variants.Widths = fc.Variants.Widths
	}
	if len(fc.Variants.Quality) > 0 {
		c.Variants.Quality = fc.Variants.Quality
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("PORTFOLIO_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	slices.Sort(c.Variants.Widths)
	c.Variants.Widths = slices.Compact(c.Variants.Widths)
	return c.Variants.Validate()
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func (c *Config) ImagesDir() string {
	return filepath.Join(c.RootPath, "public", "images")
}

func (c *Config) DataDir() string {
	return filepath.Join(c.RootPath, "data")
}

func (c *Config) ContentConfigPath() string {
	return filepath.Join(c.DataDir(), "content-config.json")
}

func (c *Config) MetadataPath() string {
	return filepath.Join(c.DataDir(), "photo-metadata.json")
}

func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir(), "cache.db")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
