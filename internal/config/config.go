package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/zeromicro/go-zero/core/conf"

	"sigflow/pkg/confkit"
	marketpkg "sigflow/pkg/market"
	pipelinepkg "sigflow/pkg/pipeline"
)

// Config is the application configuration. Env selects runtime defaults,
// CacheDir roots the series cache, ModelDir holds the externally produced
// model artifacts.
type Config struct {
	// Env indicates the running environment: test | dev | prod.
	Env      string `json:",default=test"`
	CacheDir string `json:",default=data_cache"`
	ModelDir string `json:",default=ml_models"`

	Pipeline PipelineConf `json:",optional"`

	Market confkit.Section[marketpkg.Config] `json:",optional"`

	mainPath string
	baseDir  string
}

// PipelineConf carries the orchestrator knobs in config-file form. Durations
// are raw strings and parsed explicitly.
type PipelineConf struct {
	Workers          int    `json:",default=16"`
	Attempts         int    `json:",default=3"`
	RetryDelay       string `json:",default=2s"`
	BatchPause       string `json:",default=1s"`
	ErrorSampleLimit int    `json:",default=25"`
}

// ToPipeline converts the raw section into the orchestrator's config.
func (p PipelineConf) ToPipeline() (pipelinepkg.Config, error) {
	out := pipelinepkg.Config{
		Workers:          p.Workers,
		Attempts:         p.Attempts,
		ErrorSampleLimit: p.ErrorSampleLimit,
	}
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"RetryDelay", p.RetryDelay, &out.RetryDelay},
		{"BatchPause", p.BatchPause, &out.BatchPause},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return out, fmt.Errorf("config: pipeline %s: invalid duration %q: %w", d.name, d.raw, err)
		}
		*d.dst = parsed
	}
	return out, nil
}

// IsTestEnv reports whether the process runs with test defaults.
func (c *Config) IsTestEnv() bool {
	return c.Env == "test" || c.Env == ""
}

// MustLoad loads configuration or panics.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the main config file, expands environment variables, and
// hydrates the market provider section.
func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Market.Hydrate(cfg.baseDir, marketpkg.LoadConfig); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural soundness of the top-level config.
func (c *Config) Validate() error {
	switch c.Env {
	case "", "test", "dev", "prod":
	default:
		return fmt.Errorf("config: unknown env %q", c.Env)
	}
	if c.CacheDir == "" {
		return fmt.Errorf("config: CacheDir must not be empty")
	}
	if _, err := c.Pipeline.ToPipeline(); err != nil {
		return err
	}
	return nil
}

// MainPath returns the absolute path of the loaded config file.
func (c *Config) MainPath() string { return c.mainPath }

// BaseDir returns the directory of the loaded config file.
func (c *Config) BaseDir() string { return c.baseDir }
