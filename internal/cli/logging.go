package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"sigflow/internal/config"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Cache dir: %s", cfg.CacheDir),
		fmt.Sprintf("Model dir: %s", cfg.ModelDir),
		fmt.Sprintf("Pipeline workers: %d, attempts: %d", cfg.Pipeline.Workers, cfg.Pipeline.Attempts),
		marketLine(cfg),
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func marketLine(cfg *config.Config) string {
	switch {
	case strings.TrimSpace(cfg.Market.File) != "":
		return fmt.Sprintf("Market config: %s", cfg.Market.File)
	case cfg.Market.Value != nil:
		return "Market config: inline"
	default:
		return "Market config: defaults (yahoo/binance)"
	}
}
