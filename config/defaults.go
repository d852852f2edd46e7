package config

import (
	"time"

	"github.com/fooni/hy3d/hunyuan"
	"github.com/fooni/hy3d/types"
)

// DefaultConfig returns the configuration used when no file and no
// environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Region: hunyuan.DefaultRegion,
		Generation: GenerationConfig{
			ResultFormat:  string(types.FormatGLB),
			EnablePBR:     false,
			Base64LimitMB: 20,
			OutputDir:     ".",
			OutputName:    "result",
		},
		Client: ClientConfig{
			Endpoint:        hunyuan.DefaultClientConfig().Endpoint,
			RequestTimeout:  15 * time.Second,
			DownloadTimeout: 60 * time.Second,
		},
		Secrets: SecretsConfig{
			StorageMode: string(types.StoreSession),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "hy3d",
		},
	}
}
