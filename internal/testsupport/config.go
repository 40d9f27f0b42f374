package testsupport

import (
	"path/filepath"
	"testing"

	"gbswap/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a normalized config rooted in a per-test temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "state")
	cfg.Server.Bind = "127.0.0.1:0"
	cfg.Server.MaxUploadBytes = 1 << 20
	cfg.Server.PreviewMaxWidth = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAPIToken sets the bearer token required by the API routes.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.APIToken = token
	}
}

// WithMaxUpload overrides the upload limit in bytes.
func WithMaxUpload(n int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.MaxUploadBytes = n
	}
}

// WithPreviewWidth overrides the preview thumbnail width.
func WithPreviewWidth(width int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.PreviewMaxWidth = width
	}
}
