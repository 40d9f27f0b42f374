package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv(apiTokenEnv); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
	c.Server.MaxUpload = strings.TrimSpace(c.Server.MaxUpload)
	if c.Server.MaxUpload == "" {
		c.Server.MaxUpload = defaultMaxUpload
	}
	size, err := humanize.ParseBytes(c.Server.MaxUpload)
	if err != nil {
		return fmt.Errorf("server.max_upload: %w", err)
	}
	if size > maxUploadCeiling {
		return fmt.Errorf("server.max_upload: %s exceeds %s", c.Server.MaxUpload, humanize.IBytes(maxUploadCeiling))
	}
	c.Server.MaxUploadBytes = int64(size)
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
