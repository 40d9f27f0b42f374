package config

const (
	defaultBind            = "127.0.0.1:8501"
	defaultMaxUpload       = "32 MiB"
	defaultPreviewMaxWidth = 640
	defaultStateDir        = "~/.local/share/gbswap"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultConfigPath      = "~/.config/gbswap/config.toml"
	projectConfigName      = "gbswap.toml"

	apiTokenEnv = "GBSWAP_API_TOKEN"

	// Upper bound for server.max_upload; a single BMP cannot usefully exceed it.
	maxUploadCeiling = 1 << 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:            defaultBind,
			MaxUpload:       defaultMaxUpload,
			PreviewMaxWidth: defaultPreviewMaxWidth,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
