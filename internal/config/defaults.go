package config

const (
	defaultConfigPath       = "~/.config/mediaq/config.toml"
	defaultDownloadDir      = "~/Downloads/YoutubeDownloads"
	defaultLogDir           = "~/.local/share/mediaq/logs"
	defaultAPIBind          = "127.0.0.1:3000"
	defaultWorkerBinary     = "yt-dlp"
	defaultJSRuntime        = "node"
	defaultConcurrency      = 10
	defaultCancelGraceMS    = 1000
	defaultSubscriberBuffer = 256
	defaultHistoryFile      = "history.db"
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	envAPIToken             = "MEDIAQ_API_TOKEN"
	envNtfyTopic            = "MEDIAQ_NTFY_TOPIC"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			APIBind:     defaultAPIBind,
		},
		Worker: Worker{
			Binary:    defaultWorkerBinary,
			JSRuntime: defaultJSRuntime,
			ForceIPv4: true,
		},
		Queue: Queue{
			Concurrency:      defaultConcurrency,
			CancelGraceMS:    defaultCancelGraceMS,
			SubscriberBuffer: defaultSubscriberBuffer,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completed:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
