package config

const (
	defaultConfigPath       = "~/.config/inlay/config.toml"
	projectConfigName       = "inlay.toml"
	defaultOutputDir        = "final_output"
	defaultLogDir           = "~/.local/share/inlay/logs"
	defaultStateDir         = "~/.local/share/inlay"
	defaultLedgerName       = "ledger.db"
	defaultMatchingStrategy = "slug"
	defaultMinScore         = 0.5
	defaultEpsilonMS        = 50
	defaultProbeConcurrency = 4
	defaultProbeTimeout     = 30
	defaultRetryAttempts    = 3
	defaultRetryInitialMS   = 250
	defaultFFmpeg           = "ffmpeg"
	defaultFFprobe          = "ffprobe"
	defaultExecutorTimeout  = 3600
	defaultVideoCodec       = "libx264"
	defaultPreset           = "medium"
	defaultCRF              = 23
	defaultAudioCodec       = "copy"
	defaultAudioBitrate     = "192k"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Matching: Matching{
			Strategy: defaultMatchingStrategy,
			MinScore: defaultMinScore,
		},
		Reconcile: Reconcile{
			EpsilonMS: defaultEpsilonMS,
		},
		Probe: Probe{
			Concurrency:    defaultProbeConcurrency,
			TimeoutSeconds: defaultProbeTimeout,
			RetryAttempts:  defaultRetryAttempts,
			RetryInitialMS: defaultRetryInitialMS,
		},
		Executor: Executor{
			FFmpeg:         defaultFFmpeg,
			FFprobe:        defaultFFprobe,
			TimeoutSeconds: defaultExecutorTimeout,
			VideoCodec:     defaultVideoCodec,
			Preset:         defaultPreset,
			CRF:            defaultCRF,
			AudioCodec:     defaultAudioCodec,
			AudioBitrate:   defaultAudioBitrate,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
