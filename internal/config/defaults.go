package config

// Default returns the configuration with all defaults applied. Callers are
// expected to run normalize before use.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  "~/.local/share/soundbridge/logs",
			DataDir: "~/.local/share/soundbridge",
		},
		Board: Board{
			Executable:     "",
			Document:       "",
			ControlAddress: "127.0.0.1:8866",
		},
		Lifecycle: Lifecycle{
			GracefulStopSeconds: 6,
			StopPollIntervalMs:  250,
			ForcedStopSeconds:   3,
			ReadyTimeoutSeconds: 15,
			ReadyPollIntervalMs: 500,
		},
		Health: Health{
			CacheTTLSeconds:       2,
			ProbeTimeoutMs:        500,
			RequestTimeoutSeconds: 5,
		},
		Logging: Logging{
			Format:        "console",
			Level:         "info",
			RetentionDays: 14,
		},
	}
}
