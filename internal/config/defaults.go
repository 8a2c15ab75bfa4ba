package config

const (
	defaultWorkDir          = "."
	defaultArtifact         = "current.wav"
	defaultBackupDir        = ".wavsh"
	defaultPollIntervalMS   = 250
	defaultDetectTimeoutSec = 5
	defaultSentinel         = ":"
	defaultPrompt           = "wavsh> "
	defaultShellProgram     = "/bin/sh"
	defaultPlayer           = "aplay"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Work: Work{
			Dir:       defaultWorkDir,
			Artifact:  defaultArtifact,
			BackupDir: defaultBackupDir,
		},
		Detect: Detect{
			PollIntervalMS: defaultPollIntervalMS,
			TimeoutSeconds: defaultDetectTimeoutSec,
		},
		Shell: Shell{
			Sentinel: defaultSentinel,
			Prompt:   defaultPrompt,
			Program:  defaultShellProgram,
		},
		Playback: Playback{
			Command: defaultPlayer,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
