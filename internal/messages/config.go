package messages

// Messages for the agent configuration format and the tool settings file.
const (
	// AgentConfReadFailedFmt formats unreadable agent config errors.
	AgentConfReadFailedFmt  = "%w: read %s: %w"
	AgentConfWriteFailedFmt = "%w: write %s: %w"
	AgentConfStatFailedFmt  = "%w: stat %s: %w"
	AgentConfParseFailedFmt = "%s: %w"
	AgentConfLineErrorFmt   = "%w: line %d: %w"
	AgentConfEmptyKey       = "missing key before '='"
	AgentConfBadKeyFmt      = "expected key = value or a bare key, got %q"
	AgentConfSystemRequired = "agent config system is required"

	// SettingsReadFailedFmt formats unreadable settings file errors.
	SettingsReadFailedFmt       = "read settings %s: %w"
	SettingsInvalidFmt          = "%w: %s: %w"
	SettingsDefaultsInvalidFmt  = "embedded default settings are invalid: %w"
	SettingsExpandPathFmt       = "expand path %q: %w"
	SettingsRequiredFmt         = "%s: %s is required"
	SettingsProbeTimeoutFmt     = "%s: host.probe_timeout_seconds must be positive, got %d"
	SettingsSupportedOSEmptyFmt = "%s: host.supported_os must list at least one platform"
	SettingsLogLevelFmt         = "%s: log.level %q is invalid: %w"
)
