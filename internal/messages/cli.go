package messages

// CLI messages for user-facing commands and prompts.
const (
	// RootUse is the CLI command name.
	RootUse   = "agent2upgrade"
	RootShort = "Migrate a host from zabbix_agentd to zabbix_agent2"
	RootLong  = "agent2upgrade installs zabbix_agent2, carries the zabbix_agentd configuration over to it,\nresolves UserParameter collisions with agent2 builtin keys and cuts the running service over."

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	FlagConfig         = "Path to the agent2upgrade settings file (TOML)"
	FlagLogLevel       = "Log level (trace, debug, info, warn, error); overrides the settings file"
	FlagLogFile        = "Append logs to this file in addition to stderr"
	FlagIgnore         = "Additional agentd config key to leave untouched (repeatable)"
	LogFileOpenFmt     = "open log file %s: %w"
	LogLevelInvalidFmt = "invalid --log-level %q: %w"
	FatalErrorLog      = "agent2upgrade failed"

	// UpgradeUse is the upgrade command name.
	UpgradeUse         = "upgrade"
	UpgradeShort       = "Install agent2, convert the configuration and switch services"
	UpgradeFlagURL     = "Package source passed to rpm (URL or local path)"
	UpgradeFlagForce   = "Reinstall agent2 if present and resolve UserParameter conflicts automatically"
	UpgradeURLRequired = "--url is required"
	UpgradeDoneFmt     = "Upgrade complete: %s is running with configuration %s\n"

	ConvertUse            = "convert"
	ConvertShort          = "Carry the agentd configuration over to the agent2 configuration file"
	ConvertFlagForce      = "Resolve UserParameter conflicts automatically"
	ConvertSkippedFmt     = "Nothing to convert: %s does not exist\n"
	ConvertConvergedFmt   = "%s already matches %s\n"
	ConvertBackupFmt      = "Backup written to %s\n"
	ConvertChangeFmt      = "  %s %s: %q -> %q (line %d)\n"
	ConvertCollapsedFmt   = "Set more than once in agentd config, last value kept: %s\n"
	ConvertResolvedFmt    = "  %s %s (%s)\n"
	ConvertChangesHeader  = "Configuration changes:"
	ConvertResolvedHeader = "Conflict resolution:"

	PlanUse              = "plan"
	PlanShort            = "Show what convert would change without writing anything"
	PlanFlagDiffLines    = "Maximum diff lines to show"
	PlanHeader           = "Conversion plan (dry-run): no files were written."
	PlanNoChangesFmt     = "%s already matches %s\n"
	PlanUpdatesTitle     = "Keys to update"
	PlanAddsTitle        = "Keys to add"
	PlanCollapsedTitle   = "Keys set more than once in agentd config (last value kept)"
	PlanUnsupportedTitle = "Unsupported agentd parameters (add to ignore list or remove)"
	PlanConflictsTitle   = "UserParameter keys colliding with agent2 builtins"
	PlanDiffTitle        = "Diff"
	PlanNone             = "  - (none)"
	PlanItemFmt          = "  - %s\n"
	PlanConflictItemFmt  = "  - %s: %s\n"
	PlanDiffTruncatedFmt = "... (truncated to %d lines; rerun with --diff-lines <n> to see more)"

	ConflictsUse              = "conflicts"
	ConflictsShort            = "List UserParameter declarations and report collisions with agent2 builtin keys"
	ConflictsFlagFormat       = "Output format: text, json or yaml"
	ConflictsFlagPath         = "Config file to inspect (defaults to the agent2 config)"
	ConflictsFormatInvalidFmt = "unsupported format %q (supported: text, json, yaml)"
	ConflictsNoneFmt          = "No conflicts in %s\n"
	ConflictsFoundFmt         = "Conflicts found in %s\n"
	ConflictsFileFmt          = "%s:\n"
	ConflictsNameFmt          = "  %s\n"
	ConflictsCollidingNameFmt = "  %s (builtin)\n"

	RollbackUse               = "rollback"
	RollbackShort             = "Re-enable disabled include files and switch back to zabbix_agentd"
	RollbackFlagRestoreBackup = "Also restore the agent2 config from its .agent2upgrade.bak backup"
	RollbackFlagYes           = "Do not ask for confirmation"
	RollbackConfirmTitle      = "Stop zabbix_agent2 and start zabbix_agentd again?"
	RollbackRequiresTerminal  = "rollback requires confirmation; run in an interactive terminal or pass --yes"
	RollbackAborted           = "rollback aborted"
	RollbackRestoredFmt       = "Re-enabled %s\n"
	RollbackBackupFmt         = "Restored %s from %s\n"
	RollbackDoneFmt           = "Rollback complete: %s is running again\n"
)
