package messages

// Messages for conflict handling, host collaborators and the upgrade sequence.
const (
	// ConflictGlobFailedFmt formats invalid Include pattern errors.
	ConflictGlobFailedFmt    = "expand Include %q from %s: %w"
	ConflictParseIncludeFmt  = "parse included config %s: %w"
	ConflictStripFailedFmt   = "remove UserParameter %s from %s: %w"
	ConflictDisableFailedFmt = "disable %s: %w"
	ConflictRestoreFailedFmt = "restore %s: %w"

	// HostUnsupportedActionFmt formats invalid service action errors.
	HostUnsupportedActionFmt = "unsupported service action %q (supported: start, stop, restart, status, enable, disable)"
	HostNoELReleaseFmt       = "cannot find an el<N> token in kernel release %q"

	// UpgradeOptionRequiredFmt formats missing orchestration dependencies.
	UpgradeOptionRequiredFmt        = "upgrade option %s is required"
	UpgradeDetectOSFmt              = "%w: %w"
	UpgradeUnsupportedOSFmt         = "%w: %s (supported: %s)"
	UpgradeAlreadyInstalledFmt      = "%w: %s exists; rerun with --force to reinstall"
	UpgradeUnreachableFmt           = "%w: %s did not answer within %ds"
	UpgradeRemoveFailedFmt          = "%w: removing package %s failed"
	UpgradeInstallFailedFmt         = "%w: installing %s failed"
	UpgradeUnsupportedParamFmt      = "%w: %s sets %s; add them to convert.ignore_keys or --ignore to skip them"
	UpgradeConflictUnresolvedFmt    = "%w: %s; rerun with --force to disable or strip them"
	UpgradeServiceStepFailedFmt     = "%w: systemctl %s %s failed"
	UpgradeRollbackServiceFailedFmt = "%w: systemctl %s %s failed; no agent is running on this host"
	UpgradeRestoreBackupFmt         = "restore %s from %s: %w"
	UpgradeStatFmt                  = "stat %s: %w"
	UpgradeVersionBannerFmt         = "========== %s ==========\n%s\n========== EOF ==========\n"
)
