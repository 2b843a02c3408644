package upgrade

import "errors"

// Sentinels for every fatal condition of an upgrade or rollback. Config file
// failures wrap agentconf.ErrIO or agentconf.ErrFormat instead.
var (
	ErrUnsupportedPlatform  = errors.New("unsupported platform")
	ErrAlreadyInstalled     = errors.New("agent 2 is already installed")
	ErrUnreachableSource    = errors.New("package source unreachable")
	ErrInstallFailure       = errors.New("package installation failed")
	ErrUnsupportedParameter = errors.New("legacy config uses parameters agent 2 does not support")
	ErrConflictUnresolved   = errors.New("UserParameter collides with agent 2 builtin keys")
	ErrServiceTransition    = errors.New("service transition failed")
)
