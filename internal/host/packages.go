package host

import (
	"context"

	"github.com/sirupsen/logrus"
)

// PackageManager installs and removes agent packages.
type PackageManager interface {
	Install(ctx context.Context, source string) bool
	Remove(ctx context.Context, name string) bool
}

// RPM installs with `rpm -ivh` and removes with `yum remove -y`.
type RPM struct {
	Runner Runner
	Log    logrus.FieldLogger
}

// Install installs the package at source, a URL or a local path.
func (r RPM) Install(ctx context.Context, source string) bool {
	if _, err := r.Runner.Run(ctx, "rpm", "-ivh", source); err != nil {
		r.Log.WithError(err).WithField("source", source).Error("package install failed")
		return false
	}
	r.Log.WithField("source", source).Info("package installed")
	return true
}

// Remove removes the named package.
func (r RPM) Remove(ctx context.Context, name string) bool {
	if _, err := r.Runner.Run(ctx, "yum", "remove", "-y", name); err != nil {
		r.Log.WithError(err).WithField("package", name).Error("package removal failed")
		return false
	}
	r.Log.WithField("package", name).Info("package removed")
	return true
}
