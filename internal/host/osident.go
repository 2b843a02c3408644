package host

import (
	"fmt"
	"regexp"
	"runtime"

	"github.com/conn-castle/agent2upgrade/internal/messages"
)

// PlatformWindows is reported for every Windows host.
const PlatformWindows = "win"

// OSIdentity names the platform the tool runs on, e.g. "el7".
type OSIdentity interface {
	Detect() (string, error)
}

// Uname derives the platform from the kernel release.
type Uname struct{}

var elPattern = regexp.MustCompile(`\bel[0-9]+`)

// Detect returns "win" on Windows and the el<N> token of the kernel release elsewhere.
func (Uname) Detect() (string, error) {
	if runtime.GOOS == "windows" {
		return PlatformWindows, nil
	}
	release, err := kernelRelease()
	if err != nil {
		return "", err
	}
	return ELRelease(release)
}

// ELRelease extracts the el<N> token from a kernel release such as
// "3.10.0-1160.el7.x86_64".
func ELRelease(release string) (string, error) {
	token := elPattern.FindString(release)
	if token == "" {
		return "", fmt.Errorf(messages.HostNoELReleaseFmt, release)
	}
	return token, nil
}
