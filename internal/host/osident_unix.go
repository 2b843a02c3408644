//go:build unix

package host

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func kernelRelease() (string, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", errors.Wrap(err, "uname")
	}
	return unix.ByteSliceToString(u.Release[:]), nil
}
