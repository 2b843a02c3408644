//go:build !unix

package host

import "github.com/pkg/errors"

func kernelRelease() (string, error) {
	return "", errors.New("kernel release is only available on unix hosts")
}
