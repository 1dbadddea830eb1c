//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package env

import "errors"

func kernelRelease() (string, error) {
	return "", errors.New("uname not supported on this platform")
}
