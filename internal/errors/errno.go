package errors

import (
	"errors"
	"io/fs"
	"strconv"
	"syscall"
)

var errnoNames = map[syscall.Errno]string{
	syscall.EACCES:       "EACCES",
	syscall.EPERM:        "EPERM",
	syscall.ENOENT:       "ENOENT",
	syscall.EISDIR:       "EISDIR",
	syscall.ENOTDIR:      "ENOTDIR",
	syscall.EIO:          "EIO",
	syscall.ELOOP:        "ELOOP",
	syscall.EMFILE:       "EMFILE",
	syscall.ENFILE:       "ENFILE",
	syscall.ENAMETOOLONG: "ENAMETOOLONG",
}

// IsNotFound reports whether err means the file does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// ErrnoCode returns the symbolic code for the OS error underlying err,
// e.g. "EACCES". Errors that carry no errno map to "EUNKNOWN".
func ErrnoCode(err error) string {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if name, ok := errnoNames[errno]; ok {
			return name
		}

		return "E" + strconv.Itoa(int(errno))
	}

	switch {
	case errors.Is(err, fs.ErrPermission):
		return "EACCES"
	case errors.Is(err, fs.ErrNotExist):
		return "ENOENT"
	}

	return "EUNKNOWN"
}
