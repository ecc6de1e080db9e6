//go:build windows

package links

import (
	"golang.org/x/sys/windows"

	"github.com/sidkik/p4workspace/pkg/errors"
)

var platformResolver Resolver = reparsePointResolver{}

// reparsePointResolver treats any entry with the reparse point attribute as
// a link, and decodes symbolic link and junction targets from the raw
// reparse data.
type reparsePointResolver struct{}

func (reparsePointResolver) IsLink(path string) (bool, error) {
	pathp, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false, errors.WithContext(err, "encode path")
	}

	attrs, err := windows.GetFileAttributes(pathp)
	if err != nil {
		return false, errors.WithContext(err, "get attributes")
	}
	return attrs&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0, nil
}

func (reparsePointResolver) ReadLinkTarget(path string) (string, error) {
	pathp, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return "", errors.WithContext(err, "encode path")
	}

	// Open the link itself rather than what it points to.
	handle, err := windows.CreateFile(pathp, 0, 0, nil, windows.OPEN_EXISTING,
		windows.FILE_FLAG_OPEN_REPARSE_POINT|windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return "", errors.WithContext(err, "open")
	}
	defer windows.CloseHandle(handle)

	buf := make([]byte, windows.MAXIMUM_REPARSE_DATA_BUFFER_SIZE)
	var n uint32
	err = windows.DeviceIoControl(handle, windows.FSCTL_GET_REPARSE_POINT,
		nil, 0, &buf[0], uint32(len(buf)), &n, nil)
	if err != nil {
		return "", errors.WithContext(err, "get reparse point")
	}

	target, err := DecodeReparseData(buf[:n])
	if err != nil {
		var linkErr errors.LinkResolutionError
		if errors.As(err, &linkErr) {
			linkErr.Path = path
			return "", linkErr
		}
		return "", errors.WithContext(err, "decode reparse point")
	}
	return target, nil
}
