package links

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/sidkik/p4workspace/pkg/errors"
)

// Reparse tags for the two kinds of directory links.
const (
	TagMountPoint uint32 = 0xA0000003
	TagSymlink    uint32 = 0xA000000C
)

// The reparse data header is the tag (4 bytes), the data length (2 bytes),
// and a reserved field (2 bytes). Both link buffers then start with the
// substitute and print name offsets and lengths. Symbolic links have an
// extra 4 byte flags field before the path buffer.
const (
	headerSize              = 8
	mountPointPathBufferOff = headerSize + 8
	symlinkPathBufferOff    = headerSize + 12

	ntPathPrefix = `\??\`
)

// DecodeReparseData returns the target path stored in a REPARSE_DATA_BUFFER.
// The print name is preferred. If it's empty, the substitute name is used
// with its NT namespace prefix removed.
func DecodeReparseData(buf []byte) (string, error) {
	if len(buf) < headerSize {
		return "", errors.New("reparse data is truncated")
	}

	tag := binary.LittleEndian.Uint32(buf)
	var pathBufferOff int
	switch tag {
	case TagSymlink:
		pathBufferOff = symlinkPathBufferOff
	case TagMountPoint:
		pathBufferOff = mountPointPathBufferOff
	default:
		return "", errors.LinkResolutionError{Tag: tag}
	}

	if len(buf) < pathBufferOff {
		return "", errors.New("reparse data is truncated")
	}
	substituteOff := int(binary.LittleEndian.Uint16(buf[headerSize:]))
	substituteLen := int(binary.LittleEndian.Uint16(buf[headerSize+2:]))
	printOff := int(binary.LittleEndian.Uint16(buf[headerSize+4:]))
	printLen := int(binary.LittleEndian.Uint16(buf[headerSize+6:]))

	name, err := decodeUTF16(buf, pathBufferOff+printOff, printLen)
	if err != nil {
		return "", errors.WithContext(err, "print name")
	}
	if name != "" {
		return name, nil
	}

	name, err = decodeUTF16(buf, pathBufferOff+substituteOff, substituteLen)
	if err != nil {
		return "", errors.WithContext(err, "substitute name")
	}
	return strings.TrimPrefix(name, ntPathPrefix), nil
}

func decodeUTF16(buf []byte, off, length int) (string, error) {
	if off+length > len(buf) || length%2 != 0 {
		return "", errors.New("name is out of bounds")
	}

	chars := make([]uint16, length/2)
	for i := range chars {
		chars[i] = binary.LittleEndian.Uint16(buf[off+2*i:])
	}
	return string(utf16.Decode(chars)), nil
}
